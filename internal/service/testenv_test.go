package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"lingua_exam_backend/internal/adaptive"
	"lingua_exam_backend/internal/config"
	"lingua_exam_backend/internal/grading"
	"lingua_exam_backend/internal/model"
	"lingua_exam_backend/internal/repository"
	"lingua_exam_backend/pkg/database"
	"lingua_exam_backend/pkg/lock"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db        *gorm.DB
	catalog   *CatalogService
	ledger    *AnswerLedgerService
	questions *QuestionService
	attempts  *ExamAttemptService
	locker    *lock.KeyedMutex
	now       time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.InitDB(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)

	examRepo := repository.NewExamRepository(db)
	attemptRepo := repository.NewExamAttemptRepository(db)
	answerRepo := repository.NewAnswerRepository(db)

	env := &testEnv{
		db:     db,
		locker: lock.NewKeyedMutex(2 * time.Second),
		now:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local),
	}
	env.catalog = NewCatalogService(examRepo, grading.NewGrader(), db)
	env.ledger = NewAnswerLedgerService(answerRepo, attemptRepo, env.catalog)
	env.questions = NewQuestionService(env.catalog, attemptRepo, env.ledger, adaptive.DefaultConfig())
	env.attempts = NewExamAttemptService(db, env.catalog, attemptRepo, env.ledger, env.questions, env.locker)
	env.attempts.Now = func() time.Time { return env.now }
	return env
}

func text(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

func textQuestions(n int, prefix string) []ImportQuestionRequest {
	qs := make([]ImportQuestionRequest, 0, n)
	for i := 1; i <= n; i++ {
		qs = append(qs, ImportQuestionRequest{
			QuestionType:  model.QuestionText,
			Prompt:        fmt.Sprintf("%s question %d", prefix, i),
			CorrectAnswer: text(fmt.Sprintf("%s-%d", prefix, i)),
		})
	}
	return qs
}

// ieltsExam has 40 listening and 40 reading questions plus one rubric
// writing task.
func (e *testEnv) ieltsExam(t *testing.T, code string) *model.Exam {
	t.Helper()
	exam, err := e.catalog.ImportExam(context.Background(), ImportExamRequest{
		Code:        code,
		Title:       "IELTS Mock " + code,
		IsPublished: true,
		Sections: []ImportSectionRequest{
			{Title: "Listening", SectionType: model.SectionListening, DurationSeconds: 1800, Questions: textQuestions(40, "l")},
			{Title: "Reading", SectionType: model.SectionReading, DurationSeconds: 3600, Questions: textQuestions(40, "r")},
			{Title: "Writing", SectionType: model.SectionWriting, DurationSeconds: 3600, ScoringMode: model.ScoringRubric,
				Questions: []ImportQuestionRequest{{QuestionType: model.QuestionText, Prompt: "Describe the chart"}}},
		},
	})
	require.NoError(t, err)
	return exam
}

// adaptiveExam has one adaptive section with three questions on each of
// tiers 1 to 3.
func (e *testEnv) adaptiveExam(t *testing.T, code string) *model.Exam {
	t.Helper()
	qs := make([]ImportQuestionRequest, 0, 9)
	for i := 1; i <= 9; i++ {
		qs = append(qs, ImportQuestionRequest{
			QuestionType:  model.QuestionMultipleChoice,
			Difficulty:    (i-1)/3 + 1,
			Prompt:        fmt.Sprintf("placement %d", i),
			Options:       json.RawMessage(`["A","B","C","D"]`),
			CorrectAnswer: text("A"),
		})
	}
	exam, err := e.catalog.ImportExam(context.Background(), ImportExamRequest{
		Code:        code,
		Title:       "Placement " + code,
		IsPublished: true,
		Sections: []ImportSectionRequest{
			{Title: "Placement", SectionType: model.SectionListening, SelectionMode: model.SelectionAdaptive, MaxQuestions: 6, Questions: qs},
		},
	})
	require.NoError(t, err)
	return exam
}

// answers builds correct answers for the first n questions of section and
// wrong ones for the rest.
func answers(section model.ExamSection, prefix string, correct int) []AnswerInput {
	out := make([]AnswerInput, 0, len(section.Questions))
	for i, q := range section.Questions {
		ans := text("wrong")
		if i < correct {
			ans = text(fmt.Sprintf("%s-%d", prefix, i+1))
		}
		out = append(out, AnswerInput{QuestionID: q.ID, Answer: ans})
	}
	return out
}
