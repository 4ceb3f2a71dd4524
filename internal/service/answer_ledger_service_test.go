package service

import (
	"context"
	"encoding/json"
	"testing"

	"lingua_exam_backend/internal/model"
	"lingua_exam_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_NullAnswerClearsSlot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exam := env.ieltsExam(t, "NULL")
	listening := exam.Sections[0]
	q1, q2 := listening.Questions[0], listening.Questions[1]

	attempt, _, err := env.attempts.StartAttempt(ctx, candidate, exam.ID, StartAttemptRequest{})
	require.NoError(t, err)
	_, err = env.attempts.StartSectionAttempt(ctx, candidate, attempt.ID, listening.ID)
	require.NoError(t, err)

	p, err := env.attempts.RecordAnswers(ctx, candidate, attempt.ID, listening.ID, []AnswerInput{
		{QuestionID: q1.ID, Answer: text("l-1")},
		{QuestionID: q2.ID, Answer: text("l-2")},
		{QuestionID: q2.ID, Answer: json.RawMessage("null")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Answered, "last answer in a batch wins")
	assert.Equal(t, 1, p.Correct)

	p, err = env.attempts.RecordAnswers(ctx, candidate, attempt.ID, listening.ID, []AnswerInput{
		{QuestionID: q1.ID, Answer: json.RawMessage("null")},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, p.Answered)

	records, err := env.ledger.AnswerRepo.ListBySectionAttempt(ctx, nil, attempt.Sections[0].ID)
	require.NoError(t, err)
	require.Len(t, records, 2, "cleared slots keep their row")
	assert.Nil(t, records[0].IsCorrect)
	assert.Empty(t, records[0].AnswerPayload)

	steps, err := env.ledger.History(ctx, nil, attempt.Sections[0].ID)
	require.NoError(t, err)
	assert.Empty(t, steps, "cleared slots are not part of the history")
}

func TestLedger_ClearedQuestionIsServedAgain(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exam := env.ieltsExam(t, "CLR")
	listening := exam.Sections[0]
	q1, q2 := listening.Questions[0], listening.Questions[1]

	attempt, _, err := env.attempts.StartAttempt(ctx, candidate, exam.ID, StartAttemptRequest{})
	require.NoError(t, err)
	_, err = env.attempts.StartSectionAttempt(ctx, candidate, attempt.ID, listening.ID)
	require.NoError(t, err)
	_, err = env.attempts.RecordAnswers(ctx, candidate, attempt.ID, listening.ID, []AnswerInput{
		{QuestionID: q1.ID, Answer: text("l-1")},
		{QuestionID: q2.ID, Answer: text("l-2")},
	})
	require.NoError(t, err)
	p, err := env.attempts.RecordAnswers(ctx, candidate, attempt.ID, listening.ID, []AnswerInput{
		{QuestionID: q1.ID, Answer: json.RawMessage("null")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Answered)

	next, err := env.questions.GetNextQuestion(ctx, candidate, attempt.ID, listening.ID)
	require.NoError(t, err)
	assert.Equal(t, q1.ID, next.Question.ID)
	assert.Equal(t, p.Answered, next.Answered)
}

func TestLedger_ClearedSlotFreesRunLength(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exam := env.adaptiveExam(t, "CAP")
	section := exam.Sections[0]

	attempt, _, err := env.attempts.StartAttempt(ctx, candidate, exam.ID, StartAttemptRequest{})
	require.NoError(t, err)
	_, err = env.attempts.StartSectionAttempt(ctx, candidate, attempt.ID, section.ID)
	require.NoError(t, err)

	run := make([]AnswerInput, 0, 6)
	for _, q := range section.Questions[:6] {
		run = append(run, AnswerInput{QuestionID: q.ID, Answer: text("A")})
	}
	_, err = env.attempts.RecordAnswers(ctx, candidate, attempt.ID, section.ID, run)
	require.NoError(t, err)

	extra := AnswerInput{QuestionID: section.Questions[6].ID, Answer: text("A")}
	_, err = env.attempts.RecordAnswers(ctx, candidate, attempt.ID, section.ID, []AnswerInput{extra})
	assert.ErrorIs(t, err, util.ErrState)

	_, err = env.attempts.RecordAnswers(ctx, candidate, attempt.ID, section.ID, []AnswerInput{
		{QuestionID: section.Questions[0].ID, Answer: json.RawMessage("null")},
	})
	require.NoError(t, err)
	p, err := env.attempts.RecordAnswers(ctx, candidate, attempt.ID, section.ID, []AnswerInput{extra})
	require.NoError(t, err)
	assert.Equal(t, 6, p.Answered)
}

func TestLedger_GetProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exam := env.ieltsExam(t, "PROG")
	listening, reading := exam.Sections[0], exam.Sections[1]

	attempt, _, err := env.attempts.StartAttempt(ctx, candidate, exam.ID, StartAttemptRequest{})
	require.NoError(t, err)
	for _, sec := range []model.ExamSection{listening, reading} {
		_, err = env.attempts.StartSectionAttempt(ctx, candidate, attempt.ID, sec.ID)
		require.NoError(t, err)
	}
	_, err = env.attempts.RecordAnswers(ctx, candidate, attempt.ID, listening.ID, answers(listening, "l", 12)[:20])
	require.NoError(t, err)
	_, err = env.attempts.SubmitSectionAttempt(ctx, candidate, attempt.ID, reading.ID, answers(reading, "r", 25))
	require.NoError(t, err)

	p, err := env.ledger.GetProgress(ctx, candidate, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, p.Status)
	require.Len(t, p.Sections, 3)
	assert.Equal(t, 20, p.Sections[0].Answered)
	assert.Equal(t, 12, p.Sections[0].Correct)
	assert.Equal(t, model.StatusSubmitted, p.Sections[1].Status)
	assert.Equal(t, 40, p.Sections[1].Answered)
	assert.Equal(t, 25, p.Sections[1].Correct)
	assert.Equal(t, model.StatusNotStarted, p.Sections[2].Status)
	assert.Equal(t, 60, p.Answered)
	assert.Equal(t, 37, p.Correct)
	assert.Equal(t, 81, p.Total)

	_, err = env.ledger.GetProgress(ctx, intruder, attempt.ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
	_, err = env.ledger.GetProgress(ctx, candidate, 9999)
	assert.ErrorIs(t, err, util.ErrNotFound)
}
