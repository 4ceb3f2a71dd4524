package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"lingua_exam_backend/internal/adaptive"
	"lingua_exam_backend/internal/model"
	"lingua_exam_backend/internal/repository"
	"lingua_exam_backend/internal/util"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AnswerInput struct {
	QuestionID uint            `json:"questionId" binding:"required"`
	Answer     json.RawMessage `json:"answer"`
}

type SectionProgress struct {
	SectionAttemptID uint                `json:"sectionAttemptId"`
	SectionID        uint                `json:"sectionId"`
	SectionType      string              `json:"sectionType"`
	Status           model.AttemptStatus `json:"status"`
	Answered         int                 `json:"answered"`
	Correct          int                 `json:"correct"`
	Total            int                 `json:"total"`
}

type AttemptProgress struct {
	AttemptID  uint                `json:"attemptId"`
	Status     model.AttemptStatus `json:"status"`
	DeadlineAt *time.Time          `json:"deadlineAt,omitempty"`
	Sections   []SectionProgress   `json:"sections"`
	Answered   int                 `json:"answered"`
	Correct    int                 `json:"correct"`
	Total      int                 `json:"total"`
}

// AnswerLedgerService owns the per-question answer rows of section attempts.
type AnswerLedgerService struct {
	AnswerRepo  *repository.AnswerRepository
	AttemptRepo *repository.ExamAttemptRepository
	Catalog     Catalog
}

func NewAnswerLedgerService(answerRepo *repository.AnswerRepository, attemptRepo *repository.ExamAttemptRepository, catalog Catalog) *AnswerLedgerService {
	return &AnswerLedgerService{
		AnswerRepo:  answerRepo,
		AttemptRepo: attemptRepo,
		Catalog:     catalog,
	}
}

func isNullAnswer(raw json.RawMessage) bool {
	t := strings.TrimSpace(string(raw))
	return t == "" || t == "null"
}

// Write grades answers against section's questions and upserts them for sa.
// Within one call the last answer for a question wins. limit caps how many
// distinct questions the section may hold, 0 means no cap.
func (s *AnswerLedgerService) Write(ctx context.Context, tx *gorm.DB, sa *model.SectionAttempt, section *model.ExamSection, answers []AnswerInput, limit int, now time.Time) error {
	if len(answers) == 0 {
		return nil
	}
	questions := make(map[uint]*model.ExamQuestion, len(section.Questions))
	for i := range section.Questions {
		questions[section.Questions[i].ID] = &section.Questions[i]
	}

	existing, err := s.AnswerRepo.ListBySectionAttempt(ctx, tx, sa.ID)
	if err != nil {
		return err
	}
	seen := make(map[uint]bool, len(existing))
	live := make(map[uint]bool, len(existing))
	seq := 0
	for _, r := range existing {
		seen[r.QuestionID] = true
		if len(r.AnswerPayload) > 0 {
			live[r.QuestionID] = true
		}
		if r.Sequence > seq {
			seq = r.Sequence
		}
	}

	latest := make(map[uint]json.RawMessage, len(answers))
	order := make([]uint, 0, len(answers))
	for _, a := range answers {
		if _, ok := questions[a.QuestionID]; !ok {
			return util.Validationf("question %d is not part of section %d", a.QuestionID, section.ID)
		}
		if _, dup := latest[a.QuestionID]; !dup {
			order = append(order, a.QuestionID)
		}
		latest[a.QuestionID] = a.Answer
	}

	before := len(live)
	for _, qid := range order {
		if isNullAnswer(latest[qid]) {
			delete(live, qid)
		} else {
			live[qid] = true
		}
	}
	if limit > 0 && len(live) > limit && len(live) > before {
		return util.Statef("section %d accepts at most %d answers", section.ID, limit)
	}

	records := make([]model.AnswerRecord, 0, len(order))
	for _, qid := range order {
		q := questions[qid]
		raw := latest[qid]
		rec := model.AnswerRecord{
			AttemptID:        sa.AttemptID,
			SectionAttemptID: sa.ID,
			SectionID:        section.ID,
			QuestionID:       qid,
			AnsweredAt:       now,
		}
		if !isNullAnswer(raw) {
			res, err := s.Catalog.IsAnswerCorrect(q, raw)
			if err != nil {
				return err
			}
			rec.AnswerPayload = datatypes.JSON(raw)
			rec.Score = res.Score
			if res.Objective {
				correct := res.Correct
				rec.IsCorrect = &correct
			}
		}
		if !seen[qid] {
			seq++
			rec.Sequence = seq
		}
		records = append(records, rec)
	}
	return s.AnswerRepo.Upsert(ctx, tx, records)
}

// Tally returns the current answer aggregate of one section attempt.
func (s *AnswerLedgerService) Tally(ctx context.Context, tx *gorm.DB, sa *model.SectionAttempt) (repository.SectionTally, error) {
	tallies, err := s.AnswerRepo.TallyByAttempt(ctx, tx, sa.AttemptID)
	if err != nil {
		return repository.SectionTally{}, err
	}
	t := tallies[sa.ID]
	t.SectionAttemptID = sa.ID
	return t, nil
}

// History rebuilds answeredSoFar of a section attempt in the order questions
// were first answered. Cleared slots are left out; subjective rows count as
// incorrect.
func (s *AnswerLedgerService) History(ctx context.Context, tx *gorm.DB, sectionAttemptID uint) ([]adaptive.Step, error) {
	records, err := s.AnswerRepo.ListBySectionAttempt(ctx, tx, sectionAttemptID)
	if err != nil {
		return nil, err
	}
	steps := make([]adaptive.Step, 0, len(records))
	for _, r := range records {
		if len(r.AnswerPayload) == 0 {
			continue
		}
		steps = append(steps, adaptive.Step{
			QuestionID: r.QuestionID,
			Correct:    r.IsCorrect != nil && *r.IsCorrect,
		})
	}
	return steps, nil
}

// GetProgress reports answered, correct and total counts per section. It
// reads the attempt and its answer rows only.
func (s *AnswerLedgerService) GetProgress(ctx context.Context, userID, attemptID uint) (*AttemptProgress, error) {
	attempt, err := s.AttemptRepo.FindByID(ctx, nil, attemptID)
	if err != nil {
		return nil, notFound(err, util.ErrAttemptNotFound)
	}
	if attempt.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	tallies, err := s.AnswerRepo.TallyByAttempt(ctx, nil, attemptID)
	if err != nil {
		return nil, err
	}

	p := &AttemptProgress{
		AttemptID:  attempt.ID,
		Status:     attempt.Status,
		DeadlineAt: attempt.DeadlineAt,
		Sections:   make([]SectionProgress, 0, len(attempt.Sections)),
	}
	for _, sa := range attempt.Sections {
		t := tallies[sa.ID]
		sp := SectionProgress{
			SectionAttemptID: sa.ID,
			SectionID:        sa.SectionID,
			SectionType:      sa.SectionType,
			Status:           sa.Status,
			Answered:         t.Answered,
			Correct:          t.Correct,
			Total:            sa.QuestionCount,
		}
		p.Sections = append(p.Sections, sp)
		p.Answered += sp.Answered
		p.Correct += sp.Correct
		p.Total += sp.Total
	}
	return p, nil
}
