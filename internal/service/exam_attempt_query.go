package service

import (
	"context"
	"encoding/json"
	"time"

	"lingua_exam_backend/internal/model"
	"lingua_exam_backend/internal/repository"
	"lingua_exam_backend/internal/scoring"
	"lingua_exam_backend/internal/util"

	"gorm.io/datatypes"
)

type AttemptListItem struct {
	ID          uint                `json:"id"`
	ExamID      uint                `json:"examId"`
	ExamTitle   string              `json:"examTitle"`
	Mode        string              `json:"mode"`
	Status      model.AttemptStatus `json:"status"`
	StartedAt   time.Time           `json:"startedAt"`
	DeadlineAt  *time.Time          `json:"deadlineAt,omitempty"`
	SubmittedAt *time.Time          `json:"submittedAt,omitempty"`
	ExpiredAt   *time.Time          `json:"expiredAt,omitempty"`
	OverallBand *float64            `json:"overallBand,omitempty"`
	UserID      uint                `json:"userId"`
	Sections    []SectionListItem   `json:"sections"`
}

type SectionListItem struct {
	SectionID   uint                `json:"sectionId"`
	SectionType string              `json:"sectionType"`
	Status      model.AttemptStatus `json:"status"`
	RawScore    int                 `json:"rawScore"`
	BandScore   *float64            `json:"bandScore,omitempty"`
}

type AnswerView struct {
	QuestionID    uint           `json:"questionId"`
	Answer        datatypes.JSON `json:"answer"`
	AnsweredAt    time.Time      `json:"answeredAt"`
	IsCorrect     *bool          `json:"isCorrect,omitempty"`
	Score         *float64       `json:"score,omitempty"`
	CorrectAnswer datatypes.JSON `json:"correctAnswer,omitempty"`
	Explanation   string         `json:"explanation,omitempty"`
}

type SectionDetail struct {
	model.SectionAttempt
	Answers []AnswerView `json:"answers"`
}

type AttemptDetail struct {
	ID          uint                `json:"id"`
	ExamID      uint                `json:"examId"`
	ExamTitle   string              `json:"examTitle"`
	UserID      uint                `json:"userId"`
	Mode        string              `json:"mode"`
	Status      model.AttemptStatus `json:"status"`
	Version     int                 `json:"version"`
	StartedAt   time.Time           `json:"startedAt"`
	DeadlineAt  *time.Time          `json:"deadlineAt,omitempty"`
	SubmittedAt *time.Time          `json:"submittedAt,omitempty"`
	ExpiredAt   *time.Time          `json:"expiredAt,omitempty"`
	OverallBand *float64            `json:"overallBand,omitempty"`
	Summary     *scoring.Summary    `json:"summary,omitempty"`
	Sections    []SectionDetail     `json:"sections"`
}

func listItem(a model.ExamAttempt) AttemptListItem {
	item := AttemptListItem{
		ID:          a.ID,
		ExamID:      a.ExamID,
		Mode:        a.Mode,
		Status:      a.Status,
		StartedAt:   a.StartedAt,
		DeadlineAt:  a.DeadlineAt,
		SubmittedAt: a.SubmittedAt,
		ExpiredAt:   a.ExpiredAt,
		OverallBand: a.OverallBand,
		UserID:      a.UserID,
		Sections:    make([]SectionListItem, 0, len(a.Sections)),
	}
	if a.Exam != nil {
		item.ExamTitle = a.Exam.Title
	}
	for _, sa := range a.Sections {
		item.Sections = append(item.Sections, SectionListItem{
			SectionID:   sa.SectionID,
			SectionType: sa.SectionType,
			Status:      sa.Status,
			RawScore:    sa.RawScore,
			BandScore:   sa.BandScore,
		})
	}
	return item
}

// ListAttempts returns the candidate's own attempts, newest first.
func (s *ExamAttemptService) ListAttempts(ctx context.Context, userID uint, f repository.AttemptFilter) ([]AttemptListItem, int, error) {
	f.UserID = userID
	return s.list(ctx, f)
}

// ListAttemptsAdmin lists attempts of every candidate.
func (s *ExamAttemptService) ListAttemptsAdmin(ctx context.Context, f repository.AttemptFilter) ([]AttemptListItem, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, util.Validationf("unknown status %q", f.Status)
	}
	return s.list(ctx, f)
}

func (s *ExamAttemptService) list(ctx context.Context, f repository.AttemptFilter) ([]AttemptListItem, int, error) {
	if f.Limit > 100 {
		f.Limit = 100
	}
	attempts, total, err := s.AttemptRepo.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]AttemptListItem, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, listItem(a))
	}
	return out, total, nil
}

// GetAttemptDetail returns the attempt with its answers grouped by section.
// Correctness and answer keys are only revealed once the attempt is over.
func (s *ExamAttemptService) GetAttemptDetail(ctx context.Context, userID, attemptID uint, isAdmin bool) (*AttemptDetail, error) {
	attempt, exam, err := s.prepare(ctx, 0, attemptID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && attempt.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	records, err := s.Ledger.AnswerRepo.ListByAttempt(ctx, nil, attemptID)
	if err != nil {
		return nil, err
	}

	reveal := attempt.Status.IsTerminal() || isAdmin
	questions := make(map[uint]*model.ExamQuestion)
	for i := range exam.Sections {
		for j := range exam.Sections[i].Questions {
			q := &exam.Sections[i].Questions[j]
			questions[q.ID] = q
		}
	}
	bySection := make(map[uint][]AnswerView, len(attempt.Sections))
	for _, r := range records {
		v := AnswerView{
			QuestionID: r.QuestionID,
			Answer:     r.AnswerPayload,
			AnsweredAt: r.AnsweredAt,
		}
		if reveal {
			score := r.Score
			v.IsCorrect = r.IsCorrect
			v.Score = &score
			if q := questions[r.QuestionID]; q != nil {
				v.CorrectAnswer = q.CorrectAnswer
				v.Explanation = q.Explanation
			}
		}
		bySection[r.SectionAttemptID] = append(bySection[r.SectionAttemptID], v)
	}

	d := &AttemptDetail{
		ID:          attempt.ID,
		ExamID:      attempt.ExamID,
		ExamTitle:   exam.Title,
		UserID:      attempt.UserID,
		Mode:        attempt.Mode,
		Status:      attempt.Status,
		Version:     attempt.Version,
		StartedAt:   attempt.StartedAt,
		DeadlineAt:  attempt.DeadlineAt,
		SubmittedAt: attempt.SubmittedAt,
		ExpiredAt:   attempt.ExpiredAt,
		OverallBand: attempt.OverallBand,
		Sections:    make([]SectionDetail, 0, len(attempt.Sections)),
	}
	if len(attempt.ScoreSummary) > 0 {
		var sum scoring.Summary
		if err := json.Unmarshal(attempt.ScoreSummary, &sum); err == nil {
			d.Summary = &sum
		}
	}
	for _, sa := range attempt.Sections {
		answers := bySection[sa.ID]
		if answers == nil {
			answers = []AnswerView{}
		}
		d.Sections = append(d.Sections, SectionDetail{SectionAttempt: sa, Answers: answers})
	}
	return d, nil
}
