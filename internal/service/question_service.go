package service

import (
	"context"
	"errors"
	"sync"

	"lingua_exam_backend/internal/adaptive"
	"lingua_exam_backend/internal/model"
	"lingua_exam_backend/internal/repository"
	"lingua_exam_backend/internal/util"
	"lingua_exam_backend/pkg/logger"

	"go.uber.org/zap"
)

type NextQuestionResult struct {
	SectionAttemptID uint                `json:"sectionAttemptId"`
	SectionID        uint                `json:"sectionId"`
	SelectionMode    string              `json:"selectionMode"`
	Question         *model.ExamQuestion `json:"question"`
	EndOfSection     bool                `json:"endOfSection"`
	Reason           string              `json:"reason,omitempty"`
	Answered         int                 `json:"answered"`
	Total            int                 `json:"total"`
	Decision         *adaptive.Decision  `json:"adaptive,omitempty"`
}

type AnswerEvaluation struct {
	QuestionID uint `json:"questionId"`
	IsCorrect  bool `json:"isCorrect"`
	Difficulty int  `json:"difficulty"`
}

type AdaptiveNextResult struct {
	SectionID    uint                `json:"sectionId"`
	CurrentTier  int                 `json:"currentLevel"`
	Answered     int                 `json:"answeredCount"`
	Evaluations  []AnswerEvaluation  `json:"answerEvaluations"`
	EndOfSection bool                `json:"isCompleted"`
	Reason       string              `json:"reason,omitempty"`
	NextQuestion *model.ExamQuestion `json:"nextQuestion"`
	Proficiency  string              `json:"proficiency,omitempty"`
}

// QuestionService decides which question a candidate sees next.
type QuestionService struct {
	Catalog     Catalog
	AttemptRepo *repository.ExamAttemptRepository
	Ledger      *AnswerLedgerService

	mu  sync.RWMutex
	cfg adaptive.Config
}

func NewQuestionService(catalog Catalog, attemptRepo *repository.ExamAttemptRepository, ledger *AnswerLedgerService, cfg adaptive.Config) *QuestionService {
	return &QuestionService{
		Catalog:     catalog,
		AttemptRepo: attemptRepo,
		Ledger:      ledger,
		cfg:         cfg.WithDefaults(),
	}
}

// SetAdaptiveConfig swaps the step settings used for subsequent decisions.
func (s *QuestionService) SetAdaptiveConfig(cfg adaptive.Config) {
	cfg = cfg.WithDefaults()
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	logger.Log.Info("adaptive selector config updated",
		zap.Int("startTier", cfg.StartTier),
		zap.Int("stepUp", cfg.StepUp),
		zap.Int("stepDown", cfg.StepDown),
		zap.Int("streakToStepUp", cfg.StreakToStepUp),
		zap.Int("maxQuestions", cfg.MaxQuestions))
}

func (s *QuestionService) AdaptiveConfig() adaptive.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *QuestionService) sectionConfig(section *model.ExamSection) adaptive.Config {
	cfg := s.AdaptiveConfig()
	if section.MaxQuestions > 0 {
		cfg.MaxQuestions = section.MaxQuestions
	}
	return cfg
}

// RunLength is the number of questions a candidate answers in section.
func (s *QuestionService) RunLength(section *model.ExamSection) int {
	n := len(section.Questions)
	if section.IsAdaptive() {
		if max := s.sectionConfig(section).MaxQuestions; max < n {
			return max
		}
	}
	return n
}

func pool(section *model.ExamSection) []adaptive.Candidate {
	out := make([]adaptive.Candidate, 0, len(section.Questions))
	for _, q := range section.Questions {
		out = append(out, adaptive.Candidate{QuestionID: q.ID, Tier: q.Difficulty, Order: q.DisplayOrder})
	}
	return out
}

func findQuestion(section *model.ExamSection, id uint) *model.ExamQuestion {
	for i := range section.Questions {
		if section.Questions[i].ID == id {
			return &section.Questions[i]
		}
	}
	return nil
}

// GetNextQuestion serves the next question of an in-progress section
// attempt. Adaptive sections replay the ledger history through the selector,
// ordered sections return the first unanswered question.
func (s *QuestionService) GetNextQuestion(ctx context.Context, userID, attemptID, sectionID uint) (*NextQuestionResult, error) {
	attempt, err := s.AttemptRepo.FindByID(ctx, nil, attemptID)
	if err != nil {
		return nil, notFound(err, util.ErrAttemptNotFound)
	}
	if attempt.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	if attempt.Status.IsTerminal() {
		return nil, util.ErrAttemptFinalized
	}
	sa := attempt.Section(sectionID)
	if sa == nil {
		return nil, util.ErrSectionAttemptMissing
	}
	if sa.Status != model.StatusInProgress {
		return nil, util.Statef("section %d is %s, start it before requesting questions", sectionID, sa.Status)
	}

	section, err := s.Catalog.GetSection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	history, err := s.Ledger.History(ctx, nil, sa.ID)
	if err != nil {
		return nil, err
	}

	res := &NextQuestionResult{
		SectionAttemptID: sa.ID,
		SectionID:        section.ID,
		SelectionMode:    section.SelectionMode,
		Answered:         len(history),
		Total:            sa.QuestionCount,
	}

	var next *model.ExamQuestion
	if section.IsAdaptive() {
		d := adaptive.Next(pool(section), history, s.sectionConfig(section))
		res.Decision = &d
		if d.End {
			res.EndOfSection = true
			res.Reason = d.Reason
			return res, nil
		}
		next = findQuestion(section, d.QuestionID)
	} else {
		answered := make(map[uint]bool, len(history))
		for _, h := range history {
			answered[h.QuestionID] = true
		}
		for i := range section.Questions {
			if !answered[section.Questions[i].ID] {
				next = &section.Questions[i]
				break
			}
		}
		if next == nil {
			res.EndOfSection = true
			res.Reason = adaptive.ReasonExhausted
			return res, nil
		}
	}
	q := next.Sanitized()
	res.Question = &q
	return res, nil
}

// NextAdaptiveQuestion evaluates a client-held history against a section's
// pool and returns the next question. Nothing is persisted.
func (s *QuestionService) NextAdaptiveQuestion(ctx context.Context, sectionID uint, answered []AnswerInput) (*AdaptiveNextResult, error) {
	section, err := s.Catalog.GetSection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	if !section.IsAdaptive() {
		return nil, util.Validationf("section %d is not adaptive", sectionID)
	}

	history := make([]adaptive.Step, 0, len(answered))
	evals := make([]AnswerEvaluation, 0, len(answered))
	for _, a := range answered {
		q := findQuestion(section, a.QuestionID)
		if q == nil {
			if _, err := s.Catalog.GetQuestion(ctx, a.QuestionID); errors.Is(err, util.ErrQuestionNotFound) {
				return nil, util.Validationf("question with id %d does not exist", a.QuestionID)
			}
			return nil, util.Validationf("question %d is not part of section %d", a.QuestionID, sectionID)
		}
		correct := false
		if !isNullAnswer(a.Answer) {
			r, err := s.Catalog.IsAnswerCorrect(q, a.Answer)
			if err != nil {
				return nil, err
			}
			correct = r.Correct
		}
		history = append(history, adaptive.Step{QuestionID: q.ID, Correct: correct})
		evals = append(evals, AnswerEvaluation{QuestionID: q.ID, IsCorrect: correct, Difficulty: q.Difficulty})
	}

	d := adaptive.Next(pool(section), history, s.sectionConfig(section))
	res := &AdaptiveNextResult{
		SectionID:    sectionID,
		CurrentTier:  d.TargetTier,
		Answered:     len(answered),
		Evaluations:  evals,
		EndOfSection: d.End,
		Reason:       d.Reason,
	}
	if d.End {
		if len(answered) > 0 {
			res.Proficiency = d.Proficiency
		}
		return res, nil
	}
	q := findQuestion(section, d.QuestionID).Sanitized()
	res.NextQuestion = &q
	return res, nil
}

// QuestionBank groups an adaptive section's questions by difficulty tier.
func (s *QuestionService) QuestionBank(ctx context.Context, sectionID uint) (map[int][]model.ExamQuestion, error) {
	section, err := s.Catalog.GetSection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	bank := make(map[int][]model.ExamQuestion)
	for _, q := range section.Questions {
		bank[q.Difficulty] = append(bank[q.Difficulty], q.Sanitized())
	}
	return bank, nil
}
