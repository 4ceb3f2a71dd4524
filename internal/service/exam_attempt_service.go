package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"lingua_exam_backend/internal/model"
	"lingua_exam_backend/internal/repository"
	"lingua_exam_backend/internal/scoring"
	"lingua_exam_backend/internal/util"
	"lingua_exam_backend/pkg/lock"
	"lingua_exam_backend/pkg/logger"
	"lingua_exam_backend/pkg/monitoring"
	"lingua_exam_backend/pkg/tracing"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type StartAttemptRequest struct {
	Mode       string `json:"mode"`
	SectionID  *uint  `json:"sectionId"`
	ResumeLast bool   `json:"resumeLast"`
}

// ExamAttemptService runs the attempt state machine. Every mutating
// operation holds the per-attempt lock and writes the attempt row through a
// version check inside one transaction.
type ExamAttemptService struct {
	DB          *gorm.DB
	Catalog     Catalog
	AttemptRepo *repository.ExamAttemptRepository
	Ledger      *AnswerLedgerService
	Questions   *QuestionService
	Locker      lock.Locker

	Now              func() time.Time
	SweepBatchSize   int
	SweepConcurrency int
}

func NewExamAttemptService(
	db *gorm.DB,
	catalog Catalog,
	attemptRepo *repository.ExamAttemptRepository,
	ledger *AnswerLedgerService,
	questions *QuestionService,
	locker lock.Locker,
) *ExamAttemptService {
	return &ExamAttemptService{
		DB:               db,
		Catalog:          catalog,
		AttemptRepo:      attemptRepo,
		Ledger:           ledger,
		Questions:        questions,
		Locker:           locker,
		Now:              time.Now,
		SweepBatchSize:   200,
		SweepConcurrency: 4,
	}
}

func attemptKey(id uint) string {
	return fmt.Sprintf("exam-attempt:%d", id)
}

func startKey(userID, examID uint) string {
	return fmt.Sprintf("exam-start:%d:%d", userID, examID)
}

func (s *ExamAttemptService) withLock(ctx context.Context, key string, fn func() error) error {
	release, err := s.Locker.Lock(ctx, key)
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			monitoring.ConcurrencyConflicts.WithLabelValues("lock_timeout").Inc()
			return util.ErrLockTimeout
		}
		return err
	}
	defer release()
	err = fn()
	if errors.Is(err, util.ErrVersionMismatch) {
		monitoring.ConcurrencyConflicts.WithLabelValues("version").Inc()
	}
	return err
}

// transition applies ev to from or returns a state error naming what was
// being changed.
func transition(what string, from model.AttemptStatus, ev model.AttemptEvent) (model.AttemptStatus, error) {
	to, ok := from.Next(ev)
	if !ok {
		return from, util.Statef("cannot %s %s: it is %s", ev, what, from)
	}
	monitoring.Transitions.WithLabelValues(what, string(to)).Inc()
	return to, nil
}

func findSection(exam *model.Exam, sectionID uint) *model.ExamSection {
	for i := range exam.Sections {
		if exam.Sections[i].ID == sectionID {
			return &exam.Sections[i]
		}
	}
	return nil
}

func deadlineFor(exam *model.Exam, scope []*model.ExamSection, mode string, start time.Time) *time.Time {
	seconds := 0
	if mode == model.AttemptModeFull && exam.TotalDurationSeconds > 0 {
		seconds = exam.TotalDurationSeconds
	} else {
		for _, sec := range scope {
			seconds += sec.DurationSeconds
		}
	}
	if seconds <= 0 {
		return nil
	}
	d := start.Add(time.Duration(seconds) * time.Second)
	return &d
}

// StartAttempt creates a new attempt, or with ResumeLast returns the live
// attempt of the same mode and target unchanged. Starting fresh closes any
// other live attempt the candidate holds on the exam.
func (s *ExamAttemptService) StartAttempt(ctx context.Context, userID, examID uint, req StartAttemptRequest) (*model.ExamAttempt, bool, error) {
	exam, err := s.Catalog.GetExam(ctx, examID)
	if err != nil {
		return nil, false, err
	}
	if !exam.IsPublished {
		return nil, false, util.ErrExamNotPublished
	}

	mode := upperOr(req.Mode, model.AttemptModeFull)
	var target *uint
	var scope []*model.ExamSection
	switch mode {
	case model.AttemptModeFull:
		for i := range exam.Sections {
			scope = append(scope, &exam.Sections[i])
		}
	case model.AttemptModeSection:
		if req.SectionID == nil || *req.SectionID == 0 {
			return nil, false, util.ErrSectionIDRequired
		}
		sec := findSection(exam, *req.SectionID)
		if sec == nil {
			return nil, false, util.ErrForeignSection
		}
		id := sec.ID
		target = &id
		scope = []*model.ExamSection{sec}
	default:
		return nil, false, util.Validationf("unknown attempt mode %q", req.Mode)
	}
	if len(scope) == 0 {
		return nil, false, util.Validationf("exam %d has no sections", examID)
	}

	var attempt *model.ExamAttempt
	resumed := false
	err = s.withLock(ctx, startKey(userID, examID), func() error {
		if req.ResumeLast {
			live, err := s.AttemptRepo.FindActive(ctx, nil, userID, examID, mode, target)
			switch {
			case err == nil && !s.overdue(live):
				attempt, resumed = live, true
				return nil
			case err == nil:
				// out of time: closeLive below expires it and a fresh attempt starts
				logger.Log.Info("live attempt ran out of time, not resuming",
					zap.Uint("attemptId", live.ID), zap.Uint("userId", userID))
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
		}

		if err := s.closeLive(ctx, userID, examID); err != nil {
			return err
		}

		now := s.Now()
		a := &model.ExamAttempt{
			ExamID:          exam.ID,
			UserID:          userID,
			Mode:            mode,
			TargetSectionID: target,
			Status:          model.StatusInProgress,
			Version:         1,
			StartedAt:       now,
			DeadlineAt:      deadlineFor(exam, scope, mode, now),
		}
		for _, sec := range scope {
			a.Sections = append(a.Sections, model.SectionAttempt{
				SectionID:     sec.ID,
				SectionType:   sec.SectionType,
				DisplayOrder:  sec.DisplayOrder,
				Status:        model.StatusNotStarted,
				QuestionCount: s.Questions.RunLength(sec),
			})
		}
		if err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.AttemptRepo.Create(ctx, tx, a)
		}); err != nil {
			return err
		}
		attempt = a
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	monitoring.AttemptsStarted.WithLabelValues(mode, fmt.Sprint(resumed)).Inc()
	logger.Log.Info("exam attempt started",
		zap.Uint("attemptId", attempt.ID),
		zap.Uint("userId", userID),
		zap.Uint("examId", examID),
		zap.String("mode", mode),
		zap.Bool("resumed", resumed))
	return attempt, resumed, nil
}

// closeLive expires every in-progress attempt of the candidate on the exam.
func (s *ExamAttemptService) closeLive(ctx context.Context, userID, examID uint) error {
	live, _, err := s.AttemptRepo.List(ctx, repository.AttemptFilter{
		UserID: userID,
		ExamID: examID,
		Status: model.StatusInProgress,
		Limit:  100,
	})
	if err != nil {
		return err
	}
	for _, a := range live {
		if _, err := s.Expire(ctx, a.ID); err != nil {
			return err
		}
		logger.Log.Info("previous live attempt closed by new start",
			zap.Uint("attemptId", a.ID), zap.Uint("userId", userID))
	}
	return nil
}

// prepare loads the attempt and its exam outside the write transaction.
func (s *ExamAttemptService) prepare(ctx context.Context, userID, attemptID uint) (*model.ExamAttempt, *model.Exam, error) {
	attempt, err := s.AttemptRepo.FindByID(ctx, nil, attemptID)
	if err != nil {
		return nil, nil, notFound(err, util.ErrAttemptNotFound)
	}
	if userID != 0 && attempt.UserID != userID {
		return nil, nil, util.ErrPermissionDenied
	}
	exam, err := s.Catalog.GetExam(ctx, attempt.ExamID)
	if err != nil {
		return nil, nil, err
	}
	return attempt, exam, nil
}

// overdue reports whether a live attempt's deadline has passed.
func (s *ExamAttemptService) overdue(a *model.ExamAttempt) bool {
	return a.DeadlineAt != nil && !s.Now().Before(*a.DeadlineAt)
}

// loadLive re-reads the attempt inside tx and checks it can still change.
func (s *ExamAttemptService) loadLive(ctx context.Context, tx *gorm.DB, attemptID, sectionID uint) (*model.ExamAttempt, *model.SectionAttempt, error) {
	attempt, err := s.AttemptRepo.FindByID(ctx, tx, attemptID)
	if err != nil {
		return nil, nil, notFound(err, util.ErrAttemptNotFound)
	}
	if attempt.Status.IsTerminal() {
		return nil, nil, util.ErrAttemptFinalized
	}
	if s.overdue(attempt) {
		return nil, nil, util.Statef("attempt %d ran out of time", attemptID)
	}
	sa := attempt.Section(sectionID)
	if sa == nil {
		return nil, nil, util.ErrSectionAttemptMissing
	}
	return attempt, sa, nil
}

// StartSectionAttempt moves a section from NOT_STARTED to IN_PROGRESS. A
// section already in progress is returned as is.
func (s *ExamAttemptService) StartSectionAttempt(ctx context.Context, userID, attemptID, sectionID uint) (*model.SectionAttempt, error) {
	ctx, span := tracing.Start(ctx, "ExamAttemptService.StartSectionAttempt", attemptID)
	var out *model.SectionAttempt
	err := s.withLock(ctx, attemptKey(attemptID), func() error {
		if _, _, err := s.prepare(ctx, userID, attemptID); err != nil {
			return err
		}
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			attempt, sa, err := s.loadLive(ctx, tx, attemptID, sectionID)
			if err != nil {
				return err
			}
			if sa.Status == model.StatusInProgress {
				out = sa
				return nil
			}
			next, err := transition("section", sa.Status, model.EventStart)
			if err != nil {
				return err
			}
			now := s.Now()
			sa.Status = next
			sa.StartedAt = &now
			if err := s.AttemptRepo.SaveSection(ctx, tx, sa); err != nil {
				return err
			}
			out = sa
			return s.AttemptRepo.SaveVersioned(ctx, tx, attempt)
		})
	})
	tracing.End(span, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecordAnswers saves answers of an in-progress section without submitting it.
func (s *ExamAttemptService) RecordAnswers(ctx context.Context, userID, attemptID, sectionID uint, answers []AnswerInput) (*SectionProgress, error) {
	ctx, span := tracing.Start(ctx, "ExamAttemptService.RecordAnswers", attemptID)
	var out *SectionProgress
	err := s.withLock(ctx, attemptKey(attemptID), func() error {
		_, exam, err := s.prepare(ctx, userID, attemptID)
		if err != nil {
			return err
		}
		section := findSection(exam, sectionID)
		if section == nil {
			return util.ErrSectionAttemptMissing
		}
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			attempt, sa, err := s.loadLive(ctx, tx, attemptID, sectionID)
			if err != nil {
				return err
			}
			if sa.Status != model.StatusInProgress {
				return util.Statef("section %d is %s, only sections in progress accept answers", sectionID, sa.Status)
			}
			if err := s.Ledger.Write(ctx, tx, sa, section, answers, s.answerLimit(section, sa), s.Now()); err != nil {
				return err
			}
			t, err := s.Ledger.Tally(ctx, tx, sa)
			if err != nil {
				return err
			}
			out = &SectionProgress{
				SectionAttemptID: sa.ID,
				SectionID:        sa.SectionID,
				SectionType:      sa.SectionType,
				Status:           sa.Status,
				Answered:         t.Answered,
				Correct:          t.Correct,
				Total:            sa.QuestionCount,
			}
			return s.AttemptRepo.SaveVersioned(ctx, tx, attempt)
		})
	})
	tracing.End(span, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ExamAttemptService) answerLimit(section *model.ExamSection, sa *model.SectionAttempt) int {
	if section.IsAdaptive() {
		return sa.QuestionCount
	}
	return 0
}

func (s *ExamAttemptService) scoreSection(exam *model.Exam, section *model.ExamSection, sa *model.SectionAttempt, t repository.SectionTally) scoring.SectionScore {
	in := scoring.SectionInput{
		SectionID:   sa.SectionID,
		SectionType: sa.SectionType,
		Mode:        scoring.ModeTable,
		Correct:     t.Correct,
		Total:       sa.QuestionCount,
		Earned:      t.Earned,
		RubricBand:  sa.BandScore,
	}
	if section != nil {
		if section.ScoringMode == model.ScoringRubric {
			in.Mode = scoring.ModeRubric
		} else {
			in.TableKey = ResolveTableKey(exam, section)
		}
	}
	return scoring.ScoreSection(in)
}

func applyScore(sa *model.SectionAttempt, sc scoring.SectionScore) {
	sa.RawScore = sc.Correct
	sa.EarnedScore = sc.Earned
	sa.BandScore = sc.Band
	if sc.Band != nil {
		monitoring.SectionBands.WithLabelValues(sa.SectionType).Observe(*sc.Band)
	}
}

// SubmitSectionAttempt writes the final answers of an in-progress section,
// scores it from the ledger and marks it SUBMITTED. The parent attempt stays
// in progress.
func (s *ExamAttemptService) SubmitSectionAttempt(ctx context.Context, userID, attemptID, sectionID uint, answers []AnswerInput) (*model.SectionAttempt, error) {
	ctx, span := tracing.Start(ctx, "ExamAttemptService.SubmitSectionAttempt", attemptID)
	var out *model.SectionAttempt
	err := s.withLock(ctx, attemptKey(attemptID), func() error {
		_, exam, err := s.prepare(ctx, userID, attemptID)
		if err != nil {
			return err
		}
		section := findSection(exam, sectionID)
		if section == nil {
			return util.ErrSectionAttemptMissing
		}
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			attempt, sa, err := s.loadLive(ctx, tx, attemptID, sectionID)
			if err != nil {
				return err
			}
			next, err := transition("section", sa.Status, model.EventSubmit)
			if err != nil {
				return err
			}
			if err := s.Ledger.Write(ctx, tx, sa, section, answers, s.answerLimit(section, sa), s.Now()); err != nil {
				return err
			}
			t, err := s.Ledger.Tally(ctx, tx, sa)
			if err != nil {
				return err
			}
			applyScore(sa, s.scoreSection(exam, section, sa, t))
			now := s.Now()
			sa.Status = next
			sa.SubmittedAt = &now
			if err := s.AttemptRepo.SaveSection(ctx, tx, sa); err != nil {
				return err
			}
			out = sa
			return s.AttemptRepo.SaveVersioned(ctx, tx, attempt)
		})
	})
	tracing.End(span, err)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("section attempt submitted",
		zap.Uint("attemptId", attemptID),
		zap.Uint("sectionId", sectionID),
		zap.Int("rawScore", out.RawScore))
	return out, nil
}

// summarize recomputes the attempt-level result from its section attempts.
func summarize(attempt *model.ExamAttempt) error {
	scores := make([]scoring.SectionScore, 0, len(attempt.Sections))
	for _, sa := range attempt.Sections {
		scores = append(scores, scoring.SectionScore{
			SectionID:   sa.SectionID,
			SectionType: sa.SectionType,
			Correct:     sa.RawScore,
			Total:       sa.QuestionCount,
			Earned:      sa.EarnedScore,
			Band:        sa.BandScore,
		})
	}
	sum := scoring.Summarize(scores)
	raw, err := json.Marshal(sum)
	if err != nil {
		return err
	}
	overall := sum.Overall
	attempt.OverallBand = &overall
	attempt.TotalCorrect = sum.Totals.TotalCorrect
	attempt.TotalQuestions = sum.Totals.TotalQuestions
	attempt.TotalScore = sum.Totals.TotalScore
	attempt.ScoreSummary = datatypes.JSON(raw)
	return nil
}

// SubmitExamAttempt aggregates section bands and closes the attempt. Every
// in-scope section must already be SUBMITTED. An attempt past its deadline is
// expired instead and the call fails with a state error.
func (s *ExamAttemptService) SubmitExamAttempt(ctx context.Context, userID, attemptID uint) (*model.ExamAttempt, error) {
	ctx, span := tracing.Start(ctx, "ExamAttemptService.SubmitExamAttempt", attemptID)
	var out *model.ExamAttempt
	late := false
	err := s.withLock(ctx, attemptKey(attemptID), func() error {
		if _, _, err := s.prepare(ctx, userID, attemptID); err != nil {
			return err
		}
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			attempt, err := s.AttemptRepo.FindByID(ctx, tx, attemptID)
			if err != nil {
				return notFound(err, util.ErrAttemptNotFound)
			}
			if attempt.Status.IsTerminal() {
				return util.ErrAttemptFinalized
			}
			if s.overdue(attempt) {
				late = true
				return nil
			}
			for _, sa := range attempt.Sections {
				if sa.Status != model.StatusSubmitted {
					return fmt.Errorf("%w (section %d is %s)", util.ErrSectionsIncomplete, sa.SectionID, sa.Status)
				}
			}
			next, err := transition("attempt", attempt.Status, model.EventSubmit)
			if err != nil {
				return err
			}
			if err := summarize(attempt); err != nil {
				return err
			}
			now := s.Now()
			attempt.Status = next
			attempt.SubmittedAt = &now
			if err := s.AttemptRepo.SaveVersioned(ctx, tx, attempt); err != nil {
				return err
			}
			out = attempt
			return nil
		})
	})
	if err == nil && late {
		// Expire takes the attempt lock itself
		if _, err = s.Expire(ctx, attemptID); err == nil {
			err = util.Statef("attempt %d ran out of time", attemptID)
		}
	}
	tracing.End(span, err)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("exam attempt submitted",
		zap.Uint("attemptId", attemptID),
		zap.Float64("overallBand", *out.OverallBand))
	return out, nil
}

// Expire closes an attempt whose time ran out. Sections holding answers are
// scored and submitted, the rest are closed with a zero band. Expiring a
// terminal attempt returns it unchanged.
func (s *ExamAttemptService) Expire(ctx context.Context, attemptID uint) (*model.ExamAttempt, error) {
	ctx, span := tracing.Start(ctx, "ExamAttemptService.Expire", attemptID)
	var out *model.ExamAttempt
	changed := false
	err := s.withLock(ctx, attemptKey(attemptID), func() error {
		_, exam, err := s.prepare(ctx, 0, attemptID)
		if err != nil {
			return err
		}
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			attempt, err := s.AttemptRepo.FindByID(ctx, tx, attemptID)
			if err != nil {
				return notFound(err, util.ErrAttemptNotFound)
			}
			out = attempt
			if attempt.Status.IsTerminal() {
				return nil
			}
			next, err := transition("attempt", attempt.Status, model.EventExpire)
			if err != nil {
				return err
			}
			now := s.Now()
			for i := range attempt.Sections {
				sa := &attempt.Sections[i]
				if sa.Status.IsTerminal() {
					continue
				}
				t, err := s.Ledger.Tally(ctx, tx, sa)
				if err != nil {
					return err
				}
				if t.Answered > 0 && sa.Status == model.StatusInProgress {
					to, err := transition("section", sa.Status, model.EventSubmit)
					if err != nil {
						return err
					}
					applyScore(sa, s.scoreSection(exam, findSection(exam, sa.SectionID), sa, t))
					sa.Status = to
					sa.SubmittedAt = &now
				} else {
					to, err := transition("section", sa.Status, model.EventExpire)
					if err != nil {
						return err
					}
					zero := 0.0
					sa.RawScore = 0
					sa.EarnedScore = 0
					sa.BandScore = &zero
					sa.Status = to
				}
				if err := s.AttemptRepo.SaveSection(ctx, tx, sa); err != nil {
					return err
				}
			}
			if err := summarize(attempt); err != nil {
				return err
			}
			attempt.Status = next
			attempt.ExpiredAt = &now
			changed = true
			return s.AttemptRepo.SaveVersioned(ctx, tx, attempt)
		})
	})
	tracing.End(span, err)
	if err != nil {
		return nil, err
	}
	if changed {
		logger.Log.Info("exam attempt expired",
			zap.Uint("attemptId", attemptID),
			zap.Float64("overallBand", *out.OverallBand))
	}
	return out, nil
}

// ExpireOverdue expires every in-progress attempt whose deadline passed. A
// failing attempt does not stop the others; all failures are returned so the
// next tick retries them.
func (s *ExamAttemptService) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	start := time.Now()
	defer func() {
		monitoring.ExpirySweepDuration.Observe(time.Since(start).Seconds())
	}()

	ids, err := s.AttemptRepo.ListOverdueIDs(ctx, now, s.SweepBatchSize)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var (
		mu      sync.Mutex
		expired int
		errs    []error
	)
	var g errgroup.Group
	if s.SweepConcurrency > 0 {
		g.SetLimit(s.SweepConcurrency)
	}
	for _, id := range ids {
		id := id
		g.Go(func() error {
			_, err := s.Expire(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Log.Error("failed to expire overdue attempt", zap.Uint("attemptId", id), zap.Error(err))
				errs = append(errs, fmt.Errorf("attempt %d: %w", id, err))
				return nil
			}
			expired++
			return nil
		})
	}
	_ = g.Wait()
	return expired, errors.Join(errs...)
}

// GradeRubricSection records an externally graded band for a submitted
// rubric section. A finished attempt gets its aggregate recomputed; its
// status does not change.
func (s *ExamAttemptService) GradeRubricSection(ctx context.Context, graderID, attemptID, sectionID uint, band float64) (*model.SectionAttempt, error) {
	if !scoring.IsValidBand(band) {
		return nil, util.Validationf("band %.2f must be between 0 and 9 in steps of 0.5", band)
	}
	ctx, span := tracing.Start(ctx, "ExamAttemptService.GradeRubricSection", attemptID)
	var out *model.SectionAttempt
	err := s.withLock(ctx, attemptKey(attemptID), func() error {
		_, exam, err := s.prepare(ctx, 0, attemptID)
		if err != nil {
			return err
		}
		section := findSection(exam, sectionID)
		if section == nil {
			return util.ErrSectionAttemptMissing
		}
		if section.ScoringMode != model.ScoringRubric {
			return util.Validationf("section %d is not rubric scored", sectionID)
		}
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			attempt, err := s.AttemptRepo.FindByID(ctx, tx, attemptID)
			if err != nil {
				return notFound(err, util.ErrAttemptNotFound)
			}
			sa := attempt.Section(sectionID)
			if sa == nil {
				return util.ErrSectionAttemptMissing
			}
			if sa.Status != model.StatusSubmitted {
				return util.Statef("section %d is %s, only submitted sections can be graded", sectionID, sa.Status)
			}
			now := s.Now()
			b := band
			grader := graderID
			sa.BandScore = &b
			sa.GradedBy = &grader
			sa.GradedAt = &now
			if err := s.AttemptRepo.SaveSection(ctx, tx, sa); err != nil {
				return err
			}
			out = sa
			if attempt.Status.IsTerminal() {
				if err := summarize(attempt); err != nil {
					return err
				}
			}
			return s.AttemptRepo.SaveVersioned(ctx, tx, attempt)
		})
	})
	tracing.End(span, err)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("rubric section graded",
		zap.Uint("attemptId", attemptID),
		zap.Uint("sectionId", sectionID),
		zap.Uint("graderId", graderID),
		zap.Float64("band", band))
	return out, nil
}
