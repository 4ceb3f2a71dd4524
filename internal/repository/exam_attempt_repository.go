package repository

import (
	"context"
	"time"

	"lingua_exam_backend/internal/model"
	"lingua_exam_backend/internal/util"

	"gorm.io/gorm"
)

type ExamAttemptRepository struct {
	DB *gorm.DB
}

func NewExamAttemptRepository(db *gorm.DB) *ExamAttemptRepository {
	return &ExamAttemptRepository{DB: db}
}

func (r *ExamAttemptRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.DB
}

// AttemptFilter narrows attempt listings. Zero values are ignored.
type AttemptFilter struct {
	UserID uint
	ExamID uint
	Status model.AttemptStatus
	Mode   string
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}

// Create inserts the attempt and its section attempts.
func (r *ExamAttemptRepository) Create(ctx context.Context, tx *gorm.DB, attempt *model.ExamAttempt) error {
	return r.getDB(tx).WithContext(ctx).Create(attempt).Error
}

func (r *ExamAttemptRepository) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*model.ExamAttempt, error) {
	var a model.ExamAttempt
	err := r.getDB(tx).WithContext(ctx).
		Preload("Sections", orderedSections).
		First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindActive returns the newest in-progress attempt for the same candidate,
// exam, mode and target section.
func (r *ExamAttemptRepository) FindActive(ctx context.Context, tx *gorm.DB, userID, examID uint, mode string, targetSectionID *uint) (*model.ExamAttempt, error) {
	query := r.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND exam_id = ? AND mode = ? AND status = ?", userID, examID, mode, model.StatusInProgress)
	if targetSectionID != nil {
		query = query.Where("target_section_id = ?", *targetSectionID)
	} else {
		query = query.Where("target_section_id IS NULL")
	}
	var a model.ExamAttempt
	err := query.Preload("Sections", orderedSections).
		Order("started_at desc, id desc").
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveVersioned writes the attempt's mutable columns if nobody else changed
// the row since it was read, and bumps Version.
func (r *ExamAttemptRepository) SaveVersioned(ctx context.Context, tx *gorm.DB, a *model.ExamAttempt) error {
	res := r.getDB(tx).WithContext(ctx).
		Model(&model.ExamAttempt{}).
		Where("id = ? AND version = ?", a.ID, a.Version).
		Updates(map[string]interface{}{
			"status":          a.Status,
			"deadline_at":     a.DeadlineAt,
			"submitted_at":    a.SubmittedAt,
			"expired_at":      a.ExpiredAt,
			"overall_band":    a.OverallBand,
			"total_correct":   a.TotalCorrect,
			"total_questions": a.TotalQuestions,
			"total_score":     a.TotalScore,
			"score_summary":   a.ScoreSummary,
			"version":         a.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrVersionMismatch
	}
	a.Version++
	return nil
}

func (r *ExamAttemptRepository) SaveSection(ctx context.Context, tx *gorm.DB, sa *model.SectionAttempt) error {
	return r.getDB(tx).WithContext(ctx).Save(sa).Error
}

// List pages through attempts matching f, newest first, with exam headers
// and section attempts loaded.
func (r *ExamAttemptRepository) List(ctx context.Context, f AttemptFilter) ([]model.ExamAttempt, int, error) {
	var attempts []model.ExamAttempt
	var total int64

	query := r.DB.WithContext(ctx).Model(&model.ExamAttempt{})
	if f.UserID > 0 {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.ExamID > 0 {
		query = query.Where("exam_id = ?", f.ExamID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Mode != "" {
		query = query.Where("mode = ?", f.Mode)
	}
	if f.From != nil {
		query = query.Where("started_at >= ?", *f.From)
	}
	if f.To != nil {
		query = query.Where("started_at <= ?", *f.To)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	err := query.
		Preload("Exam").
		Preload("Sections", orderedSections).
		Order("started_at desc, id desc").
		Offset((page - 1) * limit).Limit(limit).
		Find(&attempts).Error
	return attempts, int(total), err
}

// ListOverdueIDs returns in-progress attempts whose deadline is not after now.
func (r *ExamAttemptRepository) ListOverdueIDs(ctx context.Context, now time.Time, limit int) ([]uint, error) {
	var ids []uint
	query := r.DB.WithContext(ctx).Model(&model.ExamAttempt{}).
		Where("status = ? AND deadline_at IS NOT NULL AND deadline_at <= ?", model.StatusInProgress, now).
		Order("deadline_at asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Pluck("id", &ids).Error
	return ids, err
}
