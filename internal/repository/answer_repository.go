package repository

import (
	"context"

	"lingua_exam_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerRepository struct {
	DB *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) *AnswerRepository {
	return &AnswerRepository{DB: db}
}

func (r *AnswerRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.DB
}

// SectionTally is the aggregate of one section attempt's answer rows.
type SectionTally struct {
	SectionAttemptID uint
	Answered         int
	Correct          int
	Earned           float64
}

// Upsert writes answers keyed by (section attempt, question). An existing row
// keeps its Sequence and has payload, correctness and score replaced.
func (r *AnswerRepository) Upsert(ctx context.Context, tx *gorm.DB, records []model.AnswerRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.getDB(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "section_attempt_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"answer_payload", "is_correct", "score", "answered_at", "updated_at",
			}),
		}).
		Create(&records).Error
}

// ListBySectionAttempt returns answers in the order questions were first answered.
func (r *AnswerRepository) ListBySectionAttempt(ctx context.Context, tx *gorm.DB, sectionAttemptID uint) ([]model.AnswerRecord, error) {
	var records []model.AnswerRecord
	err := r.getDB(tx).WithContext(ctx).
		Where("section_attempt_id = ?", sectionAttemptID).
		Order("sequence asc, id asc").
		Find(&records).Error
	return records, err
}

func (r *AnswerRepository) ListByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]model.AnswerRecord, error) {
	var records []model.AnswerRecord
	err := r.getDB(tx).WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("section_attempt_id asc, sequence asc, id asc").
		Find(&records).Error
	return records, err
}

// TallyByAttempt groups the attempt's answer rows per section attempt. Only
// answer rows are scanned, never the question catalog.
func (r *AnswerRepository) TallyByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) (map[uint]SectionTally, error) {
	var rows []SectionTally
	err := r.getDB(tx).WithContext(ctx).
		Model(&model.AnswerRecord{}).
		Select(`section_attempt_id,
			SUM(CASE WHEN answer_payload IS NOT NULL THEN 1 ELSE 0 END) AS answered,
			SUM(CASE WHEN is_correct = ? THEN 1 ELSE 0 END) AS correct,
			COALESCE(SUM(score), 0) AS earned`, true).
		Where("attempt_id = ?", attemptID).
		Group("section_attempt_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]SectionTally, len(rows))
	for _, row := range rows {
		out[row.SectionAttemptID] = row
	}
	return out, nil
}
