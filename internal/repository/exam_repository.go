package repository

import (
	"context"

	"lingua_exam_backend/internal/model"

	"gorm.io/gorm"
)

type ExamRepository struct {
	DB *gorm.DB
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{DB: db}
}

func (r *ExamRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.DB
}

func orderedSections(db *gorm.DB) *gorm.DB {
	return db.Order("display_order asc, id asc")
}

func orderedQuestions(db *gorm.DB) *gorm.DB {
	return db.Order("display_order asc, id asc")
}

// Create inserts the exam together with its sections and questions.
func (r *ExamRepository) Create(ctx context.Context, tx *gorm.DB, exam *model.Exam) error {
	return r.getDB(tx).WithContext(ctx).Create(exam).Error
}

func (r *ExamRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Exam{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

func (r *ExamRepository) FindByID(ctx context.Context, id uint) (*model.Exam, error) {
	var exam model.Exam
	if err := r.DB.WithContext(ctx).First(&exam, id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *ExamRepository) FindWithSections(ctx context.Context, id uint) (*model.Exam, error) {
	var exam model.Exam
	err := r.DB.WithContext(ctx).
		Preload("Sections", orderedSections).
		First(&exam, id).Error
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *ExamRepository) FindWithQuestions(ctx context.Context, id uint) (*model.Exam, error) {
	var exam model.Exam
	err := r.DB.WithContext(ctx).
		Preload("Sections", orderedSections).
		Preload("Sections.Questions", orderedQuestions).
		First(&exam, id).Error
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *ExamRepository) FindSection(ctx context.Context, id uint) (*model.ExamSection, error) {
	var section model.ExamSection
	err := r.DB.WithContext(ctx).
		Preload("Questions", orderedQuestions).
		First(&section, id).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *ExamRepository) FindQuestion(ctx context.Context, id uint) (*model.ExamQuestion, error) {
	var q model.ExamQuestion
	if err := r.DB.WithContext(ctx).First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

// ListPublished pages through published exams, newest first.
func (r *ExamRepository) ListPublished(ctx context.Context, examType string, page, limit int) ([]model.Exam, int, error) {
	var exams []model.Exam
	var total int64
	query := r.DB.WithContext(ctx).Model(&model.Exam{}).Where("is_published = ?", true)
	if examType != "" {
		query = query.Where("exam_type = ?", examType)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Preload("Sections", orderedSections).
		Order("created_at desc, id desc").
		Offset(offset).Limit(limit).
		Find(&exams).Error
	return exams, int(total), err
}
