package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"lingua_exam_backend/internal/grading"
	"lingua_exam_backend/internal/model"
	"lingua_exam_backend/internal/repository"
	"lingua_exam_backend/internal/scoring"
	"lingua_exam_backend/internal/util"
	"lingua_exam_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Catalog is the read-only exam catalog consumed by the attempt core.
// GetExam and GetSection return questions in display order.
type Catalog interface {
	GetExam(ctx context.Context, examID uint) (*model.Exam, error)
	GetSection(ctx context.Context, sectionID uint) (*model.ExamSection, error)
	GetQuestion(ctx context.Context, questionID uint) (*model.ExamQuestion, error)
	IsAnswerCorrect(q *model.ExamQuestion, answer json.RawMessage) (grading.Result, error)
}

type CatalogService struct {
	ExamRepo *repository.ExamRepository
	Grader   *grading.Grader
	DB       *gorm.DB
}

func NewCatalogService(examRepo *repository.ExamRepository, grader *grading.Grader, db *gorm.DB) *CatalogService {
	return &CatalogService{
		ExamRepo: examRepo,
		Grader:   grader,
		DB:       db,
	}
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func (s *CatalogService) GetExam(ctx context.Context, examID uint) (*model.Exam, error) {
	exam, err := s.ExamRepo.FindWithQuestions(ctx, examID)
	if err != nil {
		return nil, notFound(err, util.ErrExamNotFound)
	}
	return exam, nil
}

func (s *CatalogService) GetSection(ctx context.Context, sectionID uint) (*model.ExamSection, error) {
	section, err := s.ExamRepo.FindSection(ctx, sectionID)
	if err != nil {
		return nil, notFound(err, util.ErrSectionNotFound)
	}
	return section, nil
}

func (s *CatalogService) GetQuestion(ctx context.Context, questionID uint) (*model.ExamQuestion, error) {
	q, err := s.ExamRepo.FindQuestion(ctx, questionID)
	if err != nil {
		return nil, notFound(err, util.ErrQuestionNotFound)
	}
	return q, nil
}

// IsAnswerCorrect checks answer against the question's key. It never touches
// the database, so it is safe inside a write transaction.
func (s *CatalogService) IsAnswerCorrect(q *model.ExamQuestion, answer json.RawMessage) (grading.Result, error) {
	res, err := s.Grader.Grade(grading.Question{
		Type:   q.QuestionType,
		Key:    json.RawMessage(q.CorrectAnswer),
		Weight: q.ScoreWeight,
	}, answer)
	if err != nil {
		return res, util.Validationf("question %d: %v", q.ID, err)
	}
	return res, nil
}

// ResolveTableKey picks the band table of a table-scored section: the
// section's explicit key, else the IELTS table for its skill and the exam's
// reading variant. Sections without a table return "".
func ResolveTableKey(exam *model.Exam, section *model.ExamSection) string {
	if section.BandTable != "" {
		return section.BandTable
	}
	switch section.SectionType {
	case model.SectionListening:
		return scoring.TableIELTSListening
	case model.SectionReading:
		if exam != nil && exam.ReadingVariant == model.ReadingVariantGeneral {
			return scoring.TableIELTSReadingGeneral
		}
		return scoring.TableIELTSReadingAcademic
	}
	return ""
}

type ExamSummary struct {
	ID                   uint             `json:"id"`
	Code                 string           `json:"code"`
	Title                string           `json:"title"`
	ExamType             string           `json:"examType"`
	TotalDurationSeconds int              `json:"totalDurationSeconds"`
	Sections             []SectionSummary `json:"sections"`
}

type SectionSummary struct {
	ID              uint   `json:"id"`
	Title           string `json:"title"`
	SectionType     string `json:"sectionType"`
	DisplayOrder    int    `json:"displayOrder"`
	DurationSeconds int    `json:"durationSeconds"`
	ScoringMode     string `json:"scoringMode"`
	SelectionMode   string `json:"selectionMode"`
}

func summarizeSection(s model.ExamSection) SectionSummary {
	return SectionSummary{
		ID:              s.ID,
		Title:           s.Title,
		SectionType:     s.SectionType,
		DisplayOrder:    s.DisplayOrder,
		DurationSeconds: s.DurationSeconds,
		ScoringMode:     s.ScoringMode,
		SelectionMode:   s.SelectionMode,
	}
}

func (s *CatalogService) ListExams(ctx context.Context, examType string, page, limit int) ([]ExamSummary, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	exams, total, err := s.ExamRepo.ListPublished(ctx, strings.ToUpper(examType), page, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ExamSummary, 0, len(exams))
	for _, e := range exams {
		sum := ExamSummary{
			ID:                   e.ID,
			Code:                 e.Code,
			Title:                e.Title,
			ExamType:             e.ExamType,
			TotalDurationSeconds: e.TotalDurationSeconds,
			Sections:             make([]SectionSummary, 0, len(e.Sections)),
		}
		for _, sec := range e.Sections {
			sum.Sections = append(sum.Sections, summarizeSection(sec))
		}
		out = append(out, sum)
	}
	return out, total, nil
}

// GetExamDetail returns a published exam with section headers. Unpublished
// exams are reported as missing.
func (s *CatalogService) GetExamDetail(ctx context.Context, examID uint) (*ExamSummary, error) {
	exam, err := s.ExamRepo.FindWithSections(ctx, examID)
	if err != nil {
		return nil, notFound(err, util.ErrExamNotFound)
	}
	if !exam.IsPublished {
		return nil, util.ErrExamNotFound
	}
	sum := &ExamSummary{
		ID:                   exam.ID,
		Code:                 exam.Code,
		Title:                exam.Title,
		ExamType:             exam.ExamType,
		TotalDurationSeconds: exam.TotalDurationSeconds,
	}
	for _, sec := range exam.Sections {
		sum.Sections = append(sum.Sections, summarizeSection(sec))
	}
	return sum, nil
}

// GetSectionDetail returns a section of a published exam with its questions,
// answer keys stripped.
func (s *CatalogService) GetSectionDetail(ctx context.Context, examID, sectionID uint) (*model.ExamSection, error) {
	exam, err := s.ExamRepo.FindByID(ctx, examID)
	if err != nil {
		return nil, notFound(err, util.ErrExamNotFound)
	}
	if !exam.IsPublished {
		return nil, util.ErrExamNotFound
	}
	section, err := s.GetSection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	if section.ExamID != examID {
		return nil, util.NotFoundf("section %d is not part of exam %d", sectionID, examID)
	}
	for i := range section.Questions {
		section.Questions[i] = section.Questions[i].Sanitized()
	}
	return section, nil
}

type ImportQuestionRequest struct {
	QuestionType  string          `json:"questionType" binding:"required"`
	Difficulty    int             `json:"difficulty"`
	Prompt        string          `json:"prompt"`
	Options       json.RawMessage `json:"options,omitempty"`
	CorrectAnswer json.RawMessage `json:"correctAnswer,omitempty"`
	ScoreWeight   float64         `json:"scoreWeight"`
	Explanation   string          `json:"explanation,omitempty"`
}

type ImportSectionRequest struct {
	Title           string                  `json:"title"`
	SectionType     string                  `json:"sectionType" binding:"required"`
	DurationSeconds int                     `json:"durationSeconds"`
	ScoringMode     string                  `json:"scoringMode"`
	SelectionMode   string                  `json:"selectionMode"`
	BandTable       string                  `json:"bandTable"`
	MaxQuestions    int                     `json:"maxQuestions"`
	Instructions    string                  `json:"instructions"`
	AudioURL        string                  `json:"audioUrl"`
	Questions       []ImportQuestionRequest `json:"questions"`
}

type ImportExamRequest struct {
	Code                 string                 `json:"code" binding:"required"`
	Title                string                 `json:"title" binding:"required"`
	Description          string                 `json:"description"`
	ExamType             string                 `json:"examType"`
	ReadingVariant       string                 `json:"readingVariant"`
	TotalDurationSeconds int                    `json:"totalDurationSeconds"`
	IsPublished          bool                   `json:"isPublished"`
	Sections             []ImportSectionRequest `json:"sections"`
}

var (
	validSectionTypes = map[string]bool{
		model.SectionListening: true, model.SectionReading: true, model.SectionWriting: true,
		model.SectionSpeaking: true, model.SectionGeneral: true,
	}
	validQuestionTypes = map[string]bool{
		model.QuestionMultipleChoice: true, model.QuestionText: true,
		model.QuestionMultiSelect: true, model.QuestionOrderedList: true,
	}
)

func upperOr(v, def string) string {
	v = strings.ToUpper(strings.TrimSpace(v))
	if v == "" {
		return def
	}
	return v
}

func rawJSON(raw json.RawMessage, field string, qi int) (datatypes.JSON, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, util.Validationf("question %d: %s is not valid JSON", qi+1, field)
	}
	return datatypes.JSON(trimmed), nil
}

// ImportExam validates and stores a complete exam definition.
func (s *CatalogService) ImportExam(ctx context.Context, req ImportExamRequest) (*model.Exam, error) {
	exam, err := s.buildExam(req)
	if err != nil {
		return nil, err
	}
	exists, err := s.ExamRepo.CodeExists(ctx, exam.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.Validationf("exam code %q already exists", exam.Code)
	}
	if err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.ExamRepo.Create(ctx, tx, exam)
	}); err != nil {
		return nil, err
	}
	logger.Log.Info("exam imported",
		zap.Uint("examId", exam.ID),
		zap.String("code", exam.Code),
		zap.Int("sections", len(exam.Sections)))
	return exam, nil
}

func (s *CatalogService) buildExam(req ImportExamRequest) (*model.Exam, error) {
	code := strings.TrimSpace(req.Code)
	title := strings.TrimSpace(req.Title)
	if code == "" || title == "" {
		return nil, util.Validationf("code and title are required")
	}
	if len(req.Sections) == 0 {
		return nil, util.Validationf("exam needs at least one section")
	}
	if req.TotalDurationSeconds < 0 {
		return nil, util.Validationf("totalDurationSeconds must not be negative")
	}

	exam := &model.Exam{
		Code:                 code,
		Title:                title,
		Description:          req.Description,
		ExamType:             upperOr(req.ExamType, model.ExamTypeIELTS),
		ReadingVariant:       upperOr(req.ReadingVariant, model.ReadingVariantAcademic),
		TotalDurationSeconds: req.TotalDurationSeconds,
		IsPublished:          req.IsPublished,
	}
	if exam.ExamType != model.ExamTypeIELTS && exam.ExamType != model.ExamTypeGeneral {
		return nil, util.Validationf("unknown exam type %q", exam.ExamType)
	}
	if exam.ReadingVariant != model.ReadingVariantAcademic && exam.ReadingVariant != model.ReadingVariantGeneral {
		return nil, util.Validationf("unknown reading variant %q", exam.ReadingVariant)
	}
	if exam.IsPublished {
		now := time.Now()
		exam.PublishedAt = &now
	}

	for si, sr := range req.Sections {
		section, err := buildSection(exam, si, sr)
		if err != nil {
			return nil, err
		}
		exam.Sections = append(exam.Sections, *section)
	}
	return exam, nil
}

func buildSection(exam *model.Exam, si int, sr ImportSectionRequest) (*model.ExamSection, error) {
	section := &model.ExamSection{
		Title:           sr.Title,
		SectionType:     upperOr(sr.SectionType, ""),
		DisplayOrder:    si + 1,
		DurationSeconds: sr.DurationSeconds,
		ScoringMode:     upperOr(sr.ScoringMode, model.ScoringTable),
		SelectionMode:   upperOr(sr.SelectionMode, model.SelectionOrdered),
		BandTable:       strings.TrimSpace(sr.BandTable),
		MaxQuestions:    sr.MaxQuestions,
		Instructions:    sr.Instructions,
		AudioURL:        sr.AudioURL,
	}
	if !validSectionTypes[section.SectionType] {
		return nil, util.Validationf("section %d: unknown section type %q", si+1, sr.SectionType)
	}
	if section.DurationSeconds < 0 || section.MaxQuestions < 0 {
		return nil, util.Validationf("section %d: durations and limits must not be negative", si+1)
	}
	switch section.ScoringMode {
	case model.ScoringTable:
		key := ResolveTableKey(exam, section)
		table, ok := scoring.LookupTable(key)
		if !ok {
			return nil, util.Validationf("section %d: no band table for %s sections", si+1, section.SectionType)
		}
		if err := scoring.Validate(table, table.MaxRaw()); err != nil {
			return nil, util.Validationf("section %d: band table %s: %v", si+1, key, err)
		}
		section.BandTable = key
	case model.ScoringRubric:
	default:
		return nil, util.Validationf("section %d: unknown scoring mode %q", si+1, sr.ScoringMode)
	}
	if section.SelectionMode != model.SelectionOrdered && section.SelectionMode != model.SelectionAdaptive {
		return nil, util.Validationf("section %d: unknown selection mode %q", si+1, sr.SelectionMode)
	}
	if section.ScoringMode == model.ScoringTable && len(sr.Questions) == 0 {
		return nil, util.Validationf("section %d: table-scored sections need questions", si+1)
	}

	for qi, qr := range sr.Questions {
		q := model.ExamQuestion{
			DisplayOrder: qi + 1,
			QuestionType: upperOr(qr.QuestionType, ""),
			Difficulty:   qr.Difficulty,
			Prompt:       qr.Prompt,
			ScoreWeight:  qr.ScoreWeight,
			Explanation:  qr.Explanation,
		}
		if !validQuestionTypes[q.QuestionType] {
			return nil, util.Validationf("section %d question %d: unknown question type %q", si+1, qi+1, qr.QuestionType)
		}
		if q.Difficulty == 0 {
			q.Difficulty = 1
		}
		if q.Difficulty < 0 {
			return nil, util.Validationf("section %d question %d: difficulty must be positive", si+1, qi+1)
		}
		if q.ScoreWeight <= 0 {
			q.ScoreWeight = 1
		}
		var err error
		if q.Options, err = rawJSON(qr.Options, "options", qi); err != nil {
			return nil, err
		}
		if q.CorrectAnswer, err = rawJSON(qr.CorrectAnswer, "correctAnswer", qi); err != nil {
			return nil, err
		}
		if section.ScoringMode == model.ScoringTable && q.CorrectAnswer == nil {
			return nil, util.Validationf("section %d question %d: table-scored questions need a correctAnswer", si+1, qi+1)
		}
		section.Questions = append(section.Questions, q)
	}
	return section, nil
}
