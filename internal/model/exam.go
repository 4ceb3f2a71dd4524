package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ExamTypeIELTS   = "IELTS"
	ExamTypeGeneral = "GENERAL"

	ReadingVariantAcademic = "ACADEMIC"
	ReadingVariantGeneral  = "GENERAL"
)

const (
	SectionListening = "LISTENING"
	SectionReading   = "READING"
	SectionWriting   = "WRITING"
	SectionSpeaking  = "SPEAKING"
	SectionGeneral   = "GENERAL"
)

const (
	ScoringTable  = "TABLE"
	ScoringRubric = "RUBRIC"

	SelectionOrdered  = "ORDERED"
	SelectionAdaptive = "ADAPTIVE"
)

const (
	QuestionMultipleChoice = "MULTIPLE_CHOICE"
	QuestionText           = "TEXT"
	QuestionMultiSelect    = "MULTI_SELECT"
	QuestionOrderedList    = "ORDERED_LIST"
)

// swagger:model Exam
type Exam struct {
	BaseModel

	Code                 string     `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Title                string     `gorm:"size:255;not null" json:"title"`
	Description          string     `gorm:"type:text" json:"description"`
	ExamType             string     `gorm:"size:32;default:'IELTS'" json:"examType"`
	ReadingVariant       string     `gorm:"size:32;default:'ACADEMIC'" json:"readingVariant"`
	TotalDurationSeconds int        `gorm:"default:0" json:"totalDurationSeconds"` // 0 = sum of sections
	IsPublished          bool       `gorm:"default:false;index" json:"isPublished"`
	PublishedAt          *time.Time `json:"publishedAt,omitempty"`

	Sections []ExamSection `gorm:"foreignKey:ExamID" json:"sections,omitempty"`
}

func (Exam) TableName() string {
	return "exams"
}

// swagger:model ExamSection
type ExamSection struct {
	BaseModel

	ExamID          uint   `gorm:"index;not null" json:"examId"`
	Title           string `gorm:"size:255" json:"title"`
	SectionType     string `gorm:"size:32;not null" json:"sectionType"`
	DisplayOrder    int    `gorm:"default:0" json:"displayOrder"`
	DurationSeconds int    `gorm:"default:0" json:"durationSeconds"`
	ScoringMode     string `gorm:"size:16;default:'TABLE'" json:"scoringMode"`
	SelectionMode   string `gorm:"size:16;default:'ORDERED'" json:"selectionMode"`
	BandTable       string `gorm:"size:64" json:"bandTable,omitempty"` // registry key override
	MaxQuestions    int    `gorm:"default:0" json:"maxQuestions"`      // adaptive run length, 0 = configured default
	Instructions    string `gorm:"type:text" json:"instructions"`
	AudioURL        string `gorm:"size:512" json:"audioUrl,omitempty"`

	Questions []ExamQuestion `gorm:"foreignKey:SectionID" json:"questions,omitempty"`
}

func (ExamSection) TableName() string {
	return "exam_sections"
}

// IsAdaptive reports whether questions are served by the adaptive selector.
func (s *ExamSection) IsAdaptive() bool {
	return s.SelectionMode == SelectionAdaptive
}

// swagger:model ExamQuestion
type ExamQuestion struct {
	BaseModel

	SectionID     uint           `gorm:"index;not null" json:"sectionId"`
	DisplayOrder  int            `gorm:"default:0" json:"displayOrder"`
	QuestionType  string         `gorm:"size:32;not null" json:"questionType"`
	Difficulty    int            `gorm:"default:1" json:"difficulty"`
	Prompt        string         `gorm:"type:text" json:"prompt"`
	Options       datatypes.JSON `json:"options,omitempty"`
	CorrectAnswer datatypes.JSON `json:"correctAnswer,omitempty"`
	ScoreWeight   float64        `gorm:"default:1" json:"scoreWeight"`
	Explanation   string         `gorm:"type:text" json:"explanation,omitempty"`
}

func (ExamQuestion) TableName() string {
	return "exam_questions"
}

// Sanitized returns a copy without the answer key and explanation.
func (q ExamQuestion) Sanitized() ExamQuestion {
	q.CorrectAnswer = nil
	q.Explanation = ""
	return q
}
