package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	AttemptModeFull    = "FULL"
	AttemptModeSection = "SECTION"
)

// swagger:model ExamAttempt
type ExamAttempt struct {
	BaseModel

	ExamID          uint          `gorm:"index:idx_attempt_owner;not null" json:"examId"`
	UserID          uint          `gorm:"index:idx_attempt_owner;not null" json:"userId"`
	Mode            string        `gorm:"size:16;not null" json:"mode"`
	TargetSectionID *uint         `json:"targetSectionId,omitempty"`
	Status          AttemptStatus `gorm:"size:16;index;not null" json:"status"`
	Version         int           `gorm:"not null;default:1" json:"version"`

	StartedAt   time.Time  `json:"startedAt"`
	DeadlineAt  *time.Time `gorm:"index" json:"deadlineAt,omitempty"` // nil = untimed
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	ExpiredAt   *time.Time `json:"expiredAt,omitempty"`

	OverallBand    *float64       `json:"overallBand,omitempty"`
	TotalCorrect   int            `gorm:"default:0" json:"totalCorrect"`
	TotalQuestions int            `gorm:"default:0" json:"totalQuestions"`
	TotalScore     float64        `gorm:"default:0" json:"totalScore"`
	ScoreSummary   datatypes.JSON `json:"scoreSummary,omitempty"`

	Exam     *Exam            `gorm:"foreignKey:ExamID" json:"exam,omitempty"`
	Sections []SectionAttempt `gorm:"foreignKey:AttemptID" json:"sections,omitempty"`
}

func (ExamAttempt) TableName() string {
	return "exam_attempts"
}

// Section returns the section attempt for sectionID, nil when the section is
// not in scope.
func (a *ExamAttempt) Section(sectionID uint) *SectionAttempt {
	for i := range a.Sections {
		if a.Sections[i].SectionID == sectionID {
			return &a.Sections[i]
		}
	}
	return nil
}

// swagger:model SectionAttempt
type SectionAttempt struct {
	BaseModel

	AttemptID     uint          `gorm:"uniqueIndex:idx_attempt_section;not null" json:"attemptId"`
	SectionID     uint          `gorm:"uniqueIndex:idx_attempt_section;not null" json:"sectionId"`
	SectionType   string        `gorm:"size:32" json:"sectionType"`
	DisplayOrder  int           `gorm:"default:0" json:"displayOrder"`
	Status        AttemptStatus `gorm:"size:16;not null" json:"status"`
	QuestionCount int           `gorm:"default:0" json:"questionCount"`

	StartedAt   *time.Time `json:"startedAt,omitempty"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`

	RawScore    int        `gorm:"default:0" json:"rawScore"`
	EarnedScore float64    `gorm:"default:0" json:"earnedScore"`
	BandScore   *float64   `json:"bandScore,omitempty"` // nil for rubric sections until graded
	GradedBy    *uint      `json:"gradedBy,omitempty"`
	GradedAt    *time.Time `json:"gradedAt,omitempty"`
}

func (SectionAttempt) TableName() string {
	return "section_attempts"
}

// AnswerRecord is the latest answer for one question of a section attempt.
// Sequence keeps the order in which questions were first answered.
type AnswerRecord struct {
	BaseModel

	AttemptID        uint           `gorm:"index;not null" json:"attemptId"`
	SectionAttemptID uint           `gorm:"uniqueIndex:idx_answer_slot;not null" json:"sectionAttemptId"`
	SectionID        uint           `gorm:"index;not null" json:"sectionId"`
	QuestionID       uint           `gorm:"uniqueIndex:idx_answer_slot;not null" json:"questionId"`
	AnswerPayload    datatypes.JSON `json:"answer"`
	IsCorrect        *bool          `json:"isCorrect,omitempty"`
	Score            float64        `gorm:"default:0" json:"score"`
	AnsweredAt       time.Time      `json:"answeredAt"`
	Sequence         int            `gorm:"not null;default:0" json:"sequence"`
}

func (AnswerRecord) TableName() string {
	return "exam_attempt_answers"
}
