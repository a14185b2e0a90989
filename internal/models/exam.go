package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ExamStatus string

const (
	ExamDraft         ExamStatus = "draft"
	ExamPendingReview ExamStatus = "pending_review"
	ExamApproved      ExamStatus = "approved"
	ExamRejected      ExamStatus = "rejected"
	ExamArchived      ExamStatus = "archived"
)

type QuestionType string

const (
	QuestionMCQ         QuestionType = "mcq"
	QuestionShortAnswer QuestionType = "short_answer"
	QuestionEssay       QuestionType = "essay"
)

// DefaultPassingScore applies when an exam is created without one.
const DefaultPassingScore = 60

type Exam struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	CourseID    uint    `json:"course_id" gorm:"not null;index"`
	Title       string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`

	// Policy
	Duration            int        `json:"duration" gorm:"not null" validate:"required,min=5,max=300"` // minutes
	PassingScore        int        `json:"passing_score" gorm:"default:60" validate:"min=0,max=100"`
	MaxAttempts         int        `json:"max_attempts" gorm:"default:1" validate:"min=1,max=10"`
	QuestionsPerAttempt *int       `json:"questions_per_attempt" validate:"omitempty,min=1"`
	AvailableFrom       *time.Time `json:"available_from"`
	AvailableUntil      *time.Time `json:"available_until"`

	// Review lifecycle. Publication is a flag gated by the approved status.
	Status         ExamStatus `json:"status" gorm:"default:draft;index" validate:"omitempty,exam_status"`
	IsPublished    bool       `json:"is_published" gorm:"default:false;index"`
	PublishedAt    *time.Time `json:"published_at"`
	PublishedBy    *string    `json:"published_by" gorm:"size:255"`
	ReviewedBy     *string    `json:"reviewed_by" gorm:"size:255"`
	ReviewedAt     *time.Time `json:"reviewed_at"`
	ReviewComments *string    `json:"review_comments" gorm:"type:text"`

	// Derived. TotalPoints is recomputed on every save; the statistics
	// columns are overwritten wholesale by RecomputeStats.
	TotalPoints  int     `json:"total_points" gorm:"not null;default:0"`
	AttemptCount int     `json:"attempt_count" gorm:"not null;default:0"`
	AverageScore float64 `json:"average_score" gorm:"not null;default:0"`
	PassRate     float64 `json:"pass_rate" gorm:"not null;default:0"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Settings  ExamSettings   `json:"settings" gorm:"foreignKey:ExamID"`
	Questions []ExamQuestion `json:"questions" gorm:"foreignKey:ExamID"`
}

// ExamSettings carries the display and anti-cheat policy flags.
type ExamSettings struct {
	ExamID    uint      `json:"exam_id" gorm:"primaryKey;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`

	// Question Display Settings
	ShuffleQuestions bool `json:"shuffle_questions" gorm:"not null;default:false"`
	ShuffleOptions   bool `json:"shuffle_options" gorm:"not null;default:false"`

	// Anti-Cheat Settings
	BlockCopyPaste    bool `json:"block_copy_paste" gorm:"not null;default:false"`
	BlockTabSwitch    bool `json:"block_tab_switch" gorm:"not null;default:false"`
	BlockRightClick   bool `json:"block_right_click" gorm:"not null;default:false"`
	RequireFullScreen bool `json:"require_full_screen" gorm:"not null;default:false"`
	RequireWebcam     bool `json:"require_webcam" gorm:"not null;default:false"`
}

type ExamQuestion struct {
	ID       uint         `json:"id" gorm:"primaryKey"`
	ExamID   uint         `json:"exam_id" gorm:"not null;index"`
	Position int          `json:"position" gorm:"not null"`
	Type     QuestionType `json:"type" gorm:"not null" validate:"required,question_type"`
	Text     string       `json:"text" gorm:"type:text;not null" validate:"required"`
	Points   int          `json:"points" gorm:"not null" validate:"required,min=1,max=100"`

	// Options holds []QuestionOption for mcq questions.
	Options datatypes.JSON `json:"options" gorm:"type:jsonb"`

	// CorrectAnswer enables auto-grading of short_answer questions.
	CorrectAnswer *string `json:"correct_answer" gorm:"type:text"`
	WordLimit     *int    `json:"word_limit"` // essay only
	Explanation   *string `json:"explanation" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type QuestionOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

func (Exam) TableName() string {
	return "exams"
}

func (ExamSettings) TableName() string {
	return "exam_settings"
}

func (ExamQuestion) TableName() string {
	return "exam_questions"
}
