package models

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptAbandoned  AttemptStatus = "abandoned"
)

type SubmissionMethod string

const (
	SubmissionManual        SubmissionMethod = "manual"
	SubmissionAutoTimeout   SubmissionMethod = "auto_timeout"
	SubmissionAutoViolation SubmissionMethod = "auto_violation"
)

type GradingStatus string

const (
	GradingPending         GradingStatus = "pending"
	GradingFullyGraded     GradingStatus = "fully_graded"
	GradingPartiallyGraded GradingStatus = "partially_graded"
)

type ExamAttempt struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	ExamID        uint          `json:"exam_id" gorm:"not null;index"`
	StudentID     string        `json:"student_id" gorm:"not null;index;size:255"`
	AttemptNumber int           `json:"attempt_number" gorm:"not null"`
	Status        AttemptStatus `json:"status" gorm:"default:in_progress;index"`

	// Snapshot holds the ExamSnapshot frozen at start time. Grading reads
	// only from here, never from the live exam.
	Snapshot datatypes.JSON `json:"-" gorm:"type:jsonb;not null"`

	// Timing
	StartedAt   time.Time  `json:"started_at" gorm:"not null"`
	SubmittedAt *time.Time `json:"submitted_at"`
	TimeSpent   int        `json:"time_spent"` // seconds

	// Raw scoring, computed at submit time from auto-graded answers only.
	TotalScore    float64       `json:"total_score"`
	Percentage    int           `json:"percentage"`
	Passed        bool          `json:"passed"`
	GradingStatus GradingStatus `json:"grading_status" gorm:"default:pending"`

	// Final scoring, set only by score publication. Undefined until
	// ScorePublished is true.
	FinalScore      *float64   `json:"final_score,omitempty"`
	FinalPercentage *int       `json:"final_percentage,omitempty"`
	FinalPassed     *bool      `json:"final_passed,omitempty"`
	ScorePublished  bool       `json:"score_published" gorm:"default:false;index"`
	PublishedAt     *time.Time `json:"published_at"`
	PublishedBy     *string    `json:"published_by" gorm:"size:255"`
	Feedback        *string    `json:"feedback" gorm:"type:text"`

	// Termination metadata
	IsTimedOut               bool             `json:"is_timed_out" gorm:"default:false"`
	SubmissionMethod         SubmissionMethod `json:"submission_method" gorm:"size:32"`
	TerminatedDueToViolation bool             `json:"terminated_due_to_violation" gorm:"default:false"`
	EndReason                *string          `json:"end_reason" gorm:"type:text"`
	ViolationCount           int              `json:"violation_count" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Answers    []AttemptAnswer    `json:"answers" gorm:"foreignKey:AttemptID"`
	Violations []AttemptViolation `json:"violations" gorm:"foreignKey:AttemptID"`
}

// ExamSnapshot is the immutable copy of the exam captured when an
// attempt starts. Later edits to the exam must not reach it.
type ExamSnapshot struct {
	ExamID       uint               `json:"exam_id"`
	Title        string             `json:"title"`
	Duration     int                `json:"duration"` // minutes
	PassingScore int                `json:"passing_score"`
	TotalPoints  int                `json:"total_points"`
	Questions    []SnapshotQuestion `json:"questions"`
}

type SnapshotQuestion struct {
	QuestionID    uint             `json:"question_id"`
	Position      int              `json:"position"`
	Type          QuestionType     `json:"type"`
	Text          string           `json:"text"`
	Points        int              `json:"points"`
	Options       []QuestionOption `json:"options,omitempty"`
	CorrectAnswer *string          `json:"correct_answer,omitempty"`
	WordLimit     *int             `json:"word_limit,omitempty"`
}

// RedactedQuestion is the student-facing view of a snapshot question
// with all correctness information stripped.
type RedactedQuestion struct {
	QuestionID uint         `json:"question_id"`
	Position   int          `json:"position"`
	Type       QuestionType `json:"type"`
	Text       string       `json:"text"`
	Points     int          `json:"points"`
	Options    []string     `json:"options,omitempty"`
	WordLimit  *int         `json:"word_limit,omitempty"`
}

// Redact strips correct answers and explanations for delivery to the
// exam-taking client.
func (q SnapshotQuestion) Redact() RedactedQuestion {
	r := RedactedQuestion{
		QuestionID: q.QuestionID,
		Position:   q.Position,
		Type:       q.Type,
		Text:       q.Text,
		Points:     q.Points,
		WordLimit:  q.WordLimit,
	}
	for _, opt := range q.Options {
		r.Options = append(r.Options, opt.Text)
	}
	return r
}

type AttemptAnswer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	AttemptID  uint `json:"attempt_id" gorm:"not null;index"`
	QuestionID uint `json:"question_id" gorm:"not null;index"`

	// Answer content
	SelectedOption *int    `json:"selected_option,omitempty"` // mcq option index
	Text           *string `json:"text,omitempty" gorm:"type:text"`

	// Grading
	Points     float64 `json:"points"`
	MaxPoints  int     `json:"max_points" gorm:"not null"`
	IsCorrect  *bool   `json:"is_correct,omitempty"` // nil until graded
	AutoGraded bool    `json:"auto_graded" gorm:"default:false"`

	// Manual grading
	ManualScore *float64   `json:"manual_score,omitempty"`
	Feedback    *string    `json:"feedback,omitempty" gorm:"type:text"`
	GradedBy    *string    `json:"graded_by,omitempty" gorm:"size:255"`
	GradedAt    *time.Time `json:"graded_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ExamAttempt) TableName() string {
	return "exam_attempts"
}

func (AttemptAnswer) TableName() string {
	return "attempt_answers"
}
