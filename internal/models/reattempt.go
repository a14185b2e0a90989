package models

import "time"

type ReAttemptStatus string

const (
	ReAttemptPending  ReAttemptStatus = "pending"
	ReAttemptApproved ReAttemptStatus = "approved"
	ReAttemptRejected ReAttemptStatus = "rejected"
)

// ReAttemptRequest is a student's plea for one extra attempt, reviewed
// by the exam creator. An approved request carries a single-use grant
// consumed by the next attempt start.
type ReAttemptRequest struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	StudentID   string `json:"student_id" gorm:"not null;index;size:255"`
	ExamID      uint   `json:"exam_id" gorm:"not null;index"`
	CourseID    uint   `json:"course_id" gorm:"not null"`
	ExamCreator string `json:"exam_creator" gorm:"not null;index;size:255"`

	// OriginalAttemptID is nil for contact_creator requests.
	OriginalAttemptID *uint `json:"original_attempt_id" gorm:"index"`

	ViolationType    ViolationType `json:"violation_type" gorm:"not null" validate:"required,violation_type"`
	ViolationDetails *string       `json:"violation_details" gorm:"type:text"`
	Message          string        `json:"message" gorm:"type:text" validate:"required,max=1000"`

	Status     ReAttemptStatus `json:"status" gorm:"default:pending;index"`
	Response   *string         `json:"response" gorm:"type:text"`
	ReviewedBy *string         `json:"reviewed_by" gorm:"size:255"`
	ReviewedAt *time.Time      `json:"reviewed_at"`

	// Grant tracking
	NewAttemptGranted bool  `json:"new_attempt_granted" gorm:"default:false"`
	NewAttemptUsed    bool  `json:"new_attempt_used" gorm:"default:false"`
	NewAttemptID      *uint `json:"new_attempt_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ReAttemptRequest) TableName() string {
	return "exam_reattempt_requests"
}
