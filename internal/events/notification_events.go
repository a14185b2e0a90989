package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/lumina-edu/exam-service/internal/models"
)

// EventType represents different types of notification events
type EventType string

const (
	// Exam lifecycle events
	EventExamPublished EventType = "exam.published"
	EventExamApproved  EventType = "exam.approved"
	EventExamRejected  EventType = "exam.rejected"

	// Attempt events
	EventAttemptSubmitted EventType = "attempt.submitted"
	EventViolationAlert   EventType = "attempt.violation_alert"
	EventResultsPublished EventType = "attempt.results_published"

	// Re-attempt adjudication events
	EventReAttemptRequested EventType = "reattempt.requested"
	EventReAttemptReviewed  EventType = "reattempt.reviewed"
)

// NotificationEvent is the base event structure for all notification
// events. Delivery is owned by the platform's notification service;
// this service only produces.
type NotificationEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Exam lifecycle event payloads

type ExamPublishedEvent struct {
	ExamID     uint       `json:"exam_id"`
	ExamTitle  string     `json:"exam_title"`
	CourseID   uint       `json:"course_id"`
	Duration   int        `json:"duration"` // minutes
	DueDate    *time.Time `json:"due_date,omitempty"`
	StudentIDs []string   `json:"student_ids"`
	CreatorID  string     `json:"creator_id"`
}

type ExamReviewedEvent struct {
	ExamID     uint    `json:"exam_id"`
	ExamTitle  string  `json:"exam_title"`
	AuthorID   string  `json:"author_id"`
	ReviewerID string  `json:"reviewer_id"`
	Approved   bool    `json:"approved"`
	Comments   *string `json:"comments,omitempty"`
}

// Attempt event payloads

type AttemptSubmittedEvent struct {
	AttemptID       uint                    `json:"attempt_id"`
	ExamID          uint                    `json:"exam_id"`
	ExamTitle       string                  `json:"exam_title"`
	StudentID       string                  `json:"student_id"`
	CreatorID       string                  `json:"creator_id"`
	SubmittedAt     time.Time               `json:"submitted_at"`
	Method          models.SubmissionMethod `json:"method"`
	Score           float64                 `json:"score"`
	GradingRequired bool                    `json:"grading_required"`
}

type ViolationAlertEvent struct {
	AttemptID      uint     `json:"attempt_id"`
	ExamID         uint     `json:"exam_id"`
	ExamTitle      string   `json:"exam_title"`
	StudentID      string   `json:"student_id"`
	CreatorID      string   `json:"creator_id"`
	ViolationTypes []string `json:"violation_types"`
	ViolationCount int      `json:"violation_count"`
	Terminated     bool     `json:"terminated"`
}

type ResultsPublishedEvent struct {
	AttemptID       uint    `json:"attempt_id"`
	ExamID          uint    `json:"exam_id"`
	ExamTitle       string  `json:"exam_title"`
	StudentID       string  `json:"student_id"`
	FinalScore      float64 `json:"final_score"`
	FinalPercentage int     `json:"final_percentage"`
	FinalPassed     bool    `json:"final_passed"`
	PublisherID     string  `json:"publisher_id"`
}

// Re-attempt adjudication event payloads

type ReAttemptRequestedEvent struct {
	RequestID     uint                 `json:"request_id"`
	ExamID        uint                 `json:"exam_id"`
	ExamTitle     string               `json:"exam_title"`
	StudentID     string               `json:"student_id"`
	CreatorID     string               `json:"creator_id"`
	ViolationType models.ViolationType `json:"violation_type"`
	Message       string               `json:"message"`
}

type ReAttemptReviewedEvent struct {
	RequestID  uint    `json:"request_id"`
	ExamID     uint    `json:"exam_id"`
	ExamTitle  string  `json:"exam_title"`
	StudentID  string  `json:"student_id"`
	ReviewerID string  `json:"reviewer_id"`
	Approved   bool    `json:"approved"`
	Response   *string `json:"response,omitempty"`
}

// Event factory functions

// newEvent builds the envelope. The notification type and priority in
// the metadata drive routing and rendering in the downstream
// notification service.
func newEvent(eventType EventType, data interface{}, notifType models.NotificationType, priority models.NotificationPriority) *NotificationEvent {
	return &NotificationEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "exam-service",
		Version:   "1.0",
		Data:      data,
		Metadata: map[string]interface{}{
			"notification_type": notifType,
			"priority":          priority,
		},
	}
}

func NewExamPublishedEvent(data ExamPublishedEvent) *NotificationEvent {
	return newEvent(EventExamPublished, data, models.NotificationExamPublished, models.PriorityNormal)
}

func NewExamReviewedEvent(data ExamReviewedEvent) *NotificationEvent {
	if data.Approved {
		return newEvent(EventExamApproved, data, models.NotificationExamApproved, models.PriorityNormal)
	}
	return newEvent(EventExamRejected, data, models.NotificationExamRejected, models.PriorityHigh)
}

func NewAttemptSubmittedEvent(data AttemptSubmittedEvent) *NotificationEvent {
	priority := models.PriorityLow
	if data.GradingRequired {
		priority = models.PriorityNormal
	}
	return newEvent(EventAttemptSubmitted, data, models.NotificationSubmissionReview, priority)
}

func NewViolationAlertEvent(data ViolationAlertEvent) *NotificationEvent {
	priority := models.PriorityHigh
	if data.Terminated {
		priority = models.PriorityCritical
	}
	return newEvent(EventViolationAlert, data, models.NotificationViolationAlert, priority)
}

func NewResultsPublishedEvent(data ResultsPublishedEvent) *NotificationEvent {
	return newEvent(EventResultsPublished, data, models.NotificationResultsPublished, models.PriorityHigh)
}

func NewReAttemptRequestedEvent(data ReAttemptRequestedEvent) *NotificationEvent {
	return newEvent(EventReAttemptRequested, data, models.NotificationReAttemptRequested, models.PriorityNormal)
}

func NewReAttemptReviewedEvent(data ReAttemptReviewedEvent) *NotificationEvent {
	return newEvent(EventReAttemptReviewed, data, models.NotificationReAttemptDecision, models.PriorityHigh)
}

// GenerateEventID returns a unique identifier for an outgoing event.
func GenerateEventID() string {
	return uuid.NewString()
}
