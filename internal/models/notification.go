package models

type NotificationType string
type NotificationPriority int

const (
	// Notification types consumed by the platform's notification service.
	NotificationExamPublished      NotificationType = "exam_published"
	NotificationExamApproved       NotificationType = "exam_approved"
	NotificationExamRejected       NotificationType = "exam_rejected"
	NotificationSubmissionReview   NotificationType = "submission_review"
	NotificationViolationAlert     NotificationType = "violation_alert"
	NotificationResultsPublished   NotificationType = "results_published"
	NotificationReAttemptRequested NotificationType = "reattempt_requested"
	NotificationReAttemptDecision  NotificationType = "reattempt_decision"

	// Priority levels
	PriorityLow      NotificationPriority = 1
	PriorityNormal   NotificationPriority = 2
	PriorityHigh     NotificationPriority = 3
	PriorityCritical NotificationPriority = 4
)
