package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lumina-edu/exam-service/internal/events"
	"github.com/lumina-edu/exam-service/internal/models"
	"github.com/lumina-edu/exam-service/internal/repositories"
)

// NotificationEventService publishes notification events consumed by
// the platform's notification service. All methods are fire-and-forget
// from the caller's perspective: services invoke them in goroutines and
// a delivery failure never fails the state transition that produced it.
type NotificationEventService interface {
	NotifyExamPublished(ctx context.Context, exam *models.Exam) error
	NotifyExamReviewed(ctx context.Context, exam *models.Exam, reviewerID string, approved bool, comments *string) error
	NotifyAttemptSubmitted(ctx context.Context, attempt *models.ExamAttempt, examTitle, creatorID string, gradingRequired bool) error
	NotifyViolationAlert(ctx context.Context, attempt *models.ExamAttempt, examTitle, creatorID string, violationTypes []string, terminated bool) error
	NotifyResultsPublished(ctx context.Context, attempt *models.ExamAttempt, examTitle string) error
	NotifyReAttemptRequested(ctx context.Context, request *models.ReAttemptRequest, examTitle string) error
	NotifyReAttemptReviewed(ctx context.Context, request *models.ReAttemptRequest, examTitle string) error
}

type notificationEventService struct {
	repo           repositories.Repository
	eventPublisher events.EventPublisher
	logger         *slog.Logger
}

func NewNotificationEventService(
	repo repositories.Repository,
	eventPublisher events.EventPublisher,
	logger *slog.Logger,
) NotificationEventService {
	return &notificationEventService{
		repo:           repo,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// ===== EXAM LIFECYCLE NOTIFICATIONS =====

func (s *notificationEventService) NotifyExamPublished(ctx context.Context, exam *models.Exam) error {
	s.logger.Info("Publishing exam published event", "exam_id", exam.ID)

	studentIDs, err := s.repo.Enrollment().GetEnrolledStudentIDs(ctx, exam.CourseID)
	if err != nil {
		return fmt.Errorf("failed to get enrolled students: %w", err)
	}

	event := events.NewExamPublishedEvent(events.ExamPublishedEvent{
		ExamID:     exam.ID,
		ExamTitle:  exam.Title,
		CourseID:   exam.CourseID,
		Duration:   exam.Duration,
		DueDate:    exam.AvailableUntil,
		StudentIDs: studentIDs,
		CreatorID:  exam.CreatedBy,
	})

	return s.eventPublisher.PublishNotificationEvent(ctx, event)
}

func (s *notificationEventService) NotifyExamReviewed(ctx context.Context, exam *models.Exam, reviewerID string, approved bool, comments *string) error {
	s.logger.Info("Publishing exam reviewed event",
		"exam_id", exam.ID,
		"approved", approved)

	event := events.NewExamReviewedEvent(events.ExamReviewedEvent{
		ExamID:     exam.ID,
		ExamTitle:  exam.Title,
		AuthorID:   exam.CreatedBy,
		ReviewerID: reviewerID,
		Approved:   approved,
		Comments:   comments,
	})

	return s.eventPublisher.PublishNotificationEvent(ctx, event)
}

// ===== ATTEMPT NOTIFICATIONS =====

func (s *notificationEventService) NotifyAttemptSubmitted(ctx context.Context, attempt *models.ExamAttempt, examTitle, creatorID string, gradingRequired bool) error {
	s.logger.Info("Publishing attempt submitted event", "attempt_id", attempt.ID)

	event := events.NewAttemptSubmittedEvent(events.AttemptSubmittedEvent{
		AttemptID:       attempt.ID,
		ExamID:          attempt.ExamID,
		ExamTitle:       examTitle,
		StudentID:       attempt.StudentID,
		CreatorID:       creatorID,
		SubmittedAt:     derefTime(attempt.SubmittedAt),
		Method:          attempt.SubmissionMethod,
		Score:           attempt.TotalScore,
		GradingRequired: gradingRequired,
	})

	return s.eventPublisher.PublishNotificationEvent(ctx, event)
}

func (s *notificationEventService) NotifyViolationAlert(ctx context.Context, attempt *models.ExamAttempt, examTitle, creatorID string, violationTypes []string, terminated bool) error {
	s.logger.Info("Publishing violation alert event",
		"attempt_id", attempt.ID,
		"violation_count", attempt.ViolationCount,
		"terminated", terminated)

	event := events.NewViolationAlertEvent(events.ViolationAlertEvent{
		AttemptID:      attempt.ID,
		ExamID:         attempt.ExamID,
		ExamTitle:      examTitle,
		StudentID:      attempt.StudentID,
		CreatorID:      creatorID,
		ViolationTypes: violationTypes,
		ViolationCount: attempt.ViolationCount,
		Terminated:     terminated,
	})

	return s.eventPublisher.PublishNotificationEvent(ctx, event)
}

func (s *notificationEventService) NotifyResultsPublished(ctx context.Context, attempt *models.ExamAttempt, examTitle string) error {
	s.logger.Info("Publishing results published event", "attempt_id", attempt.ID)

	event := events.NewResultsPublishedEvent(events.ResultsPublishedEvent{
		AttemptID:       attempt.ID,
		ExamID:          attempt.ExamID,
		ExamTitle:       examTitle,
		StudentID:       attempt.StudentID,
		FinalScore:      derefFloat(attempt.FinalScore),
		FinalPercentage: derefInt(attempt.FinalPercentage),
		FinalPassed:     derefBool(attempt.FinalPassed),
		PublisherID:     derefString(attempt.PublishedBy),
	})

	return s.eventPublisher.PublishNotificationEvent(ctx, event)
}

// ===== RE-ATTEMPT NOTIFICATIONS =====

func (s *notificationEventService) NotifyReAttemptRequested(ctx context.Context, request *models.ReAttemptRequest, examTitle string) error {
	s.logger.Info("Publishing re-attempt requested event", "request_id", request.ID)

	event := events.NewReAttemptRequestedEvent(events.ReAttemptRequestedEvent{
		RequestID:     request.ID,
		ExamID:        request.ExamID,
		ExamTitle:     examTitle,
		StudentID:     request.StudentID,
		CreatorID:     request.ExamCreator,
		ViolationType: request.ViolationType,
		Message:       request.Message,
	})

	return s.eventPublisher.PublishNotificationEvent(ctx, event)
}

func (s *notificationEventService) NotifyReAttemptReviewed(ctx context.Context, request *models.ReAttemptRequest, examTitle string) error {
	s.logger.Info("Publishing re-attempt reviewed event",
		"request_id", request.ID,
		"status", request.Status)

	event := events.NewReAttemptReviewedEvent(events.ReAttemptReviewedEvent{
		RequestID:  request.ID,
		ExamID:     request.ExamID,
		ExamTitle:  examTitle,
		StudentID:  request.StudentID,
		ReviewerID: derefString(request.ReviewedBy),
		Approved:   request.Status == models.ReAttemptApproved,
		Response:   request.Response,
	})

	return s.eventPublisher.PublishNotificationEvent(ctx, event)
}
