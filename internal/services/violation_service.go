package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumina-edu/exam-service/internal/models"
	"github.com/lumina-edu/exam-service/internal/repositories"
	"github.com/lumina-edu/exam-service/internal/validator"
)

type violationService struct {
	repo      repositories.TransactionRepository
	logger    *slog.Logger
	validator *validator.Validator
	notifier  NotificationEventService
	attempts  *attemptService
}

func NewViolationService(
	repo repositories.TransactionRepository,
	logger *slog.Logger,
	v *validator.Validator,
	notifier NotificationEventService,
	attempts *attemptService,
) ViolationService {
	return &violationService{
		repo:      repo,
		logger:    logger,
		validator: v,
		notifier:  notifier,
		attempts:  attempts,
	}
}

// Record stores an anti-cheat violation against an in-progress attempt.
// Hitting the violation threshold force-submits the attempt with
// whatever answers were saved.
func (s *violationService) Record(ctx context.Context, attemptID uint, req *RecordViolationRequest, studentID string) (*ViolationResponse, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.Type == models.ViolationContactCreator {
		return nil, NewValidationError("type", "is not a recordable violation", req.Type)
	}

	attempt, snapshot, err := s.attempts.getOwnedActiveAttempt(ctx, attemptID, studentID, "record_violation")
	if err != nil {
		return nil, err
	}

	violation := &models.AttemptViolation{
		AttemptID: attemptID,
		Type:      req.Type,
		Detail:    req.Detail,
		Severity:  models.SeverityFor(req.Type),
	}
	count, err := s.persistViolation(ctx, violation)
	if err != nil {
		return nil, err
	}
	attempt.ViolationCount = count

	s.logger.Warn("Violation recorded",
		"attempt_id", attemptID,
		"student_id", studentID,
		"type", req.Type,
		"severity", violation.Severity,
		"violation_count", count)

	terminated := false
	if count >= models.ViolationThreshold {
		if err := s.terminate(ctx, attempt, snapshot); err != nil {
			return nil, err
		}
		terminated = true
	}

	return &ViolationResponse{
		ViolationID:    violation.ID,
		AttemptID:      attemptID,
		Type:           violation.Type,
		Severity:       violation.Severity,
		ViolationCount: count,
		Terminated:     terminated,
	}, nil
}

// persistViolation bumps the attempt's violation count and stores the
// violation row in one transaction. The count update only matches an
// in-progress attempt, so a report racing a concurrent submit leaves
// nothing behind on the finalized attempt.
func (s *violationService) persistViolation(ctx context.Context, violation *models.AttemptViolation) (int, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	count, err := tx.Attempt().IncrementViolationCount(ctx, violation.AttemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			// The attempt was finalized between the ownership check
			// and this write.
			err = ErrInvalidState
			return 0, err
		}
		err = fmt.Errorf("failed to increment violation count: %w", err)
		return 0, err
	}

	if err = tx.Attempt().CreateViolation(ctx, violation); err != nil {
		err = fmt.Errorf("failed to record violation: %w", err)
		return 0, err
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return count, nil
}

// terminate force-submits the attempt and raises the violation alert
// alongside the standard submission-review event.
func (s *violationService) terminate(ctx context.Context, attempt *models.ExamAttempt, snapshot *models.ExamSnapshot) error {
	violations, err := s.repo.Attempt().GetViolations(ctx, attempt.ID)
	if err != nil {
		return fmt.Errorf("failed to load violations: %w", err)
	}
	reason := violationReason(violations)

	finalized, err := s.attempts.finalize(ctx, attempt, snapshot, models.SubmissionAutoViolation, &reason)
	if err != nil {
		return err
	}

	s.logger.Warn("Attempt terminated after repeated violations",
		"attempt_id", finalized.ID,
		"student_id", finalized.StudentID,
		"violation_count", finalized.ViolationCount)

	types := make([]string, len(violations))
	for i, v := range violations {
		types[i] = string(v.Type)
	}
	terminated := *finalized

	go func() {
		bg, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		exam, err := s.repo.Exam().GetByID(bg, terminated.ExamID)
		if err != nil {
			s.logger.Error("Failed to load exam for violation alert", "exam_id", terminated.ExamID, "error", err)
			return
		}
		if err := s.notifier.NotifyViolationAlert(bg, &terminated, exam.Title, exam.CreatedBy, types, true); err != nil {
			s.logger.Error("Failed to publish violation alert", "attempt_id", terminated.ID, "error", err)
		}
	}()

	return nil
}

// List returns an attempt's violations to its owner or to the exam
// creator. Admins see everything.
func (s *violationService) List(ctx context.Context, attemptID uint, userID string, role models.UserRole) ([]*models.AttemptViolation, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	switch {
	case role == models.RoleAdmin:
	case attempt.StudentID == userID:
	default:
		exam, err := s.repo.Exam().GetByID(ctx, attempt.ExamID)
		if err != nil {
			return nil, fmt.Errorf("failed to get exam: %w", err)
		}
		if exam.CreatedBy != userID {
			return nil, NewPermissionError(userID, attemptID, "attempt", "list_violations", "not the student or exam author")
		}
	}

	violations, err := s.repo.Attempt().GetViolations(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}
	return violations, nil
}
