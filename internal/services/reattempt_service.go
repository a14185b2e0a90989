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

type reAttemptService struct {
	repo      repositories.TransactionRepository
	logger    *slog.Logger
	validator *validator.Validator
	notifier  NotificationEventService
}

func NewReAttemptService(
	repo repositories.TransactionRepository,
	logger *slog.Logger,
	v *validator.Validator,
	notifier NotificationEventService,
) ReAttemptService {
	return &reAttemptService{
		repo:      repo,
		logger:    logger,
		validator: v,
		notifier:  notifier,
	}
}

// ===== REQUEST =====

// Request files a plea for one extra attempt, addressed to the exam
// creator. Requests referencing an attempt are deduplicated per
// attempt; contact_creator requests allow one pending at a time.
func (s *reAttemptService) Request(ctx context.Context, req *ReAttemptRequestInput, studentID string) (*models.ReAttemptRequest, error) {
	s.logger.Info("Filing re-attempt request",
		"exam_id", req.ExamID,
		"student_id", studentID,
		"violation_type", req.ViolationType)

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	exam, err := s.repo.Exam().GetByID(ctx, req.ExamID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	enrolled, err := s.repo.Enrollment().IsEnrolled(ctx, exam.CourseID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	if req.OriginalAttemptID != nil {
		attempt, err := s.repo.Attempt().GetByID(ctx, *req.OriginalAttemptID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrAttemptNotFound
			}
			return nil, fmt.Errorf("failed to get attempt: %w", err)
		}
		if attempt.StudentID != studentID {
			return nil, NewPermissionError(studentID, attempt.ID, "attempt", "request_reattempt", "not owned by student")
		}
		if attempt.ExamID != req.ExamID {
			return nil, NewValidationError("original_attempt_id", "does not belong to the given exam", *req.OriginalAttemptID)
		}
	} else {
		if req.ViolationType != models.ViolationContactCreator {
			return nil, NewValidationError("original_attempt_id", "is required unless contacting the creator", nil)
		}
		pending, err := s.repo.ReAttempt().HasPendingRequest(ctx, studentID, req.ExamID)
		if err != nil {
			return nil, fmt.Errorf("failed to check pending requests: %w", err)
		}
		if pending {
			return nil, ErrDuplicateRequest
		}
	}

	request := &models.ReAttemptRequest{
		StudentID:         studentID,
		ExamID:            req.ExamID,
		CourseID:          exam.CourseID,
		ExamCreator:       exam.CreatedBy,
		OriginalAttemptID: req.OriginalAttemptID,
		ViolationType:     req.ViolationType,
		ViolationDetails:  req.ViolationDetails,
		Message:           req.Message,
		Status:            models.ReAttemptPending,
	}

	if err := s.repo.ReAttempt().Create(ctx, request); err != nil {
		if repositories.IsDuplicateError(err) {
			// One request per originating attempt.
			return nil, ErrDuplicateRequest
		}
		return nil, fmt.Errorf("failed to create re-attempt request: %w", err)
	}

	s.logger.Info("Re-attempt request filed",
		"request_id", request.ID,
		"exam_id", req.ExamID,
		"student_id", studentID)

	filed := *request
	title := exam.Title
	go func() {
		bg, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.NotifyReAttemptRequested(bg, &filed, title); err != nil {
			s.logger.Error("Failed to publish re-attempt requested event", "request_id", filed.ID, "error", err)
		}
	}()

	return request, nil
}

// ===== REVIEW =====

// Review decides a pending request. Approval mints a single-use grant;
// rejection requires an explanation for the student.
func (s *reAttemptService) Review(ctx context.Context, requestID uint, req *ReviewReAttemptRequest, reviewerID string) (*models.ReAttemptRequest, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	request, err := s.repo.ReAttempt().GetByID(ctx, requestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get re-attempt request: %w", err)
	}

	if request.ExamCreator != reviewerID {
		return nil, NewPermissionError(reviewerID, requestID, "reattempt_request", "review", "not the exam author")
	}
	if request.Status != models.ReAttemptPending {
		return nil, ErrAlreadyReviewed
	}
	if !req.Approved && (req.Response == nil || *req.Response == "") {
		return nil, ErrResponseRequired
	}

	now := time.Now()
	updates := map[string]interface{}{
		"response":    req.Response,
		"reviewed_by": reviewerID,
		"reviewed_at": now,
	}

	decision := models.ReAttemptRejected
	if req.Approved {
		decision = models.ReAttemptApproved
		updates["new_attempt_granted"] = true
	}

	moved, err := s.repo.ReAttempt().TransitionStatus(ctx, requestID, models.ReAttemptPending, decision, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to review re-attempt request: %w", err)
	}
	if !moved {
		return nil, ErrAlreadyReviewed
	}

	request.Status = decision
	request.Response = req.Response
	request.ReviewedBy = &reviewerID
	request.ReviewedAt = &now
	request.NewAttemptGranted = req.Approved

	s.logger.Info("Re-attempt request reviewed",
		"request_id", requestID,
		"reviewer_id", reviewerID,
		"approved", req.Approved)

	reviewed := *request
	go func() {
		bg, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		examTitle := ""
		if exam, err := s.repo.Exam().GetByID(bg, reviewed.ExamID); err == nil {
			examTitle = exam.Title
		}
		if err := s.notifier.NotifyReAttemptReviewed(bg, &reviewed, examTitle); err != nil {
			s.logger.Error("Failed to publish re-attempt reviewed event", "request_id", reviewed.ID, "error", err)
		}
	}()

	return request, nil
}

// ===== LISTING =====

func (s *reAttemptService) ListPending(ctx context.Context, creatorID string) ([]*models.ReAttemptRequest, error) {
	requests, err := s.repo.ReAttempt().GetPendingByCreator(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending re-attempt requests: %w", err)
	}
	return requests, nil
}
