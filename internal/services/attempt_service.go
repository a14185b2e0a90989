package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumina-edu/exam-service/internal/models"
	"github.com/lumina-edu/exam-service/internal/repositories"
	"github.com/lumina-edu/exam-service/internal/validator"
)

type attemptService struct {
	repo        repositories.TransactionRepository
	logger      *slog.Logger
	oplog       *ServiceLogger
	validator   *validator.Validator
	notifier    NotificationEventService
	examService ExamService
}

func NewAttemptService(
	repo repositories.TransactionRepository,
	logger *slog.Logger,
	v *validator.Validator,
	notifier NotificationEventService,
	examService ExamService,
) *attemptService {
	return &attemptService{
		repo:        repo,
		logger:      logger,
		oplog:       NewServiceLogger(logger, LogConfig{Service: "exam-service", Component: "attempts"}),
		validator:   v,
		notifier:    notifier,
		examService: examService,
	}
}

// ===== START =====

func (s *attemptService) Start(ctx context.Context, req *StartAttemptRequest, studentID string) (*AttemptResponse, error) {
	op := s.oplog.WithOperation(ctx, "start_attempt", studentID)
	resp, err := s.start(ctx, req, studentID)
	op.LogResult(req.ExamID, "exam", err)
	return resp, err
}

func (s *attemptService) start(ctx context.Context, req *StartAttemptRequest, studentID string) (*AttemptResponse, error) {
	s.logger.Info("Starting exam attempt",
		"exam_id", req.ExamID,
		"student_id", studentID)

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	exam, err := s.repo.Exam().GetByIDWithDetails(ctx, req.ExamID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	// Eligibility checks: availability, window, enrollment,
	// prior-attempt gate, active-attempt idempotency.
	if exam.Status != models.ExamApproved || !exam.IsPublished {
		return nil, ErrExamUnavailable
	}

	now := time.Now()
	if exam.AvailableFrom != nil && now.Before(*exam.AvailableFrom) {
		return nil, ErrExamNotInWindow
	}
	if exam.AvailableUntil != nil && now.After(*exam.AvailableUntil) {
		return nil, ErrExamNotInWindow
	}

	enrolled, err := s.repo.Enrollment().IsEnrolled(ctx, exam.CourseID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	// An existing in-progress attempt is returned as-is.
	if active, err := s.repo.Attempt().GetActiveAttempt(ctx, studentID, req.ExamID); err != nil {
		return nil, fmt.Errorf("failed to check active attempt: %w", err)
	} else if active != nil {
		return s.resumeAttempt(active)
	}

	priorCount, err := s.repo.Attempt().CountByStudentAndExam(ctx, studentID, req.ExamID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}

	// Past the base allowance, a new attempt needs an unused grant.
	var grant *models.ReAttemptRequest
	if priorCount >= int64(exam.MaxAttempts) {
		grant, err = s.repo.ReAttempt().GetUnusedGrant(ctx, studentID, req.ExamID)
		if err != nil {
			return nil, fmt.Errorf("failed to check re-attempt grant: %w", err)
		}
		if grant == nil {
			return nil, ErrAlreadyAttempted
		}
	}

	snapshot, err := buildSnapshot(exam)
	if err != nil {
		return nil, err
	}
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	attempt := &models.ExamAttempt{
		ExamID:        req.ExamID,
		StudentID:     studentID,
		AttemptNumber: int(priorCount) + 1,
		Status:        models.AttemptInProgress,
		Snapshot:      snapshotJSON,
		StartedAt:     now,
		GradingStatus: models.GradingPending,
	}

	if err := s.createAttempt(ctx, attempt, grant); err != nil {
		if repositories.IsDuplicateError(err) {
			// Lost the race against a concurrent start; hand back the
			// attempt that won.
			if active, aerr := s.repo.Attempt().GetActiveAttempt(ctx, studentID, req.ExamID); aerr == nil && active != nil {
				return s.resumeAttempt(active)
			}
			return nil, ErrAttemptInProgress
		}
		return nil, err
	}

	s.logger.Info("Exam attempt started",
		"attempt_id", attempt.ID,
		"exam_id", req.ExamID,
		"student_id", studentID,
		"attempt_number", attempt.AttemptNumber,
		"granted", grant != nil)

	return s.buildAttemptResponse(attempt, snapshot, false), nil
}

// createAttempt persists the attempt and, when a grant backs it,
// consumes the grant in the same transaction so a double-start cannot
// spend it twice.
func (s *attemptService) createAttempt(ctx context.Context, attempt *models.ExamAttempt, grant *models.ReAttemptRequest) error {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if err = tx.Attempt().Create(ctx, attempt); err != nil {
		return err
	}

	if grant != nil {
		consumed, cerr := tx.ReAttempt().ConsumeGrant(ctx, grant.ID, attempt.ID)
		if cerr != nil {
			err = fmt.Errorf("failed to consume re-attempt grant: %w", cerr)
			return err
		}
		if !consumed {
			err = ErrAlreadyAttempted
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ===== SAVE ANSWER =====

func (s *attemptService) SaveAnswer(ctx context.Context, attemptID uint, req *SubmitAnswerInput, studentID string) error {
	if err := s.validator.ValidateStruct(req); err != nil {
		return err
	}

	attempt, snapshot, err := s.getOwnedActiveAttempt(ctx, attemptID, studentID, "save_answer")
	if err != nil {
		return err
	}

	question, ok := snapshotQuestion(snapshot, req.QuestionID)
	if !ok {
		// Answers for unknown questions are dropped silently.
		s.logger.Warn("Dropping answer for unknown question",
			"attempt_id", attemptID,
			"question_id", req.QuestionID)
		return nil
	}

	return s.upsertAnswer(ctx, s.repo, attempt.ID, question, req)
}

// ===== SUBMIT =====

func (s *attemptService) Submit(ctx context.Context, req *SubmitAttemptRequest, studentID string) (*AttemptSummaryResponse, error) {
	op := s.oplog.WithOperation(ctx, "submit_attempt", studentID)
	summary, err := s.submit(ctx, req, studentID)
	op.LogResult(req.AttemptID, "attempt", err)
	return summary, err
}

func (s *attemptService) submit(ctx context.Context, req *SubmitAttemptRequest, studentID string) (*AttemptSummaryResponse, error) {
	s.logger.Info("Submitting exam attempt",
		"attempt_id", req.AttemptID,
		"student_id", studentID,
		"answers_count", len(req.Answers))

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	attempt, snapshot, err := s.getOwnedAttempt(ctx, req.AttemptID, studentID, "submit")
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, ErrInvalidState
	}

	now := time.Now()
	timeSpent := int(now.Sub(attempt.StartedAt).Seconds())
	timedOut := timeSpent > snapshot.Duration*60

	method := models.SubmissionManual
	if timedOut {
		// Late submissions still go through with whatever was answered.
		method = models.SubmissionAutoTimeout
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	// Fold the submitted answers over anything saved incrementally.
	for i := range req.Answers {
		answer := req.Answers[i]
		question, ok := snapshotQuestion(snapshot, answer.QuestionID)
		if !ok {
			continue
		}
		if err = s.upsertAnswer(ctx, tx, attempt.ID, question, &answer); err != nil {
			return nil, fmt.Errorf("failed to store answer for question %d: %w", answer.QuestionID, err)
		}
	}

	answers, err := s.finalizeAnswerSet(ctx, tx, attempt.ID, snapshot)
	if err != nil {
		return nil, err
	}

	gradingStatus := gradeAnswers(snapshot, answers)
	totalScore := sumScore(answers)
	percentage := computePercentage(totalScore, snapshot.TotalPoints)
	passed := percentage >= snapshot.PassingScore

	moved, err := tx.Attempt().TransitionStatus(ctx, attempt.ID, models.AttemptInProgress, models.AttemptSubmitted, map[string]interface{}{
		"submitted_at":      now,
		"time_spent":        timeSpent,
		"is_timed_out":      timedOut,
		"submission_method": method,
		"total_score":       totalScore,
		"percentage":        percentage,
		"passed":            passed,
		"grading_status":    gradingStatus,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to transition attempt: %w", err)
	}
	if !moved {
		// A concurrent submit or violation termination won.
		err = ErrInvalidState
		return nil, err
	}

	for _, answer := range answers {
		if err = tx.Attempt().UpdateAnswer(ctx, answer); err != nil {
			return nil, fmt.Errorf("failed to store graded answer: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	attempt.Status = models.AttemptSubmitted
	attempt.SubmittedAt = &now
	attempt.TimeSpent = timeSpent
	attempt.IsTimedOut = timedOut
	attempt.SubmissionMethod = method
	attempt.TotalScore = totalScore
	attempt.Percentage = percentage
	attempt.Passed = passed
	attempt.GradingStatus = gradingStatus

	s.logger.Info("Exam attempt submitted",
		"attempt_id", attempt.ID,
		"total_score", totalScore,
		"percentage", percentage,
		"grading_status", gradingStatus,
		"timed_out", timedOut)

	s.afterSubmission(attempt, snapshot)

	return s.buildSummary(attempt), nil
}

// ===== TIME REMAINING =====

func (s *attemptService) GetTimeRemaining(ctx context.Context, attemptID uint, studentID string) (*TimeRemainingResponse, error) {
	attempt, snapshot, err := s.getOwnedAttempt(ctx, attemptID, studentID, "get_time_remaining")
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, ErrInvalidState
	}

	deadline := attempt.StartedAt.Add(time.Duration(snapshot.Duration) * time.Minute)
	remaining := int(time.Until(deadline).Seconds())
	if remaining < 0 {
		remaining = 0
	}

	return &TimeRemainingResponse{
		AttemptID:     attemptID,
		TimeRemaining: remaining,
		Expired:       remaining == 0,
	}, nil
}

// ===== TIMEOUT =====

// HandleTimeout finalizes an expired in-progress attempt with whatever
// answers were saved. Invoked by the submit path's clients when the
// countdown lapses; safe to call on an already finalized attempt.
func (s *attemptService) HandleTimeout(ctx context.Context, attemptID uint) error {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAttemptNotFound
		}
		return fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.Status != models.AttemptInProgress {
		return nil
	}

	snapshot, err := parseSnapshot(attempt)
	if err != nil {
		return err
	}

	deadline := attempt.StartedAt.Add(time.Duration(snapshot.Duration) * time.Minute)
	if time.Now().Before(deadline) {
		return nil
	}

	_, err = s.finalize(ctx, attempt, snapshot, models.SubmissionAutoTimeout, strPtr("time limit exceeded"))
	return err
}

// ===== LIST =====

func (s *attemptService) List(ctx context.Context, filters repositories.AttemptFilters, userID string, role models.UserRole) ([]*models.ExamAttempt, int64, error) {
	switch role {
	case models.RoleStudent:
		filters.StudentID = &userID
	case models.RoleTeacher:
		// Teachers list attempts per exam they authored.
		if filters.ExamID == nil {
			return nil, 0, NewValidationError("exam_id", "is required for instructor listings", nil)
		}
		exam, err := s.repo.Exam().GetByID(ctx, *filters.ExamID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, 0, ErrExamNotFound
			}
			return nil, 0, fmt.Errorf("failed to get exam: %w", err)
		}
		if exam.CreatedBy != userID {
			return nil, 0, NewPermissionError(userID, exam.ID, "exam", "list_attempts", "not the exam author")
		}
	}

	attempts, total, err := s.repo.Attempt().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, total, nil
}
