package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/lumina-edu/exam-service/internal/cache"
	"github.com/lumina-edu/exam-service/internal/models"
	"github.com/lumina-edu/exam-service/internal/repositories"
	"github.com/lumina-edu/exam-service/internal/validator"
)

const examCacheTTL = 10 * time.Minute

type examService struct {
	repo      repositories.TransactionRepository
	cache     cache.CacheService
	logger    *slog.Logger
	validator *validator.Validator
	notifier  NotificationEventService
}

func NewExamService(
	repo repositories.TransactionRepository,
	cacheService cache.CacheService,
	logger *slog.Logger,
	v *validator.Validator,
	notifier NotificationEventService,
) ExamService {
	return &examService{
		repo:      repo,
		cache:     cacheService,
		logger:    logger,
		validator: v,
		notifier:  notifier,
	}
}

// ===== CREATE =====

func (s *examService) Create(ctx context.Context, req *CreateExamRequest, creatorID string, creatorRole models.UserRole) (*ExamResponse, error) {
	s.logger.Info("Creating exam",
		"course_id", req.CourseID,
		"creator_id", creatorID,
		"question_count", len(req.Questions))

	if creatorRole != models.RoleTeacher && creatorRole != models.RoleAdmin {
		return nil, NewPermissionError(creatorID, req.CourseID, "course", "create_exam", "only teachers and admins can author exams")
	}

	// Validate request
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := s.validateQuestionContent(req); err != nil {
		return nil, err
	}
	if req.AvailableFrom != nil && req.AvailableUntil != nil && !req.AvailableUntil.After(*req.AvailableFrom) {
		return nil, NewValidationError("available_until", "must be after available_from", req.AvailableUntil)
	}

	// Verify the course and its ownership
	course, err := s.repo.Enrollment().GetCourse(ctx, req.CourseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	if creatorRole == models.RoleTeacher && course.CreatedBy != creatorID {
		return nil, NewPermissionError(creatorID, req.CourseID, "course", "create_exam", "teacher does not own the course")
	}

	exam, err := s.buildExam(req, creatorID, creatorRole)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Exam().Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}

	s.logger.Info("Exam created",
		"exam_id", exam.ID,
		"status", exam.Status,
		"total_points", exam.TotalPoints)

	// Admin-authored exams go live immediately; notify enrolled students.
	if exam.IsPublished {
		s.notifyAsync(exam.ID, func(bg context.Context) error {
			return s.notifier.NotifyExamPublished(bg, exam)
		})
	}

	return s.buildExamResponse(exam, creatorID, creatorRole), nil
}

// buildExam assembles the persisted exam from the request. Teacher
// drafts enter review immediately; admin drafts skip it and publish.
func (s *examService) buildExam(req *CreateExamRequest, creatorID string, creatorRole models.UserRole) (*models.Exam, error) {
	exam := &models.Exam{
		CourseID:            req.CourseID,
		Title:               req.Title,
		Description:         req.Description,
		Duration:            req.Duration,
		PassingScore:        models.DefaultPassingScore,
		MaxAttempts:         1,
		QuestionsPerAttempt: req.QuestionsPerAttempt,
		AvailableFrom:       req.AvailableFrom,
		AvailableUntil:      req.AvailableUntil,
		CreatedBy:           creatorID,
		Status:              models.ExamPendingReview,
	}
	if req.PassingScore != nil {
		exam.PassingScore = *req.PassingScore
	}
	if req.MaxAttempts != nil {
		exam.MaxAttempts = *req.MaxAttempts
	}

	if creatorRole == models.RoleAdmin {
		now := time.Now()
		exam.Status = models.ExamApproved
		exam.IsPublished = true
		exam.PublishedAt = &now
		exam.PublishedBy = &creatorID
	}

	if req.Settings != nil {
		exam.Settings = models.ExamSettings{
			ShuffleQuestions:  req.Settings.ShuffleQuestions,
			ShuffleOptions:    req.Settings.ShuffleOptions,
			BlockCopyPaste:    req.Settings.BlockCopyPaste,
			BlockTabSwitch:    req.Settings.BlockTabSwitch,
			BlockRightClick:   req.Settings.BlockRightClick,
			RequireFullScreen: req.Settings.RequireFullScreen,
			RequireWebcam:     req.Settings.RequireWebcam,
		}
	}

	totalPoints := 0
	for i, q := range req.Questions {
		question := models.ExamQuestion{
			Position:      i + 1,
			Type:          q.Type,
			Text:          q.Text,
			Points:        q.Points,
			CorrectAnswer: q.CorrectAnswer,
			WordLimit:     q.WordLimit,
			Explanation:   q.Explanation,
		}
		if q.Type == models.QuestionMCQ {
			optionsJSON, err := json.Marshal(q.Options)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal options for question %d: %w", i+1, err)
			}
			question.Options = optionsJSON
		}
		totalPoints += q.Points
		exam.Questions = append(exam.Questions, question)
	}
	exam.TotalPoints = totalPoints

	return exam, nil
}

func (s *examService) validateQuestionContent(req *CreateExamRequest) error {
	contents := make([]validator.QuestionContent, len(req.Questions))
	for i, q := range req.Questions {
		contents[i] = validator.QuestionContent{
			Type:          q.Type,
			Text:          q.Text,
			Points:        q.Points,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			WordLimit:     q.WordLimit,
		}
	}
	if err := s.validator.Exam().ValidateQuestionSet(contents, req.QuestionsPerAttempt); err != nil {
		return NewValidationError("questions", err.Error(), nil)
	}
	return nil
}

// ===== READ =====

func (s *examService) GetByID(ctx context.Context, id uint, userID string, role models.UserRole) (*ExamResponse, error) {
	exam, err := s.getExamWithDetails(ctx, id)
	if err != nil {
		return nil, err
	}

	// Students only ever see published exams, and never the questions;
	// exam content reaches them through attempt snapshots.
	if role == models.RoleStudent {
		if !exam.IsPublished {
			return nil, ErrExamUnavailable
		}
		redacted := *exam
		redacted.Questions = nil
		return s.buildExamResponse(&redacted, userID, role), nil
	}

	if role == models.RoleTeacher && exam.CreatedBy != userID {
		return nil, NewPermissionError(userID, id, "exam", "read", "not the exam author")
	}

	return s.buildExamResponse(exam, userID, role), nil
}

func (s *examService) List(ctx context.Context, filters repositories.ExamFilters, userID string, role models.UserRole) ([]*ExamResponse, int64, error) {
	switch role {
	case models.RoleStudent:
		published := true
		filters.Published = &published
	case models.RoleTeacher:
		filters.CreatedBy = &userID
	}

	exams, total, err := s.repo.Exam().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list exams: %w", err)
	}

	responses := make([]*ExamResponse, len(exams))
	for i, exam := range exams {
		responses[i] = s.buildExamResponse(exam, userID, role)
	}
	return responses, total, nil
}

// ===== REVIEW WORKFLOW =====

func (s *examService) SubmitForReview(ctx context.Context, examID uint, userID string) error {
	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return err
	}
	if exam.CreatedBy != userID {
		return NewPermissionError(userID, examID, "exam", "submit_for_review", "not the exam author")
	}

	moved, err := s.repo.Exam().TransitionStatus(ctx, examID, models.ExamDraft, models.ExamPendingReview, nil)
	if err != nil {
		return fmt.Errorf("failed to submit exam for review: %w", err)
	}
	if !moved {
		return ErrInvalidTransition
	}

	s.invalidateExamCache(ctx, examID)
	return nil
}

func (s *examService) Review(ctx context.Context, examID uint, req *ReviewExamRequest, reviewerID string, reviewerRole models.UserRole) (*ExamResponse, error) {
	s.logger.Info("Reviewing exam",
		"exam_id", examID,
		"reviewer_id", reviewerID,
		"approved", req.Approved)

	if reviewerRole != models.RoleAdmin {
		return nil, NewPermissionError(reviewerID, examID, "exam", "review", "only admins review exams")
	}
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.CreatedBy == reviewerID {
		return nil, ErrSelfReview
	}
	if exam.Status != models.ExamPendingReview {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	updates := map[string]interface{}{
		"reviewed_by":     reviewerID,
		"reviewed_at":     now,
		"review_comments": req.Comments,
	}

	target := models.ExamRejected
	if req.Approved {
		// Publication is atomic with approval.
		target = models.ExamApproved
		updates["is_published"] = true
		updates["published_at"] = now
		updates["published_by"] = reviewerID
	}

	moved, err := s.repo.Exam().TransitionStatus(ctx, examID, models.ExamPendingReview, target, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to transition exam status: %w", err)
	}
	if !moved {
		// Another reviewer decided first.
		return nil, ErrInvalidTransition
	}

	s.invalidateExamCache(ctx, examID)

	updated, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	s.notifyAsync(examID, func(bg context.Context) error {
		return s.notifier.NotifyExamReviewed(bg, updated, reviewerID, req.Approved, req.Comments)
	})
	if req.Approved {
		s.notifyAsync(examID, func(bg context.Context) error {
			return s.notifier.NotifyExamPublished(bg, updated)
		})
	}

	return s.buildExamResponse(updated, reviewerID, reviewerRole), nil
}

func (s *examService) Publish(ctx context.Context, examID uint, userID string, role models.UserRole) (*ExamResponse, error) {
	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && exam.CreatedBy != userID {
		return nil, NewPermissionError(userID, examID, "exam", "publish", "not the exam author")
	}
	if exam.Status != models.ExamApproved {
		return nil, ErrInvalidTransition
	}
	if exam.IsPublished {
		// Already live; publishing again is a no-op.
		return s.buildExamResponse(exam, userID, role), nil
	}

	now := time.Now()
	moved, err := s.repo.Exam().TransitionStatus(ctx, examID, models.ExamApproved, models.ExamApproved, map[string]interface{}{
		"is_published": true,
		"published_at": now,
		"published_by": userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to publish exam: %w", err)
	}
	if !moved {
		return nil, ErrInvalidTransition
	}

	s.invalidateExamCache(ctx, examID)

	updated, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	s.notifyAsync(examID, func(bg context.Context) error {
		return s.notifier.NotifyExamPublished(bg, updated)
	})

	return s.buildExamResponse(updated, userID, role), nil
}

// ===== STATISTICS =====

func (s *examService) GetStats(ctx context.Context, examID uint, userID string, role models.UserRole) (*ExamStatsResponse, error) {
	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if role == models.RoleStudent || (role == models.RoleTeacher && exam.CreatedBy != userID) {
		return nil, NewPermissionError(userID, examID, "exam", "view_stats", "not the exam author")
	}

	var cached ExamStatsResponse
	if err := s.cache.Get(ctx, cache.ExamStatsKey(examID), &cached); err == nil {
		return &cached, nil
	}

	agg, err := s.repo.Exam().Aggregates(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute exam aggregates: %w", err)
	}

	stats := &ExamStatsResponse{
		ExamID:         examID,
		AttemptCount:   int(agg.AttemptCount),
		SubmittedCount: int(agg.SubmittedCount),
		AverageScore:   agg.AverageScore,
		PassRate:       passRate(agg),
	}

	if err := s.cache.Set(ctx, cache.ExamStatsKey(examID), stats, examCacheTTL); err != nil {
		s.logger.Warn("Failed to cache exam stats", "exam_id", examID, "error", err)
	}

	return stats, nil
}

// RecomputeStats rebuilds the denormalized statistics columns from the
// attempts table. Idempotent; safe to call concurrently and from
// background goroutines after each submission.
func (s *examService) RecomputeStats(ctx context.Context, examID uint) error {
	agg, err := s.repo.Exam().Aggregates(ctx, examID)
	if err != nil {
		return fmt.Errorf("failed to compute exam aggregates: %w", err)
	}

	if err := s.repo.Exam().UpdateStats(ctx, examID, int(agg.AttemptCount), agg.AverageScore, passRate(agg)); err != nil {
		return fmt.Errorf("failed to update exam stats: %w", err)
	}

	if err := s.cache.Delete(ctx, cache.ExamStatsKey(examID)); err != nil {
		s.logger.Warn("Failed to invalidate stats cache", "exam_id", examID, "error", err)
	}
	return nil
}

func passRate(agg *repositories.ExamAggregates) float64 {
	if agg.SubmittedCount == 0 {
		return 0
	}
	return math.Round(float64(agg.PassedCount)/float64(agg.SubmittedCount)*10000) / 100
}

// ===== HELPERS =====

func (s *examService) getExam(ctx context.Context, id uint) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	return exam, nil
}

func (s *examService) getExamWithDetails(ctx context.Context, id uint) (*models.Exam, error) {
	var cached models.Exam
	if err := s.cache.Get(ctx, cache.ExamKey(id), &cached); err == nil {
		return &cached, nil
	}

	exam, err := s.repo.Exam().GetByIDWithDetails(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	// Only published exams are cached; review-in-flight content changes
	// status too often to be worth it.
	if exam.IsPublished {
		if err := s.cache.Set(ctx, cache.ExamKey(id), exam, examCacheTTL); err != nil {
			s.logger.Warn("Failed to cache exam", "exam_id", id, "error", err)
		}
	}

	return exam, nil
}

func (s *examService) invalidateExamCache(ctx context.Context, examID uint) {
	if err := s.cache.DeletePattern(ctx, fmt.Sprintf("exam:%d*", examID)); err != nil {
		s.logger.Warn("Failed to invalidate exam cache", "exam_id", examID, "error", err)
	}
}

func (s *examService) buildExamResponse(exam *models.Exam, userID string, role models.UserRole) *ExamResponse {
	return &ExamResponse{
		Exam:          exam,
		QuestionCount: len(exam.Questions),
		CanEdit:       exam.CreatedBy == userID && exam.Status == models.ExamDraft,
		CanReview:     role == models.RoleAdmin && exam.Status == models.ExamPendingReview && exam.CreatedBy != userID,
	}
}

// notifyAsync runs a notification emission in the background. Delivery
// failures are logged and swallowed; they never fail the transition
// that produced them.
func (s *examService) notifyAsync(examID uint, fn func(context.Context) error) {
	go func() {
		bg, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := fn(bg); err != nil {
			s.logger.Error("Failed to publish notification event", "exam_id", examID, "error", err)
		}
	}()
}
