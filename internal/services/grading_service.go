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

type gradingService struct {
	repo      repositories.TransactionRepository
	logger    *slog.Logger
	validator *validator.Validator
	notifier  NotificationEventService
}

func NewGradingService(
	repo repositories.TransactionRepository,
	logger *slog.Logger,
	v *validator.Validator,
	notifier NotificationEventService,
) GradingService {
	return &gradingService{
		repo:      repo,
		logger:    logger,
		validator: v,
		notifier:  notifier,
	}
}

// ===== MANUAL GRADING =====

// GradeAnswer records a manual score for one answer and recomputes the
// attempt's raw totals. Allowed only between submission and score
// publication.
func (s *gradingService) GradeAnswer(ctx context.Context, attemptID, questionID uint, req *GradeAnswerRequest, graderID string, graderRole models.UserRole) error {
	if err := s.validator.ValidateStruct(req); err != nil {
		return err
	}

	attempt, snapshot, err := s.getGradableAttempt(ctx, attemptID, graderID, graderRole, "grade_answer")
	if err != nil {
		return err
	}
	if attempt.Status != models.AttemptSubmitted {
		return ErrGradingNotAllowed
	}

	question, ok := snapshotQuestion(snapshot, questionID)
	if !ok {
		return ErrAnswerNotFound
	}
	if req.Score < 0 || req.Score > float64(question.Points) {
		return ErrInvalidScore
	}

	answer, err := s.repo.Attempt().GetAnswer(ctx, attemptID, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAnswerNotFound
		}
		return fmt.Errorf("failed to get answer: %w", err)
	}

	now := time.Now()
	score := req.Score
	correct := score >= float64(question.Points)
	answer.ManualScore = &score
	answer.Points = score
	answer.IsCorrect = &correct
	answer.Feedback = req.Feedback
	answer.GradedBy = &graderID
	answer.GradedAt = &now

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if err = tx.Attempt().UpdateAnswer(ctx, answer); err != nil {
		return fmt.Errorf("failed to store graded answer: %w", err)
	}

	answers, err := tx.Attempt().GetAnswers(ctx, attemptID)
	if err != nil {
		return fmt.Errorf("failed to load answers: %w", err)
	}
	for _, a := range answers {
		if a.QuestionID == questionID {
			*a = *answer
		}
	}

	totalScore := sumScore(answers)
	percentage := computePercentage(totalScore, snapshot.TotalPoints)
	passed := percentage >= snapshot.PassingScore
	gradingStatus := models.GradingFullyGraded
	for _, a := range answers {
		if !isGraded(a) {
			gradingStatus = models.GradingPartiallyGraded
			break
		}
	}

	attempt.TotalScore = totalScore
	attempt.Percentage = percentage
	attempt.Passed = passed
	attempt.GradingStatus = gradingStatus
	if err = tx.Attempt().Update(ctx, attempt); err != nil {
		return fmt.Errorf("failed to update attempt totals: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Answer graded manually",
		"attempt_id", attemptID,
		"question_id", questionID,
		"score", score,
		"grader_id", graderID,
		"grading_status", gradingStatus)

	return nil
}

// ===== SCORE PUBLICATION =====

// PublishScore finalizes the attempt's score and releases results to
// the student. FinalScore overrides the computed total when provided.
func (s *gradingService) PublishScore(ctx context.Context, attemptID uint, req *PublishScoreRequest, publisherID string, publisherRole models.UserRole) (*AttemptSummaryResponse, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	attempt, snapshot, err := s.getGradableAttempt(ctx, attemptID, publisherID, publisherRole, "publish_score")
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.AttemptSubmitted {
		return nil, ErrInvalidState
	}

	finalScore := attempt.TotalScore
	if req.FinalScore != nil {
		if *req.FinalScore < 0 || *req.FinalScore > float64(snapshot.TotalPoints) {
			return nil, ErrInvalidScore
		}
		finalScore = *req.FinalScore
	}

	now := time.Now()
	finalPercentage := computePercentage(finalScore, snapshot.TotalPoints)
	finalPassed := finalPercentage >= snapshot.PassingScore

	moved, err := s.repo.Attempt().TransitionStatus(ctx, attemptID, models.AttemptSubmitted, models.AttemptCompleted, map[string]interface{}{
		"final_score":      finalScore,
		"final_percentage": finalPercentage,
		"final_passed":     finalPassed,
		"score_published":  true,
		"published_at":     now,
		"published_by":     publisherID,
		"feedback":         req.Feedback,
		"grading_status":   models.GradingFullyGraded,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to publish score: %w", err)
	}
	if !moved {
		// A concurrent publication won.
		return nil, ErrInvalidState
	}

	attempt.Status = models.AttemptCompleted
	attempt.FinalScore = &finalScore
	attempt.FinalPercentage = &finalPercentage
	attempt.FinalPassed = &finalPassed
	attempt.ScorePublished = true
	attempt.PublishedAt = &now
	attempt.PublishedBy = &publisherID
	attempt.Feedback = req.Feedback
	attempt.GradingStatus = models.GradingFullyGraded

	s.logger.Info("Attempt score published",
		"attempt_id", attemptID,
		"final_score", finalScore,
		"final_percentage", finalPercentage,
		"final_passed", finalPassed,
		"publisher_id", publisherID)

	published := *attempt
	title := snapshot.Title
	go func() {
		bg, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.NotifyResultsPublished(bg, &published, title); err != nil {
			s.logger.Error("Failed to publish results event", "attempt_id", attemptID, "error", err)
		}
	}()

	summary := &AttemptSummaryResponse{
		AttemptID:        attempt.ID,
		ExamID:           attempt.ExamID,
		Status:           attempt.Status,
		SubmittedAt:      attempt.SubmittedAt,
		SubmissionMethod: attempt.SubmissionMethod,
		IsTimedOut:       attempt.IsTimedOut,
		GradingStatus:    attempt.GradingStatus,
		ScorePublished:   true,
		TotalScore:       &finalScore,
		Percentage:       &finalPercentage,
		Passed:           &finalPassed,
	}
	return summary, nil
}

// ===== RESULTS =====

// GetResults returns the detailed outcome of an attempt. Students see
// it only after publication; the exam author and admins see it anytime.
func (s *gradingService) GetResults(ctx context.Context, attemptID uint, userID string, role models.UserRole) (*AttemptResultsResponse, error) {
	attempt, err := s.repo.Attempt().GetByIDWithDetails(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	snapshot, err := parseSnapshot(attempt)
	if err != nil {
		return nil, err
	}

	switch {
	case role == models.RoleAdmin:
	case attempt.StudentID == userID:
		if !attempt.ScorePublished {
			return nil, ErrResultsNotPublished
		}
	default:
		exam, eerr := s.repo.Exam().GetByID(ctx, attempt.ExamID)
		if eerr != nil {
			return nil, fmt.Errorf("failed to get exam: %w", eerr)
		}
		if exam.CreatedBy != userID {
			return nil, NewPermissionError(userID, attemptID, "attempt", "get_results", "not the student or exam author")
		}
	}

	byQuestion := make(map[uint]models.AttemptAnswer, len(attempt.Answers))
	for _, a := range attempt.Answers {
		byQuestion[a.QuestionID] = a
	}

	results := make([]AnswerResult, 0, len(snapshot.Questions))
	for _, q := range snapshot.Questions {
		result := AnswerResult{
			QuestionID: q.QuestionID,
			Type:       q.Type,
			Text:       q.Text,
			MaxPoints:  q.Points,
		}
		if a, ok := byQuestion[q.QuestionID]; ok {
			result.SelectedOption = a.SelectedOption
			result.AnswerText = a.Text
			result.Points = a.Points
			result.IsCorrect = a.IsCorrect
			result.Feedback = a.Feedback
		}
		results = append(results, result)
	}

	response := &AttemptResultsResponse{
		AttemptID:      attempt.ID,
		ExamID:         attempt.ExamID,
		ExamTitle:      snapshot.Title,
		StudentID:      attempt.StudentID,
		Status:         attempt.Status,
		SubmittedAt:    attempt.SubmittedAt,
		TimeSpent:      attempt.TimeSpent,
		GradingStatus:  attempt.GradingStatus,
		ScorePublished: attempt.ScorePublished,
		Answers:        results,
	}
	if attempt.ScorePublished {
		response.FinalScore = attempt.FinalScore
		response.FinalPercentage = attempt.FinalPercentage
		response.FinalPassed = attempt.FinalPassed
		response.Feedback = attempt.Feedback
	}
	return response, nil
}

// getGradableAttempt loads an attempt and checks the caller may grade
// it. Admins and the exam author qualify.
func (s *gradingService) getGradableAttempt(ctx context.Context, attemptID uint, userID string, role models.UserRole, action string) (*models.ExamAttempt, *models.ExamSnapshot, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrAttemptNotFound
		}
		return nil, nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	if role != models.RoleAdmin {
		exam, eerr := s.repo.Exam().GetByID(ctx, attempt.ExamID)
		if eerr != nil {
			return nil, nil, fmt.Errorf("failed to get exam: %w", eerr)
		}
		if exam.CreatedBy != userID {
			return nil, nil, NewPermissionError(userID, attemptID, "attempt", action, "not the exam author")
		}
	}

	snapshot, err := parseSnapshot(attempt)
	if err != nil {
		return nil, nil, err
	}
	return attempt, snapshot, nil
}
