package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/lumina-edu/exam-service/internal/models"
	"github.com/lumina-edu/exam-service/internal/repositories"
)

// ===== SNAPSHOT CONSTRUCTION =====

// buildSnapshot freezes the exam content into an immutable copy. Later
// edits to the exam must never reach grading.
func buildSnapshot(exam *models.Exam) (*models.ExamSnapshot, error) {
	questions := make([]models.ExamQuestion, len(exam.Questions))
	copy(questions, exam.Questions)

	if exam.Settings.ShuffleQuestions {
		rand.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}

	if exam.QuestionsPerAttempt != nil && *exam.QuestionsPerAttempt < len(questions) {
		if !exam.Settings.ShuffleQuestions {
			// Sampling without shuffling still picks a random subset,
			// then restores authored order.
			rand.Shuffle(len(questions), func(i, j int) {
				questions[i], questions[j] = questions[j], questions[i]
			})
			questions = questions[:*exam.QuestionsPerAttempt]
			sort.Slice(questions, func(i, j int) bool {
				return questions[i].Position < questions[j].Position
			})
		} else {
			questions = questions[:*exam.QuestionsPerAttempt]
		}
	}

	snapshot := &models.ExamSnapshot{
		ExamID:       exam.ID,
		Title:        exam.Title,
		Duration:     exam.Duration,
		PassingScore: exam.PassingScore,
	}

	totalPoints := 0
	for i, q := range questions {
		sq := models.SnapshotQuestion{
			QuestionID:    q.ID,
			Position:      i + 1,
			Type:          q.Type,
			Text:          q.Text,
			Points:        q.Points,
			CorrectAnswer: q.CorrectAnswer,
			WordLimit:     q.WordLimit,
		}

		if q.Type == models.QuestionMCQ {
			var options []models.QuestionOption
			if err := json.Unmarshal(q.Options, &options); err != nil {
				return nil, fmt.Errorf("failed to decode options for question %d: %w", q.ID, err)
			}
			if exam.Settings.ShuffleOptions {
				rand.Shuffle(len(options), func(i, j int) {
					options[i], options[j] = options[j], options[i]
				})
			}
			sq.Options = options
		}

		totalPoints += q.Points
		snapshot.Questions = append(snapshot.Questions, sq)
	}
	snapshot.TotalPoints = totalPoints

	return snapshot, nil
}

func parseSnapshot(attempt *models.ExamAttempt) (*models.ExamSnapshot, error) {
	var snapshot models.ExamSnapshot
	if err := json.Unmarshal(attempt.Snapshot, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode attempt snapshot: %w", err)
	}
	return &snapshot, nil
}

func snapshotQuestion(snapshot *models.ExamSnapshot, questionID uint) (models.SnapshotQuestion, bool) {
	for _, q := range snapshot.Questions {
		if q.QuestionID == questionID {
			return q, true
		}
	}
	return models.SnapshotQuestion{}, false
}

// ===== ACCESS HELPERS =====

func (s *attemptService) getOwnedAttempt(ctx context.Context, attemptID uint, studentID, action string) (*models.ExamAttempt, *models.ExamSnapshot, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrAttemptNotFound
		}
		return nil, nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	if attempt.StudentID != studentID {
		return nil, nil, NewPermissionError(studentID, attemptID, "attempt", action, "not owned by student")
	}

	snapshot, err := parseSnapshot(attempt)
	if err != nil {
		return nil, nil, err
	}
	return attempt, snapshot, nil
}

func (s *attemptService) getOwnedActiveAttempt(ctx context.Context, attemptID uint, studentID, action string) (*models.ExamAttempt, *models.ExamSnapshot, error) {
	attempt, snapshot, err := s.getOwnedAttempt(ctx, attemptID, studentID, action)
	if err != nil {
		return nil, nil, err
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, nil, ErrInvalidState
	}
	return attempt, snapshot, nil
}

// ===== ANSWER PERSISTENCE =====

// upsertAnswer stores one answer's content, ungraded. Grading happens
// at finalization from the snapshot.
func (s *attemptService) upsertAnswer(ctx context.Context, repo repositories.Repository, attemptID uint, question models.SnapshotQuestion, input *SubmitAnswerInput) error {
	answer, err := repo.Attempt().GetAnswer(ctx, attemptID, question.QuestionID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to get existing answer: %w", err)
		}
		answer = &models.AttemptAnswer{
			AttemptID:  attemptID,
			QuestionID: question.QuestionID,
			MaxPoints:  question.Points,
		}
	}

	answer.SelectedOption = input.SelectedOption
	answer.Text = input.Text

	if answer.ID == 0 {
		return repo.Attempt().CreateAnswers(ctx, []*models.AttemptAnswer{answer})
	}
	return repo.Attempt().UpdateAnswer(ctx, answer)
}

// finalizeAnswerSet ensures every snapshot question has an answer row,
// creating empty ones for unanswered questions, and returns the full
// set.
func (s *attemptService) finalizeAnswerSet(ctx context.Context, repo repositories.Repository, attemptID uint, snapshot *models.ExamSnapshot) ([]*models.AttemptAnswer, error) {
	existing, err := repo.Attempt().GetAnswers(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}

	byQuestion := make(map[uint]*models.AttemptAnswer, len(existing))
	for _, answer := range existing {
		byQuestion[answer.QuestionID] = answer
	}

	var missing []*models.AttemptAnswer
	for _, q := range snapshot.Questions {
		if _, ok := byQuestion[q.QuestionID]; ok {
			continue
		}
		blank := &models.AttemptAnswer{
			AttemptID:  attemptID,
			QuestionID: q.QuestionID,
			MaxPoints:  q.Points,
		}
		missing = append(missing, blank)
		byQuestion[q.QuestionID] = blank
	}
	if len(missing) > 0 {
		if err := repo.Attempt().CreateAnswers(ctx, missing); err != nil {
			return nil, fmt.Errorf("failed to create blank answers: %w", err)
		}
	}

	answers := make([]*models.AttemptAnswer, 0, len(snapshot.Questions))
	for _, q := range snapshot.Questions {
		answers = append(answers, byQuestion[q.QuestionID])
	}
	return answers, nil
}

// ===== FINALIZATION (timeout and violation paths) =====

// finalize force-submits an in-progress attempt with whatever answers
// were saved. forceGradingStatus overrides the derived status when the
// caller requires review regardless of auto-grading coverage.
func (s *attemptService) finalize(ctx context.Context, attempt *models.ExamAttempt, snapshot *models.ExamSnapshot, method models.SubmissionMethod, endReason *string) (*models.ExamAttempt, error) {
	now := time.Now()
	timeSpent := int(now.Sub(attempt.StartedAt).Seconds())

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	answers, err := s.finalizeAnswerSet(ctx, tx, attempt.ID, snapshot)
	if err != nil {
		return nil, err
	}

	gradingStatus := gradeAnswers(snapshot, answers)
	totalScore := sumScore(answers)
	percentage := computePercentage(totalScore, snapshot.TotalPoints)
	passed := percentage >= snapshot.PassingScore

	updates := map[string]interface{}{
		"submitted_at":      now,
		"time_spent":        timeSpent,
		"submission_method": method,
		"total_score":       totalScore,
		"percentage":        percentage,
		"passed":            passed,
		"grading_status":    gradingStatus,
		"end_reason":        endReason,
	}
	switch method {
	case models.SubmissionAutoTimeout:
		updates["is_timed_out"] = true
	case models.SubmissionAutoViolation:
		// Terminated attempts always go through instructor review.
		gradingStatus = models.GradingPartiallyGraded
		updates["grading_status"] = gradingStatus
		updates["terminated_due_to_violation"] = true
	}

	moved, err := tx.Attempt().TransitionStatus(ctx, attempt.ID, models.AttemptInProgress, models.AttemptSubmitted, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to transition attempt: %w", err)
	}
	if !moved {
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
	attempt.SubmissionMethod = method
	attempt.IsTimedOut = attempt.IsTimedOut || method == models.SubmissionAutoTimeout
	attempt.TerminatedDueToViolation = attempt.TerminatedDueToViolation || method == models.SubmissionAutoViolation
	attempt.TotalScore = totalScore
	attempt.Percentage = percentage
	attempt.Passed = passed
	attempt.GradingStatus = gradingStatus
	attempt.EndReason = endReason

	s.logger.Info("Exam attempt finalized",
		"attempt_id", attempt.ID,
		"method", method,
		"total_score", totalScore)

	s.afterSubmission(attempt, snapshot)

	return attempt, nil
}

// afterSubmission runs the non-fatal post-submit work: statistics
// recompute and the submission-review event, both fire-and-forget.
func (s *attemptService) afterSubmission(attempt *models.ExamAttempt, snapshot *models.ExamSnapshot) {
	attemptID := attempt.ID
	examID := attempt.ExamID
	submitted := *attempt

	go func() {
		bg, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := s.examService.RecomputeStats(bg, examID); err != nil {
			s.logger.Error("Failed to recompute exam stats", "exam_id", examID, "error", err)
		}

		exam, err := s.repo.Exam().GetByID(bg, examID)
		if err != nil {
			s.logger.Error("Failed to load exam for submission event", "exam_id", examID, "error", err)
			return
		}

		gradingRequired := submitted.GradingStatus == models.GradingPartiallyGraded
		if err := s.notifier.NotifyAttemptSubmitted(bg, &submitted, snapshot.Title, exam.CreatedBy, gradingRequired); err != nil {
			s.logger.Error("Failed to publish submission event", "attempt_id", attemptID, "error", err)
		}
	}()
}

// ===== RESPONSE BUILDING =====

func (s *attemptService) resumeAttempt(attempt *models.ExamAttempt) (*AttemptResponse, error) {
	snapshot, err := parseSnapshot(attempt)
	if err != nil {
		return nil, err
	}
	return s.buildAttemptResponse(attempt, snapshot, true), nil
}

func (s *attemptService) buildAttemptResponse(attempt *models.ExamAttempt, snapshot *models.ExamSnapshot, resumed bool) *AttemptResponse {
	deadline := attempt.StartedAt.Add(time.Duration(snapshot.Duration) * time.Minute)
	remaining := int(time.Until(deadline).Seconds())
	if remaining < 0 {
		remaining = 0
	}

	questions := make([]models.RedactedQuestion, len(snapshot.Questions))
	for i, q := range snapshot.Questions {
		questions[i] = q.Redact()
	}

	return &AttemptResponse{
		AttemptID:     attempt.ID,
		ExamID:        attempt.ExamID,
		ExamTitle:     snapshot.Title,
		AttemptNumber: attempt.AttemptNumber,
		Status:        attempt.Status,
		StartedAt:     attempt.StartedAt,
		Duration:      snapshot.Duration,
		TimeRemaining: remaining,
		Questions:     questions,
		Resumed:       resumed,
	}
}

func (s *attemptService) buildSummary(attempt *models.ExamAttempt) *AttemptSummaryResponse {
	summary := &AttemptSummaryResponse{
		AttemptID:          attempt.ID,
		ExamID:             attempt.ExamID,
		Status:             attempt.Status,
		SubmittedAt:        attempt.SubmittedAt,
		SubmissionMethod:   attempt.SubmissionMethod,
		IsTimedOut:         attempt.IsTimedOut,
		GradingStatus:      attempt.GradingStatus,
		ScorePublished:     attempt.ScorePublished,
		NeedsManualGrading: attempt.GradingStatus == models.GradingPartiallyGraded,
	}

	// Raw scores are visible on the submission acknowledgement; the
	// published final* values flow through getResults only.
	score := attempt.TotalScore
	pct := attempt.Percentage
	passed := attempt.Passed
	summary.TotalScore = &score
	summary.Percentage = &pct
	summary.Passed = &passed

	return summary
}

// violationReason joins the recorded violation types into the
// free-text termination reason.
func violationReason(violations []*models.AttemptViolation) string {
	types := make([]string, len(violations))
	for i, v := range violations {
		types[i] = string(v.Type)
	}
	return "terminated after repeated violations: " + strings.Join(types, ", ")
}
