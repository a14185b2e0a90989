package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-edu/exam-service/internal/models"
)

func TestViolationService_RecordBelowThreshold(t *testing.T) {
	env := newTestEnv()
	violations := env.violations()
	ctx := context.Background()
	exam := env.seedPublishedExam("teacher-1", "student-1")

	started, err := env.attempts.Start(ctx, &StartAttemptRequest{ExamID: exam.ID}, "student-1")
	require.NoError(t, err)

	first, err := violations.Record(ctx, started.AttemptID, &RecordViolationRequest{Type: models.ViolationTabSwitch}, "student-1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.ViolationCount)
	assert.Equal(t, models.SeverityHigh, first.Severity)
	assert.False(t, first.Terminated)

	second, err := violations.Record(ctx, started.AttemptID, &RecordViolationRequest{Type: models.ViolationCopyPaste}, "student-1")
	require.NoError(t, err)
	assert.Equal(t, 2, second.ViolationCount)
	assert.Equal(t, models.SeverityMedium, second.Severity)
	assert.False(t, second.Terminated)

	attempt, _ := env.repo.Attempt().GetByID(ctx, started.AttemptID)
	assert.Equal(t, models.AttemptInProgress, attempt.Status)
}

func TestViolationService_ThirdViolationTerminates(t *testing.T) {
	env := newTestEnv()
	violations := env.violations()
	ctx := context.Background()
	exam := env.seedPublishedExam("teacher-1", "student-1")

	started, err := env.attempts.Start(ctx, &StartAttemptRequest{ExamID: exam.ID}, "student-1")
	require.NoError(t, err)
	mcqID := started.Questions[0].QuestionID

	// One answer saved before the termination; it must be scored.
	require.NoError(t, env.attempts.SaveAnswer(ctx, started.AttemptID, &SubmitAnswerInput{
		QuestionID: mcqID, SelectedOption: intPtr(1),
	}, "student-1"))

	for _, vt := range []models.ViolationType{models.ViolationTabSwitch, models.ViolationCopyPaste} {
		_, err := violations.Record(ctx, started.AttemptID, &RecordViolationRequest{Type: vt}, "student-1")
		require.NoError(t, err)
	}

	third, err := violations.Record(ctx, started.AttemptID, &RecordViolationRequest{Type: models.ViolationFullscreenExit}, "student-1")
	require.NoError(t, err)
	assert.Equal(t, 3, third.ViolationCount)
	assert.True(t, third.Terminated)

	attempt, err := env.repo.Attempt().GetByID(ctx, started.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptSubmitted, attempt.Status)
	assert.Equal(t, models.SubmissionAutoViolation, attempt.SubmissionMethod)
	assert.True(t, attempt.TerminatedDueToViolation)
	assert.Equal(t, models.GradingPartiallyGraded, attempt.GradingStatus)
	require.NotNil(t, attempt.EndReason)
	assert.Contains(t, *attempt.EndReason, "tab_switch")
	assert.Contains(t, *attempt.EndReason, "copy_paste")
	assert.Contains(t, *attempt.EndReason, "fullscreen_exit")

	// The saved answer was graded from the snapshot.
	assert.Equal(t, 10.0, attempt.TotalScore)

	// A fourth report hits a finalized attempt.
	_, err = violations.Record(ctx, started.AttemptID, &RecordViolationRequest{Type: models.ViolationTabSwitch}, "student-1")
	assert.ErrorIs(t, err, ErrInvalidState)
}

// A report that clears the ownership check while a concurrent submit
// finalizes the attempt must leave nothing behind on it.
func TestViolationService_ReportRacingSubmitLeavesNoTrace(t *testing.T) {
	env := newTestEnv()
	svc := env.violations().(*violationService)
	ctx := context.Background()
	exam := env.seedPublishedExam("teacher-1", "student-1")

	started, err := env.attempts.Start(ctx, &StartAttemptRequest{ExamID: exam.ID}, "student-1")
	require.NoError(t, err)
	_, err = env.attempts.Submit(ctx, &SubmitAttemptRequest{AttemptID: started.AttemptID}, "student-1")
	require.NoError(t, err)

	// The persistence step sees an attempt already finalized.
	_, err = svc.persistViolation(ctx, &models.AttemptViolation{
		AttemptID: started.AttemptID,
		Type:      models.ViolationTabSwitch,
		Severity:  models.SeverityFor(models.ViolationTabSwitch),
	})
	assert.ErrorIs(t, err, ErrInvalidState)

	stored, err := env.repo.Attempt().GetViolations(ctx, started.AttemptID)
	require.NoError(t, err)
	assert.Empty(t, stored)

	attempt, err := env.repo.Attempt().GetByID(ctx, started.AttemptID)
	require.NoError(t, err)
	assert.Zero(t, attempt.ViolationCount)
}

func TestViolationService_RejectsContactCreatorType(t *testing.T) {
	env := newTestEnv()
	violations := env.violations()
	ctx := context.Background()
	exam := env.seedPublishedExam("teacher-1", "student-1")

	started, err := env.attempts.Start(ctx, &StartAttemptRequest{ExamID: exam.ID}, "student-1")
	require.NoError(t, err)

	_, err = violations.Record(ctx, started.AttemptID, &RecordViolationRequest{Type: models.ViolationContactCreator}, "student-1")
	assert.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestViolationService_List(t *testing.T) {
	env := newTestEnv()
	violations := env.violations()
	ctx := context.Background()
	exam := env.seedPublishedExam("teacher-1", "student-1")

	started, err := env.attempts.Start(ctx, &StartAttemptRequest{ExamID: exam.ID}, "student-1")
	require.NoError(t, err)
	_, err = violations.Record(ctx, started.AttemptID, &RecordViolationRequest{Type: models.ViolationTabSwitch}, "student-1")
	require.NoError(t, err)

	// Owner, exam author and admin may read; other teachers may not.
	for _, tc := range []struct {
		userID string
		role   models.UserRole
	}{
		{"student-1", models.RoleStudent},
		{"teacher-1", models.RoleTeacher},
		{"someone", models.RoleAdmin},
	} {
		listed, err := violations.List(ctx, started.AttemptID, tc.userID, tc.role)
		require.NoError(t, err)
		assert.Len(t, listed, 1)
	}

	_, err = violations.List(ctx, started.AttemptID, "teacher-2", models.RoleTeacher)
	var pe *PermissionError
	assert.ErrorAs(t, err, &pe)
}
