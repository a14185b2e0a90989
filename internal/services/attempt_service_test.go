package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-edu/exam-service/internal/models"
	"github.com/lumina-edu/exam-service/internal/repositories"
)

func TestAttemptService_StartEligibility(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	t.Run("unknown exam", func(t *testing.T) {
		_, err := env.attempts.Start(ctx, &StartAttemptRequest{ExamID: 999}, "student-1")
		assert.ErrorIs(t, err, ErrExamNotFound)
	})

	t.Run("unpublished exam", func(t *testing.T) {
		exam := env.seedPublishedExam("teacher-1", "student-1")
		stored, _ := env.repo.Exam().GetByID(ctx, exam.ID)
		stored.IsPublished = false
		require.NoError(t, env.repo.Exam().Update(ctx, stored))

		_, err := env.attempts.Start(ctx, &StartAttemptRequest{ExamID: exam.ID}, "student-1")
		assert.ErrorIs(t, err, ErrExamUnavailable)
	})

	t.Run("outside availability window", func(t *testing.T) {
		exam := env.seedPublishedExam("teacher-1", "student-2")
		stored, _ := env.repo.Exam().GetByID(ctx, exam.ID)
		past := time.Now().Add(-time.Hour)
		stored.AvailableUntil = &past
		require.NoError(t, env.repo.Exam().Update(ctx, stored))

		_, err := env.attempts.Start(ctx, &StartAttemptRequest{ExamID: exam.ID}, "student-2")
		assert.ErrorIs(t, err, ErrExamNotInWindow)
	})

	t.Run("not enrolled", func(t *testing.T) {
		exam := env.seedPublishedExam("teacher-1", "student-3")
		_, err := env.attempts.Start(ctx, &StartAttemptRequest{ExamID: exam.ID}, "stranger")
		assert.ErrorIs(t, err, ErrNotEnrolled)
	})
}

func TestAttemptService_StartRedactsQuestions(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	exam := env.seedExamWithQuestions("teacher-1", "student-1", []models.ExamQuestion{
		mcqQuestion(1, 10, 2),
		shortAnswerQuestion(2, 5, "mitochondria"),
	})

	started, err := env.attempts.Start(ctx, &StartAttemptRequest{ExamID: exam.ID}, "student-1")
	require.NoError(t, err)

	require.Len(t, started.Questions, 2)
	assert.Equal(t, []string{"red", "green", "blue"}, started.Questions[0].Options)
	assert.Equal(t, 60, started.Duration)
	assert.Greater(t, started.TimeRemaining, 0)
	assert.False(t, started.Resumed)
}

func TestAttemptService_StartIsIdempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	exam := env.seedPublishedExam("teacher-1", "student-1")

	first, err := env.attempts.Start(ctx, &StartAttemptRequest{ExamID: exam.ID}, "student-1")
	require.NoError(t, err)

	second, err := env.attempts.Start(ctx, &StartAttemptRequest{ExamID: exam.ID}, "student-1")
	require.NoError(t, err)

	assert.Equal(t, first.AttemptID, second.AttemptID)
	assert.True(t, second.Resumed)
}

// Concurrent starts race past the active-attempt check; the partial
// unique index decides the winner and every loser resumes that attempt.
func TestAttemptService_ConcurrentStartSharesOneAttempt(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	exam := env.seedPublishedExam("teacher-1", "student-1")

	const starters = 8
	results := make([]*AttemptResponse, starters)
	errs := make([]error, starters)

	var wg sync.WaitGroup
	wg.Add(starters)
	for i := 0; i < starters; i++ {
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.attempts.Start(ctx, &StartAttemptRequest{ExamID: exam.ID}, "student-1")
		}(i)
	}
	wg.Wait()

	ids := map[uint]bool{}
	for i := 0; i < starters; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		ids[results[i].AttemptID] = true
	}
	assert.Len(t, ids, 1)

	env.repo.mu.Lock()
	defer env.repo.mu.Unlock()
	active := 0
	for _, attempt := range env.repo.attempts {
		if attempt.ExamID == exam.ID && attempt.StudentID == "student-1" &&
			attempt.Status == models.AttemptInProgress {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestAttemptService_AttemptLimit(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	exam := env.seedPublishedExam("teacher-1", "student-1")

	started, err := env.attempts.Start(ctx, &StartAttemptRequest{ExamID: exam.ID}, "student-1")
	require.NoError(t, err)
	_, err = env.attempts.Submit(ctx, &SubmitAttemptRequest{AttemptID: started.AttemptID}, "student-1")
	require.NoError(t, err)

	_, err = env.attempts.Start(ctx, &StartAttemptRequest{ExamID: exam.ID}, "student-1")
	assert.ErrorIs(t, err, ErrAlreadyAttempted)
}

func TestAttemptService_SnapshotIsImmutable(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	exam := env.seedExamWithQuestions("teacher-1", "student-1", []models.ExamQuestion{
		mcqQuestion(1, 10, 1),
	})

	started, err := env.attempts.Start(ctx, &StartAttemptRequest{ExamID: exam.ID}, "student-1")
	require.NoError(t, err)
	mcqID := started.Questions[0].QuestionID

	// The exam changes after the attempt started; grading must not see it.
	stored, _ := env.repo.Exam().GetByID(ctx, exam.ID)
	stored.Questions[0].Options = []byte(`[{"text":"red","is_correct":true},{"text":"green","is_correct":false},{"text":"blue","is_correct":false}]`)
	require.NoError(t, env.repo.Exam().Update(ctx, stored))

	summary, err := env.attempts.Submit(ctx, &SubmitAttemptRequest{
		AttemptID: started.AttemptID,
		Answers:   []SubmitAnswerInput{{QuestionID: mcqID, SelectedOption: intPtr(1)}},
	}, "student-1")
	require.NoError(t, err)

	// Graded against the snapshot where option 1 is still correct.
	assert.Equal(t, 10.0, *summary.TotalScore)
}

func TestAttemptService_SubmitFoldsSavedAnswers(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	exam := env.seedPublishedExam("teacher-1", "student-1")

	started, err := env.attempts.Start(ctx, &StartAttemptRequest{ExamID: exam.ID}, "student-1")
	require.NoError(t, err)
	mcqID := started.Questions[0].QuestionID
	essayID := started.Questions[1].QuestionID

	// Saved incrementally during the attempt.
	err = env.attempts.SaveAnswer(ctx, started.AttemptID, &SubmitAnswerInput{QuestionID: mcqID, SelectedOption: intPtr(0)}, "student-1")
	require.NoError(t, err)
	err = env.attempts.SaveAnswer(ctx, started.AttemptID, &SubmitAnswerInput{QuestionID: essayID, Text: strPtr("draft essay")}, "student-1")
	require.NoError(t, err)

	// Unknown question IDs are dropped silently.
	err = env.attempts.SaveAnswer(ctx, started.AttemptID, &SubmitAnswerInput{QuestionID: 9999, Text: strPtr("noise")}, "student-1")
	require.NoError(t, err)

	// Final submission revises the mcq answer.
	summary, err := env.attempts.Submit(ctx, &SubmitAttemptRequest{
		AttemptID: started.AttemptID,
		Answers:   []SubmitAnswerInput{{QuestionID: mcqID, SelectedOption: intPtr(1)}},
	}, "student-1")
	require.NoError(t, err)

	assert.Equal(t, 10.0, *summary.TotalScore)
	assert.Equal(t, models.GradingPartiallyGraded, summary.GradingStatus)

	answers, err := env.repo.Attempt().GetAnswers(ctx, started.AttemptID)
	require.NoError(t, err)
	assert.Len(t, answers, 2)
}

func TestAttemptService_SubmitTwiceFails(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	exam := env.seedPublishedExam("teacher-1", "student-1")

	started, err := env.attempts.Start(ctx, &StartAttemptRequest{ExamID: exam.ID}, "student-1")
	require.NoError(t, err)

	_, err = env.attempts.Submit(ctx, &SubmitAttemptRequest{AttemptID: started.AttemptID}, "student-1")
	require.NoError(t, err)

	_, err = env.attempts.Submit(ctx, &SubmitAttemptRequest{AttemptID: started.AttemptID}, "student-1")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAttemptService_SubmitOwnership(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	exam := env.seedPublishedExam("teacher-1", "student-1")

	started, err := env.attempts.Start(ctx, &StartAttemptRequest{ExamID: exam.ID}, "student-1")
	require.NoError(t, err)

	_, err = env.attempts.Submit(ctx, &SubmitAttemptRequest{AttemptID: started.AttemptID}, "student-2")
	var pe *PermissionError
	assert.ErrorAs(t, err, &pe)
}

func TestAttemptService_LateSubmissionIsTimedOut(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	exam := env.seedPublishedExam("teacher-1", "student-1")

	started, err := env.attempts.Start(ctx, &StartAttemptRequest{ExamID: exam.ID}, "student-1")
	require.NoError(t, err)
	backdateAttempt(env, started.AttemptID, 2*time.Hour)

	summary, err := env.attempts.Submit(ctx, &SubmitAttemptRequest{AttemptID: started.AttemptID}, "student-1")
	require.NoError(t, err)
	assert.True(t, summary.IsTimedOut)
	assert.Equal(t, models.SubmissionAutoTimeout, summary.SubmissionMethod)
}

func TestAttemptService_HandleTimeout(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	exam := env.seedPublishedExam("teacher-1", "student-1")

	started, err := env.attempts.Start(ctx, &StartAttemptRequest{ExamID: exam.ID}, "student-1")
	require.NoError(t, err)

	// Not yet expired: no-op.
	require.NoError(t, env.attempts.HandleTimeout(ctx, started.AttemptID))
	attempt, _ := env.repo.Attempt().GetByID(ctx, started.AttemptID)
	assert.Equal(t, models.AttemptInProgress, attempt.Status)

	backdateAttempt(env, started.AttemptID, 2*time.Hour)
	require.NoError(t, env.attempts.HandleTimeout(ctx, started.AttemptID))

	attempt, _ = env.repo.Attempt().GetByID(ctx, started.AttemptID)
	assert.Equal(t, models.AttemptSubmitted, attempt.Status)
	assert.Equal(t, models.SubmissionAutoTimeout, attempt.SubmissionMethod)
	assert.True(t, attempt.IsTimedOut)

	// Already finalized: no-op again.
	require.NoError(t, env.attempts.HandleTimeout(ctx, started.AttemptID))
}

func TestAttemptService_GetTimeRemaining(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	exam := env.seedPublishedExam("teacher-1", "student-1")

	started, err := env.attempts.Start(ctx, &StartAttemptRequest{ExamID: exam.ID}, "student-1")
	require.NoError(t, err)

	remaining, err := env.attempts.GetTimeRemaining(ctx, started.AttemptID, "student-1")
	require.NoError(t, err)
	assert.Greater(t, remaining.TimeRemaining, 3500)
	assert.False(t, remaining.Expired)

	backdateAttempt(env, started.AttemptID, 2*time.Hour)
	remaining, err = env.attempts.GetTimeRemaining(ctx, started.AttemptID, "student-1")
	require.NoError(t, err)
	assert.Zero(t, remaining.TimeRemaining)
	assert.True(t, remaining.Expired)
}

func TestAttemptService_List(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	exam := env.seedPublishedExam("teacher-1", "student-1")

	started, err := env.attempts.Start(ctx, &StartAttemptRequest{ExamID: exam.ID}, "student-1")
	require.NoError(t, err)

	t.Run("students see their own attempts", func(t *testing.T) {
		attempts, total, err := env.attempts.List(ctx, repositories.AttemptFilters{}, "student-1", models.RoleStudent)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, started.AttemptID, attempts[0].ID)
	})

	t.Run("teachers must scope to an exam they authored", func(t *testing.T) {
		_, _, err := env.attempts.List(ctx, repositories.AttemptFilters{}, "teacher-1", models.RoleTeacher)
		assert.Error(t, err)

		examID := exam.ID
		_, total, err := env.attempts.List(ctx, repositories.AttemptFilters{ExamID: &examID}, "teacher-1", models.RoleTeacher)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)

		_, _, err = env.attempts.List(ctx, repositories.AttemptFilters{ExamID: &examID}, "teacher-2", models.RoleTeacher)
		var pe *PermissionError
		assert.ErrorAs(t, err, &pe)
	})
}

func TestBuildSnapshot_SamplesQuestions(t *testing.T) {
	exam := &models.Exam{
		ID:                  1,
		Title:               "Sampled",
		Duration:            30,
		PassingScore:        60,
		QuestionsPerAttempt: intPtr(2),
	}
	for i := 1; i <= 5; i++ {
		exam.Questions = append(exam.Questions, models.ExamQuestion{
			ID:       uint(i),
			Position: i,
			Type:     models.QuestionEssay,
			Text:     "Discuss",
			Points:   10,
		})
	}

	snapshot, err := buildSnapshot(exam)
	require.NoError(t, err)
	assert.Len(t, snapshot.Questions, 2)
	assert.Equal(t, 20, snapshot.TotalPoints)
	for i, q := range snapshot.Questions {
		assert.Equal(t, i+1, q.Position)
	}
}

// backdateAttempt shifts an attempt's start time into the past.
func backdateAttempt(env *testEnv, attemptID uint, by time.Duration) {
	env.repo.mu.Lock()
	defer env.repo.mu.Unlock()
	env.repo.attempts[attemptID].StartedAt = time.Now().Add(-by)
}
