package repositories

import (
	"context"

	"github.com/lumina-edu/exam-service/internal/models"
)

type AttemptRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, attempt *models.ExamAttempt) error
	GetByID(ctx context.Context, id uint) (*models.ExamAttempt, error)
	GetByIDWithDetails(ctx context.Context, id uint) (*models.ExamAttempt, error)
	Update(ctx context.Context, attempt *models.ExamAttempt) error

	// Query operations
	List(ctx context.Context, filters AttemptFilters) ([]*models.ExamAttempt, int64, error)
	GetByStudentAndExam(ctx context.Context, studentID string, examID uint) ([]*models.ExamAttempt, error)
	GetActiveAttempt(ctx context.Context, studentID string, examID uint) (*models.ExamAttempt, error)
	CountByStudentAndExam(ctx context.Context, studentID string, examID uint) (int64, error)

	// Status operations.
	// TransitionStatus performs a conditional update guarded by the
	// expected current status and reports whether the row moved. A false
	// return with nil error means the attempt was no longer in the
	// expected status; the caller lost the race.
	TransitionStatus(ctx context.Context, id uint, from, to models.AttemptStatus, updates map[string]interface{}) (bool, error)

	// Answer operations
	CreateAnswers(ctx context.Context, answers []*models.AttemptAnswer) error
	GetAnswers(ctx context.Context, attemptID uint) ([]*models.AttemptAnswer, error)
	GetAnswer(ctx context.Context, attemptID, questionID uint) (*models.AttemptAnswer, error)
	UpdateAnswer(ctx context.Context, answer *models.AttemptAnswer) error

	// Violation operations
	CreateViolation(ctx context.Context, violation *models.AttemptViolation) error
	GetViolations(ctx context.Context, attemptID uint) ([]*models.AttemptViolation, error)
	// IncrementViolationCount bumps the counter and returns the new
	// value, atomically against concurrent reporters. Matches only
	// in-progress attempts; a finalized attempt yields not-found.
	IncrementViolationCount(ctx context.Context, attemptID uint) (int, error)
}
