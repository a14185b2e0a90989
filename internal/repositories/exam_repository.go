package repositories

import (
	"context"

	"github.com/lumina-edu/exam-service/internal/models"
)

type ExamRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, exam *models.Exam) error
	GetByID(ctx context.Context, id uint) (*models.Exam, error)
	GetByIDWithDetails(ctx context.Context, id uint) (*models.Exam, error)
	Update(ctx context.Context, exam *models.Exam) error
	Delete(ctx context.Context, id uint) error

	// Query operations
	List(ctx context.Context, filters ExamFilters) ([]*models.Exam, int64, error)
	GetByCourse(ctx context.Context, courseID uint, filters ExamFilters) ([]*models.Exam, int64, error)
	GetByCreator(ctx context.Context, creatorID string, filters ExamFilters) ([]*models.Exam, int64, error)

	// Status operations.
	// TransitionStatus performs a conditional update guarded by the
	// expected current status and reports whether the row moved. A false
	// return with nil error means another writer got there first.
	TransitionStatus(ctx context.Context, id uint, from, to models.ExamStatus, updates map[string]interface{}) (bool, error)

	// Statistics operations
	Aggregates(ctx context.Context, examID uint) (*ExamAggregates, error)
	UpdateStats(ctx context.Context, examID uint, attemptCount int, averageScore, passRate float64) error
}
