package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/lumina-edu/exam-service/internal/models"
)

// Repository aggregates the per-entity repositories. Services depend on
// this interface; the postgres package provides the implementation.
type Repository interface {
	Exam() ExamRepository
	Attempt() AttemptRepository
	ReAttempt() ReAttemptRepository
	Enrollment() EnrollmentRepository
}

// TransactionRepository extends Repository with transaction control.
// Begin returns a Repository bound to the transaction; all state
// transitions that must commit atomically run through it.
type TransactionRepository interface {
	Repository
	Begin(ctx context.Context) (TransactionRepository, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// ===== SHARED FILTER STRUCTS =====

type ExamFilters struct {
	Status    *models.ExamStatus `json:"status"`
	CourseID  *uint              `json:"course_id"`
	CreatedBy *string            `json:"created_by"`
	Published *bool              `json:"published"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
	SortBy    string             `json:"sort_by"`    // "created_at", "title"
	SortOrder string             `json:"sort_order"` // "asc", "desc"
}

type AttemptFilters struct {
	Status    *models.AttemptStatus `json:"status"`
	ExamID    *uint                 `json:"exam_id"`
	StudentID *string               `json:"student_id"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

// ===== SHARED STATISTICS STRUCTS =====

// ExamAggregates holds the raw aggregates an idempotent statistics
// recompute derives from the attempts table.
type ExamAggregates struct {
	AttemptCount   int64   `json:"attempt_count"`
	SubmittedCount int64   `json:"submitted_count"`
	AverageScore   float64 `json:"average_score"`
	PassedCount    int64   `json:"passed_count"`
}

// ===== ERROR HELPERS =====

// IsNotFoundError checks whether a repository error is a missing-record
// condition.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError checks whether a repository error is a unique
// constraint violation. Requires gorm error translation to be enabled.
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
