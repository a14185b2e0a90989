package repositories

import (
	"context"

	"github.com/lumina-edu/exam-service/internal/models"
)

type ReAttemptRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, request *models.ReAttemptRequest) error
	GetByID(ctx context.Context, id uint) (*models.ReAttemptRequest, error)
	Update(ctx context.Context, request *models.ReAttemptRequest) error

	// Query operations
	GetByStudentAndExam(ctx context.Context, studentID string, examID uint) ([]*models.ReAttemptRequest, error)
	GetPendingByCreator(ctx context.Context, creatorID string) ([]*models.ReAttemptRequest, error)
	HasPendingRequest(ctx context.Context, studentID string, examID uint) (bool, error)
	// GetUnusedGrant returns the oldest approved request whose grant has
	// not been consumed, or nil when none exists.
	GetUnusedGrant(ctx context.Context, studentID string, examID uint) (*models.ReAttemptRequest, error)

	// Review operations.
	// TransitionStatus moves a pending request to its decision,
	// reporting false when the request was already reviewed.
	TransitionStatus(ctx context.Context, id uint, from, to models.ReAttemptStatus, updates map[string]interface{}) (bool, error)

	// ConsumeGrant marks an approved grant used, conditional on it
	// being unused. Returns false when the grant was already consumed.
	ConsumeGrant(ctx context.Context, id uint, newAttemptID uint) (bool, error)
}
