package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/lumina-edu/exam-service/internal/repositories"
)

// Repository is the gorm-backed implementation of the repository
// aggregate. Begin returns a new aggregate bound to a transaction;
// the per-entity repositories share the transaction handle.
type Repository struct {
	db         *gorm.DB
	exam       repositories.ExamRepository
	attempt    repositories.AttemptRepository
	reattempt  repositories.ReAttemptRepository
	enrollment repositories.EnrollmentRepository
	isTx       bool
}

func NewRepository(db *gorm.DB) repositories.TransactionRepository {
	return newRepository(db, false)
}

func newRepository(db *gorm.DB, isTx bool) *Repository {
	return &Repository{
		db:         db,
		exam:       NewExamPostgreSQL(db),
		attempt:    NewAttemptPostgreSQL(db),
		reattempt:  NewReAttemptPostgreSQL(db),
		enrollment: NewEnrollmentPostgreSQL(db),
		isTx:       isTx,
	}
}

func (r *Repository) Exam() repositories.ExamRepository             { return r.exam }
func (r *Repository) Attempt() repositories.AttemptRepository       { return r.attempt }
func (r *Repository) ReAttempt() repositories.ReAttemptRepository   { return r.reattempt }
func (r *Repository) Enrollment() repositories.EnrollmentRepository { return r.enrollment }

func (r *Repository) Begin(ctx context.Context) (repositories.TransactionRepository, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return newRepository(tx, true), nil
}

func (r *Repository) Commit(ctx context.Context) error {
	if !r.isTx {
		return gorm.ErrInvalidTransaction
	}
	return r.db.Commit().Error
}

func (r *Repository) Rollback(ctx context.Context) error {
	if !r.isTx {
		return gorm.ErrInvalidTransaction
	}
	return r.db.Rollback().Error
}
