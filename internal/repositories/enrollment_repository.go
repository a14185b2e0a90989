package repositories

import (
	"context"

	"github.com/lumina-edu/exam-service/internal/models"
)

// EnrollmentRepository reads the course and enrollment tables owned by
// the platform core. All operations are read-only.
type EnrollmentRepository interface {
	GetCourse(ctx context.Context, courseID uint) (*models.Course, error)
	IsEnrolled(ctx context.Context, courseID uint, studentID string) (bool, error)
	GetEnrolledStudentIDs(ctx context.Context, courseID uint) ([]string, error)
}
