package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/lumina-edu/exam-service/internal/models"
	"github.com/lumina-edu/exam-service/internal/repositories"
)

type EnrollmentPostgreSQL struct {
	db *gorm.DB
}

func NewEnrollmentPostgreSQL(db *gorm.DB) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{db: db}
}

func (e EnrollmentPostgreSQL) GetCourse(ctx context.Context, courseID uint) (*models.Course, error) {
	var course models.Course
	if err := e.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (e EnrollmentPostgreSQL) IsEnrolled(ctx context.Context, courseID uint, studentID string) (bool, error) {
	var count int64
	if err := e.db.WithContext(ctx).
		Model(&models.CourseEnrollment{}).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (e EnrollmentPostgreSQL) GetEnrolledStudentIDs(ctx context.Context, courseID uint) ([]string, error) {
	var ids []string
	if err := e.db.WithContext(ctx).
		Model(&models.CourseEnrollment{}).
		Where("course_id = ?", courseID).
		Pluck("student_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
