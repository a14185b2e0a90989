package models

import "time"

// Course is a read model over the platform's course table. The exam
// service only reads the creator for ownership checks.
type Course struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Title     string    `json:"title" gorm:"not null;size:200"`
	CreatedBy string    `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time `json:"created_at"`
}

// CourseEnrollment is a read model over the enrollment table owned by
// the platform core. This service never writes it.
type CourseEnrollment struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	CourseID   uint      `json:"course_id" gorm:"not null;index:idx_course_student,unique"`
	StudentID  string    `json:"student_id" gorm:"not null;index:idx_course_student,unique;size:255"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

func (Course) TableName() string {
	return "courses"
}

func (CourseEnrollment) TableName() string {
	return "course_enrollments"
}
