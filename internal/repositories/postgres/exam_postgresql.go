package postgres

import (
	"context"
	"math"

	"gorm.io/gorm"

	"github.com/lumina-edu/exam-service/internal/models"
	"github.com/lumina-edu/exam-service/internal/repositories"
)

type ExamPostgreSQL struct {
	db *gorm.DB
}

func NewExamPostgreSQL(db *gorm.DB) repositories.ExamRepository {
	return &ExamPostgreSQL{db: db}
}

func (e ExamPostgreSQL) Create(ctx context.Context, exam *models.Exam) error {
	return e.db.WithContext(ctx).Create(exam).Error
}

func (e ExamPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Exam, error) {
	var exam models.Exam
	if err := e.db.WithContext(ctx).First(&exam, id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (e ExamPostgreSQL) GetByIDWithDetails(ctx context.Context, id uint) (*models.Exam, error) {
	var exam models.Exam
	if err := e.db.WithContext(ctx).
		Preload("Settings").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&exam, id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (e ExamPostgreSQL) Update(ctx context.Context, exam *models.Exam) error {
	return e.db.WithContext(ctx).Save(exam).Error
}

func (e ExamPostgreSQL) Delete(ctx context.Context, id uint) error {
	return e.db.WithContext(ctx).Delete(&models.Exam{}, id).Error
}

func (e ExamPostgreSQL) List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	var exams []*models.Exam
	var total int64

	// apply filter first
	query := e.db.WithContext(ctx).Model(&models.Exam{})
	query = e.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = e.applyPaginationAndSort(query, filters)

	if err := query.Find(&exams).Error; err != nil {
		return nil, 0, err
	}

	return exams, total, nil
}

func (e ExamPostgreSQL) GetByCourse(ctx context.Context, courseID uint, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	filters.CourseID = &courseID
	return e.List(ctx, filters)
}

func (e ExamPostgreSQL) GetByCreator(ctx context.Context, creatorID string, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	filters.CreatedBy = &creatorID
	return e.List(ctx, filters)
}

func (e ExamPostgreSQL) TransitionStatus(ctx context.Context, id uint, from, to models.ExamStatus, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to

	result := e.db.WithContext(ctx).
		Model(&models.Exam{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (e ExamPostgreSQL) Aggregates(ctx context.Context, examID uint) (*repositories.ExamAggregates, error) {
	var agg repositories.ExamAggregates

	submitted := []models.AttemptStatus{models.AttemptSubmitted, models.AttemptCompleted}

	if err := e.db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("exam_id = ?", examID).
		Count(&agg.AttemptCount).Error; err != nil {
		return nil, err
	}

	if err := e.db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("exam_id = ? AND status IN ?", examID, submitted).
		Count(&agg.SubmittedCount).Error; err != nil {
		return nil, err
	}

	if agg.SubmittedCount > 0 {
		if err := e.db.WithContext(ctx).
			Model(&models.ExamAttempt{}).
			Where("exam_id = ? AND status IN ?", examID, submitted).
			Select("COALESCE(AVG(total_score), 0)").
			Scan(&agg.AverageScore).Error; err != nil {
			return nil, err
		}

		if err := e.db.WithContext(ctx).
			Model(&models.ExamAttempt{}).
			Where("exam_id = ? AND status IN ? AND passed = ?", examID, submitted, true).
			Count(&agg.PassedCount).Error; err != nil {
			return nil, err
		}
	}

	agg.AverageScore = math.Round(agg.AverageScore*100) / 100
	return &agg, nil
}

func (e ExamPostgreSQL) UpdateStats(ctx context.Context, examID uint, attemptCount int, averageScore, passRate float64) error {
	return e.db.WithContext(ctx).
		Model(&models.Exam{}).
		Where("id = ?", examID).
		Updates(map[string]interface{}{
			"attempt_count": attemptCount,
			"average_score": averageScore,
			"pass_rate":     passRate,
		}).Error
}

// ===== QUERY HELPERS =====

func (e ExamPostgreSQL) applyFilters(query *gorm.DB, filters repositories.ExamFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.Published != nil {
		query = query.Where("is_published = ?", *filters.Published)
	}
	return query
}

func (e ExamPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.ExamFilters) *gorm.DB {
	sortBy := "created_at"
	if filters.SortBy == "title" {
		sortBy = "title"
	}
	order := "DESC"
	if filters.SortOrder == "asc" {
		order = "ASC"
	}
	query = query.Order(sortBy + " " + order)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
