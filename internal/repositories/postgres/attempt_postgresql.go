package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lumina-edu/exam-service/internal/models"
	"github.com/lumina-edu/exam-service/internal/repositories"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a AttemptPostgreSQL) Create(ctx context.Context, attempt *models.ExamAttempt) error {
	return a.db.WithContext(ctx).Create(attempt).Error
}

func (a AttemptPostgreSQL) GetByID(ctx context.Context, id uint) (*models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	if err := a.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a AttemptPostgreSQL) GetByIDWithDetails(ctx context.Context, id uint) (*models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	if err := a.db.WithContext(ctx).
		Preload("Answers").
		Preload("Violations", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a AttemptPostgreSQL) Update(ctx context.Context, attempt *models.ExamAttempt) error {
	return a.db.WithContext(ctx).Save(attempt).Error
}

func (a AttemptPostgreSQL) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.ExamAttempt, int64, error) {
	var attempts []*models.ExamAttempt
	var total int64

	// apply filter first
	query := a.db.WithContext(ctx).Model(&models.ExamAttempt{})
	query = a.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = a.applyPaginationAndSort(query, filters)

	if err := query.Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

func (a AttemptPostgreSQL) GetByStudentAndExam(ctx context.Context, studentID string, examID uint) ([]*models.ExamAttempt, error) {
	var attempts []*models.ExamAttempt
	if err := a.db.WithContext(ctx).
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		Order("attempt_number ASC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (a AttemptPostgreSQL) GetActiveAttempt(ctx context.Context, studentID string, examID uint) (*models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	if err := a.db.WithContext(ctx).
		Where("student_id = ? AND exam_id = ? AND status = ?", studentID, examID, models.AttemptInProgress).
		First(&attempt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attempt, nil
}

func (a AttemptPostgreSQL) CountByStudentAndExam(ctx context.Context, studentID string, examID uint) (int64, error) {
	var count int64
	if err := a.db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (a AttemptPostgreSQL) TransitionStatus(ctx context.Context, id uint, from, to models.AttemptStatus, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to

	result := a.db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ===== ANSWER OPERATIONS =====

func (a AttemptPostgreSQL) CreateAnswers(ctx context.Context, answers []*models.AttemptAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	return a.db.WithContext(ctx).Create(answers).Error
}

func (a AttemptPostgreSQL) GetAnswers(ctx context.Context, attemptID uint) ([]*models.AttemptAnswer, error) {
	var answers []*models.AttemptAnswer
	if err := a.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (a AttemptPostgreSQL) GetAnswer(ctx context.Context, attemptID, questionID uint) (*models.AttemptAnswer, error) {
	var answer models.AttemptAnswer
	if err := a.db.WithContext(ctx).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&answer).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (a AttemptPostgreSQL) UpdateAnswer(ctx context.Context, answer *models.AttemptAnswer) error {
	return a.db.WithContext(ctx).Save(answer).Error
}

// ===== VIOLATION OPERATIONS =====

func (a AttemptPostgreSQL) CreateViolation(ctx context.Context, violation *models.AttemptViolation) error {
	return a.db.WithContext(ctx).Create(violation).Error
}

func (a AttemptPostgreSQL) GetViolations(ctx context.Context, attemptID uint) ([]*models.AttemptViolation, error) {
	var violations []*models.AttemptViolation
	if err := a.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("created_at ASC").
		Find(&violations).Error; err != nil {
		return nil, err
	}
	return violations, nil
}

// IncrementViolationCount only matches in-progress attempts so a count
// bump cannot land on an attempt a concurrent submit already finalized.
func (a AttemptPostgreSQL) IncrementViolationCount(ctx context.Context, attemptID uint) (int, error) {
	var attempt models.ExamAttempt
	result := a.db.WithContext(ctx).
		Model(&attempt).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "violation_count"}}}).
		Where("id = ? AND status = ?", attemptID, models.AttemptInProgress).
		UpdateColumn("violation_count", gorm.Expr("violation_count + 1"))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return attempt.ViolationCount, nil
}

// ===== QUERY HELPERS =====

func (a AttemptPostgreSQL) applyFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.ExamID != nil {
		query = query.Where("exam_id = ?", *filters.ExamID)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.DateFrom != nil {
		query = query.Where("started_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("started_at <= ?", *filters.DateTo)
	}
	return query
}

func (a AttemptPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	sortBy := "started_at"
	if filters.SortBy == "submitted_at" {
		sortBy = "submitted_at"
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
