package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/lumina-edu/exam-service/internal/models"
	"github.com/lumina-edu/exam-service/internal/repositories"
)

type ReAttemptPostgreSQL struct {
	db *gorm.DB
}

func NewReAttemptPostgreSQL(db *gorm.DB) repositories.ReAttemptRepository {
	return &ReAttemptPostgreSQL{db: db}
}

func (r ReAttemptPostgreSQL) Create(ctx context.Context, request *models.ReAttemptRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r ReAttemptPostgreSQL) GetByID(ctx context.Context, id uint) (*models.ReAttemptRequest, error) {
	var request models.ReAttemptRequest
	if err := r.db.WithContext(ctx).First(&request, id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r ReAttemptPostgreSQL) Update(ctx context.Context, request *models.ReAttemptRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

func (r ReAttemptPostgreSQL) GetByStudentAndExam(ctx context.Context, studentID string, examID uint) ([]*models.ReAttemptRequest, error) {
	var requests []*models.ReAttemptRequest
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r ReAttemptPostgreSQL) GetPendingByCreator(ctx context.Context, creatorID string) ([]*models.ReAttemptRequest, error) {
	var requests []*models.ReAttemptRequest
	if err := r.db.WithContext(ctx).
		Where("exam_creator = ? AND status = ?", creatorID, models.ReAttemptPending).
		Order("created_at ASC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r ReAttemptPostgreSQL) HasPendingRequest(ctx context.Context, studentID string, examID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ReAttemptRequest{}).
		Where("student_id = ? AND exam_id = ? AND status = ?", studentID, examID, models.ReAttemptPending).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r ReAttemptPostgreSQL) GetUnusedGrant(ctx context.Context, studentID string, examID uint) (*models.ReAttemptRequest, error) {
	var request models.ReAttemptRequest
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND exam_id = ? AND status = ? AND new_attempt_granted = ? AND new_attempt_used = ?",
			studentID, examID, models.ReAttemptApproved, true, false).
		Order("reviewed_at ASC").
		First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r ReAttemptPostgreSQL) TransitionStatus(ctx context.Context, id uint, from, to models.ReAttemptStatus, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to

	result := r.db.WithContext(ctx).
		Model(&models.ReAttemptRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r ReAttemptPostgreSQL) ConsumeGrant(ctx context.Context, id uint, newAttemptID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ReAttemptRequest{}).
		Where("id = ? AND new_attempt_granted = ? AND new_attempt_used = ?", id, true, false).
		Updates(map[string]interface{}{
			"new_attempt_used": true,
			"new_attempt_id":   newAttemptID,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
