package repository

import (
	"context"

	"bump-server/internal/model"

	"gorm.io/gorm"
)

// StatusRepository 签到状态
type StatusRepository struct {
	db *gorm.DB
}

func NewStatusRepository(db *gorm.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// ReplaceActive 在同一事务中下线旧签到并写入新签到
func (r *StatusRepository) ReplaceActive(ctx context.Context, status *model.Status) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Status{}).
			Where("user_id = ? AND is_active = ?", status.UserID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		status.IsActive = true
		return tx.Create(status).Error
	})
}

// Deactivate 签退，只允许本人操作自己的签到
func (r *StatusRepository) Deactivate(ctx context.Context, statusID, userID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Status{}).
		Where("id = ? AND user_id = ? AND is_active = ?", statusID, userID, true).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}

// ListActiveByUsers 批量查询一组用户的 active 签到
func (r *StatusRepository) ListActiveByUsers(ctx context.Context, userIDs []uint) ([]model.Status, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var statuses []model.Status
	err := r.db.WithContext(ctx).
		Preload("Place").
		Preload("User").
		Where("user_id IN ? AND is_active = ?", userIDs, true).
		Order("timestamp DESC").
		Find(&statuses).Error
	return statuses, err
}
