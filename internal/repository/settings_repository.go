package repository

import (
	"context"
	"errors"

	"bump-server/internal/model"

	"gorm.io/gorm"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// FindByUserID 不存在时返回 nil, nil
func (r *SettingsRepository) FindByUserID(ctx context.Context, userID uint) (*model.Settings, error) {
	var s model.Settings
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepository) Create(ctx context.Context, settings *model.Settings) error {
	return r.db.WithContext(ctx).Create(settings).Error
}

// UpdateFields 按列部分更新，未出现在 fields 中的列保持不变
func (r *SettingsRepository) UpdateFields(ctx context.Context, userID uint, fields map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Settings{}).
		Where("user_id = ?", userID).
		Updates(fields)
	return result.RowsAffected, result.Error
}

// ToggleDoNotDisturb 在一条 UPDATE 里翻转免打扰，不依赖之前读到的值
func (r *SettingsRepository) ToggleDoNotDisturb(ctx context.Context, userID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Settings{}).
		Where("user_id = ?", userID).
		Update("do_not_disturb", gorm.Expr("NOT do_not_disturb"))
	return result.RowsAffected, result.Error
}
