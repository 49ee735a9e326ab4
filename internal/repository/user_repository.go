package repository

import (
	"context"

	"bump-server/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	orm *gorm.DB
}

func NewUserRepository(orm *gorm.DB) *UserRepository {
	return &UserRepository{orm: orm}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.orm.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := r.orm.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByUsernameOrEmail(ctx context.Context, identifier string) (*model.User, error) {
	var u model.User
	if err := r.orm.WithContext(ctx).Where("username = ? OR email = ?", identifier, identifier).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
