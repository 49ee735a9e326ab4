package repository

import (
	"context"
	"errors"

	"bump-server/internal/model"

	"gorm.io/gorm"
)

// PlaceRepository 地点与收藏地点
type PlaceRepository struct {
	db *gorm.DB
}

func NewPlaceRepository(db *gorm.DB) *PlaceRepository {
	return &PlaceRepository{db: db}
}

func (r *PlaceRepository) Create(ctx context.Context, place *model.Place) error {
	return r.db.WithContext(ctx).Create(place).Error
}

func (r *PlaceRepository) GetByID(ctx context.Context, id uint) (*model.Place, error) {
	var p model.Place
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByGooglePlaceID 不存在时返回 nil, nil
func (r *PlaceRepository) FindByGooglePlaceID(ctx context.Context, googlePlaceID string) (*model.Place, error) {
	var p model.Place
	err := r.db.WithContext(ctx).Where("google_place_id = ?", googlePlaceID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PlaceRepository) SaveUserPlace(ctx context.Context, up *model.UserPlace) error {
	return r.db.WithContext(ctx).Create(up).Error
}

// ListUserPlaces 列出收藏地点，可按可见性过滤
func (r *PlaceRepository) ListUserPlaces(ctx context.Context, userID uint, visibilities ...model.PlaceVisibility) ([]model.UserPlace, error) {
	var places []model.UserPlace
	q := r.db.WithContext(ctx).Preload("Place").Where("user_id = ?", userID)
	if len(visibilities) > 0 {
		q = q.Where("visibility IN ?", visibilities)
	}
	err := q.Order("created_at DESC").Find(&places).Error
	return places, err
}
