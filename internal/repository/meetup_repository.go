package repository

import (
	"context"

	"bump-server/internal/model"

	"gorm.io/gorm"
)

type MeetupRepository struct {
	db *gorm.DB
}

func NewMeetupRepository(db *gorm.DB) *MeetupRepository {
	return &MeetupRepository{db: db}
}

func (r *MeetupRepository) Create(ctx context.Context, meetup *model.Meetup) error {
	return r.db.WithContext(ctx).Create(meetup).Error
}

// ListByUser 按时间倒序
func (r *MeetupRepository) ListByUser(ctx context.Context, userID uint) ([]model.Meetup, error) {
	var meetups []model.Meetup
	err := r.db.WithContext(ctx).
		Preload("Place").
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Find(&meetups).Error
	return meetups, err
}
