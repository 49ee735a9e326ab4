package service

import (
	"context"
	"strings"
	"time"

	"bump-server/internal/model"
	"bump-server/pkg/mq"
)

type MeetupService struct {
	meetups  MeetupStore
	places   PlaceStore
	activity ActivityPublisher
	timeout  time.Duration
}

func NewMeetupService(meetups MeetupStore, places PlaceStore, activity ActivityPublisher, timeout time.Duration) *MeetupService {
	return &MeetupService{meetups: meetups, places: places, activity: activity, timeout: timeout}
}

// LogMeetup 记录一次偶遇
func (s *MeetupService) LogMeetup(ctx context.Context, userID uint, friendName string, placeID uint, wasIntentional bool) (*model.Meetup, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	friendName = strings.TrimSpace(friendName)
	if friendName == "" {
		return nil, invalid("friend name is required")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	place, err := s.places.GetByID(ctx, placeID)
	if err != nil {
		return nil, storageErr("load place", err)
	}

	meetup := &model.Meetup{
		UserID:         userID,
		FriendName:     friendName,
		PlaceID:        placeID,
		WasIntentional: wasIntentional,
		Timestamp:      time.Now(),
	}
	if err := s.meetups.Create(ctx, meetup); err != nil {
		return nil, storageErr("create meetup", err)
	}
	meetup.Place = place

	publishActivity(ctx, s.activity, mq.RouteMeetupLogged, userID, map[string]any{
		"meetup_id":       meetup.ID,
		"place_id":        placeID,
		"was_intentional": wasIntentional,
	})
	return meetup, nil
}

// ListMeetups 按时间倒序
func (s *MeetupService) ListMeetups(ctx context.Context, userID uint) ([]model.Meetup, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	meetups, err := s.meetups.ListByUser(ctx, userID)
	if err != nil {
		return nil, storageErr("list meetups", err)
	}
	return meetups, nil
}
