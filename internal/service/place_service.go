package service

import (
	"context"
	"strings"
	"time"

	"bump-server/internal/model"
)

// PlaceInput 新建地点
type PlaceInput struct {
	Name          string   `json:"name" binding:"required"`
	Type          string   `json:"type"`
	GooglePlaceID string   `json:"google_place_id"`
	Lat           *float64 `json:"lat"`
	Lng           *float64 `json:"lng"`
}

type PlaceService struct {
	repo    PlaceStore
	timeout time.Duration
}

func NewPlaceService(repo PlaceStore, timeout time.Duration) *PlaceService {
	return &PlaceService{repo: repo, timeout: timeout}
}

// CreatePlace 外部地点ID已存在时返回已有记录
func (s *PlaceService) CreatePlace(ctx context.Context, in PlaceInput) (*model.Place, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("place name is required")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if in.GooglePlaceID != "" {
		existing, err := s.repo.FindByGooglePlaceID(ctx, in.GooglePlaceID)
		if err != nil {
			return nil, storageErr("find place", err)
		}
		if existing != nil {
			return existing, nil
		}
	}

	place := &model.Place{
		Name:          name,
		Type:          strings.TrimSpace(in.Type),
		GooglePlaceID: in.GooglePlaceID,
		Lat:           in.Lat,
		Lng:           in.Lng,
	}
	if err := s.repo.Create(ctx, place); err != nil {
		return nil, storageErr("create place", err)
	}
	return place, nil
}

// GetPlace 按ID查询
func (s *PlaceService) GetPlace(ctx context.Context, id uint) (*model.Place, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	place, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("load place", err)
	}
	return place, nil
}

// SavePlace 收藏地点，默认仅好友可见
func (s *PlaceService) SavePlace(ctx context.Context, userID, placeID uint, visibility model.PlaceVisibility) (*model.UserPlace, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if visibility == "" {
		visibility = model.VisibilityFriends
	}
	if !visibility.Valid() {
		return nil, invalid("unknown visibility %q", visibility)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	place, err := s.repo.GetByID(ctx, placeID)
	if err != nil {
		return nil, storageErr("load place", err)
	}

	up := &model.UserPlace{UserID: userID, PlaceID: placeID, Visibility: visibility}
	if err := s.repo.SaveUserPlace(ctx, up); err != nil {
		return nil, storageErr("save place", err)
	}
	up.Place = place
	return up, nil
}

// ListMyPlaces 自己的收藏地点，包括 private
func (s *PlaceService) ListMyPlaces(ctx context.Context, userID uint) ([]model.UserPlace, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	places, err := s.repo.ListUserPlaces(ctx, userID)
	if err != nil {
		return nil, storageErr("list places", err)
	}
	return places, nil
}
