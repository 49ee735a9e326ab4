package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"bump-server/internal/model"
	"bump-server/internal/notify"
)

type UserStoreMock struct {
	mock.Mock
}

func (m *UserStoreMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserStoreMock) GetByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	var u *model.User
	if val := args.Get(0); val != nil {
		u = val.(*model.User)
	}
	return u, args.Error(1)
}

func (m *UserStoreMock) GetByUsernameOrEmail(ctx context.Context, identifier string) (*model.User, error) {
	args := m.Called(ctx, identifier)
	var u *model.User
	if val := args.Get(0); val != nil {
		u = val.(*model.User)
	}
	return u, args.Error(1)
}

type FriendLinkStoreMock struct {
	mock.Mock
}

func (m *FriendLinkStoreMock) Create(ctx context.Context, link *model.FriendLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *FriendLinkStoreMock) FindByOwnerAndPeer(ctx context.Context, ownerID, peerID uint) (*model.FriendLink, error) {
	args := m.Called(ctx, ownerID, peerID)
	var link *model.FriendLink
	if val := args.Get(0); val != nil {
		link = val.(*model.FriendLink)
	}
	return link, args.Error(1)
}

func (m *FriendLinkStoreMock) FindPair(ctx context.Context, a, b uint) ([]model.FriendLink, error) {
	args := m.Called(ctx, a, b)
	var links []model.FriendLink
	if val := args.Get(0); val != nil {
		links = val.([]model.FriendLink)
	}
	return links, args.Error(1)
}

func (m *FriendLinkStoreMock) ListInvolving(ctx context.Context, userID uint) ([]model.FriendLink, error) {
	args := m.Called(ctx, userID)
	var links []model.FriendLink
	if val := args.Get(0); val != nil {
		links = val.([]model.FriendLink)
	}
	return links, args.Error(1)
}

func (m *FriendLinkStoreMock) UpdateIntent(ctx context.Context, id uint, intent model.Intent) (int64, error) {
	args := m.Called(ctx, id, intent)
	return args.Get(0).(int64), args.Error(1)
}

func (m *FriendLinkStoreMock) Delete(ctx context.Context, ownerID, peerID uint) (int64, error) {
	args := m.Called(ctx, ownerID, peerID)
	return args.Get(0).(int64), args.Error(1)
}

type SettingsStoreMock struct {
	mock.Mock
}

func (m *SettingsStoreMock) FindByUserID(ctx context.Context, userID uint) (*model.Settings, error) {
	args := m.Called(ctx, userID)
	var s *model.Settings
	if val := args.Get(0); val != nil {
		s = val.(*model.Settings)
	}
	return s, args.Error(1)
}

func (m *SettingsStoreMock) Create(ctx context.Context, settings *model.Settings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

func (m *SettingsStoreMock) UpdateFields(ctx context.Context, userID uint, fields map[string]any) (int64, error) {
	args := m.Called(ctx, userID, fields)
	return args.Get(0).(int64), args.Error(1)
}

func (m *SettingsStoreMock) ToggleDoNotDisturb(ctx context.Context, userID uint) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type PlaceStoreMock struct {
	mock.Mock
}

func (m *PlaceStoreMock) Create(ctx context.Context, place *model.Place) error {
	args := m.Called(ctx, place)
	return args.Error(0)
}

func (m *PlaceStoreMock) GetByID(ctx context.Context, id uint) (*model.Place, error) {
	args := m.Called(ctx, id)
	var p *model.Place
	if val := args.Get(0); val != nil {
		p = val.(*model.Place)
	}
	return p, args.Error(1)
}

func (m *PlaceStoreMock) FindByGooglePlaceID(ctx context.Context, googlePlaceID string) (*model.Place, error) {
	args := m.Called(ctx, googlePlaceID)
	var p *model.Place
	if val := args.Get(0); val != nil {
		p = val.(*model.Place)
	}
	return p, args.Error(1)
}

func (m *PlaceStoreMock) SaveUserPlace(ctx context.Context, up *model.UserPlace) error {
	args := m.Called(ctx, up)
	return args.Error(0)
}

func (m *PlaceStoreMock) ListUserPlaces(ctx context.Context, userID uint, visibilities ...model.PlaceVisibility) ([]model.UserPlace, error) {
	args := m.Called(ctx, userID, visibilities)
	var list []model.UserPlace
	if val := args.Get(0); val != nil {
		list = val.([]model.UserPlace)
	}
	return list, args.Error(1)
}

type StatusStoreMock struct {
	mock.Mock
}

func (m *StatusStoreMock) ReplaceActive(ctx context.Context, status *model.Status) error {
	args := m.Called(ctx, status)
	return args.Error(0)
}

func (m *StatusStoreMock) Deactivate(ctx context.Context, statusID, userID uint) (int64, error) {
	args := m.Called(ctx, statusID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *StatusStoreMock) ListActiveByUsers(ctx context.Context, userIDs []uint) ([]model.Status, error) {
	args := m.Called(ctx, userIDs)
	var list []model.Status
	if val := args.Get(0); val != nil {
		list = val.([]model.Status)
	}
	return list, args.Error(1)
}

type MeetupStoreMock struct {
	mock.Mock
}

func (m *MeetupStoreMock) Create(ctx context.Context, meetup *model.Meetup) error {
	args := m.Called(ctx, meetup)
	return args.Error(0)
}

func (m *MeetupStoreMock) ListByUser(ctx context.Context, userID uint) ([]model.Meetup, error) {
	args := m.Called(ctx, userID)
	var list []model.Meetup
	if val := args.Get(0); val != nil {
		list = val.([]model.Meetup)
	}
	return list, args.Error(1)
}

type PresenceMock struct {
	mock.Mock
}

func (m *PresenceMock) IsUserOnline(ctx context.Context, userID uint) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *PresenceMock) Remove(ctx context.Context, userID uint) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type NotificationSinkMock struct {
	mock.Mock
}

func (m *NotificationSinkMock) Deliver(ctx context.Context, userID uint, event notify.Event) bool {
	args := m.Called(ctx, userID, event)
	return args.Bool(0)
}
