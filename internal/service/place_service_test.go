package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"bump-server/internal/mocks"
	"bump-server/internal/model"
	"bump-server/pkg/mq"
)

func TestCreatePlaceReusesExternalID(t *testing.T) {
	repo := new(mocks.PlaceStoreMock)
	svc := NewPlaceService(repo, 0)
	existing := &model.Place{ID: 3, Name: "Blue Bottle", GooglePlaceID: "g-1"}
	repo.On("FindByGooglePlaceID", mock.Anything, "g-1").Return(existing, nil).Once()

	place, err := svc.CreatePlace(context.Background(), PlaceInput{Name: "Blue Bottle Coffee", GooglePlaceID: "g-1"})
	require.NoError(t, err)
	assert.Equal(t, uint(3), place.ID)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreatePlaceRequiresName(t *testing.T) {
	svc := NewPlaceService(new(mocks.PlaceStoreMock), 0)
	_, err := svc.CreatePlace(context.Background(), PlaceInput{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSavePlaceDefaultsToFriends(t *testing.T) {
	repo := new(mocks.PlaceStoreMock)
	svc := NewPlaceService(repo, 0)
	repo.On("GetByID", mock.Anything, uint(3)).Return(&model.Place{ID: 3, Name: "Gym"}, nil).Once()
	repo.On("SaveUserPlace", mock.Anything, mock.MatchedBy(func(up *model.UserPlace) bool {
		return up.UserID == 1 && up.PlaceID == 3 && up.Visibility == model.VisibilityFriends
	})).Return(nil).Once()

	up, err := svc.SavePlace(context.Background(), 1, 3, "")
	require.NoError(t, err)
	assert.Equal(t, "Gym", up.Place.Name)

	_, err = svc.SavePlace(context.Background(), 1, 3, model.PlaceVisibility("secret"))
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSavePlaceUnknownPlace(t *testing.T) {
	repo := new(mocks.PlaceStoreMock)
	svc := NewPlaceService(repo, 0)
	repo.On("GetByID", mock.Anything, uint(99)).Return(nil, gorm.ErrRecordNotFound).Once()

	_, err := svc.SavePlace(context.Background(), 1, 99, model.VisibilityPublic)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLogMeetup(t *testing.T) {
	meetups := new(mocks.MeetupStoreMock)
	places := new(mocks.PlaceStoreMock)
	activity := new(mocks.PublisherMock)
	svc := NewMeetupService(meetups, places, activity, 0)

	places.On("GetByID", mock.Anything, uint(3)).Return(&model.Place{ID: 3, Name: "Park"}, nil).Once()
	meetups.On("Create", mock.Anything, mock.MatchedBy(func(m *model.Meetup) bool {
		return m.UserID == 1 && m.FriendName == "Bob" && m.WasIntentional && !m.Timestamp.IsZero()
	})).Return(nil).Once()
	activity.On("Publish", mock.Anything, mq.RouteMeetupLogged, mock.Anything).Return(assert.AnError).Once()

	// 外发失败不影响记录结果
	m, err := svc.LogMeetup(context.Background(), 1, " Bob ", 3, true)
	require.NoError(t, err)
	assert.Equal(t, "Park", m.Place.Name)

	_, err = svc.LogMeetup(context.Background(), 1, "", 3, true)
	assert.ErrorIs(t, err, ErrInvalidState)
}
