package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"bump-server/internal/mocks"
	"bump-server/internal/model"
	"bump-server/internal/notify"
	"bump-server/pkg/mq"
)

type friendFixture struct {
	links    *mocks.FriendLinkStoreMock
	users    *mocks.UserStoreMock
	places   *mocks.PlaceStoreMock
	statuses *mocks.StatusStoreMock
	feed     *mocks.ChangePublisherMock
	activity *mocks.PublisherMock
	presence *mocks.PresenceMock
	sink     *mocks.NotificationSinkMock
	svc      *FriendService
}

func newFriendFixture() *friendFixture {
	f := &friendFixture{
		links:    new(mocks.FriendLinkStoreMock),
		users:    new(mocks.UserStoreMock),
		places:   new(mocks.PlaceStoreMock),
		statuses: new(mocks.StatusStoreMock),
		feed:     new(mocks.ChangePublisherMock),
		activity: new(mocks.PublisherMock),
		presence: new(mocks.PresenceMock),
		sink:     new(mocks.NotificationSinkMock),
	}
	f.svc = NewFriendService(FriendServiceDeps{
		Links:    f.links,
		Users:    f.users,
		Places:   f.places,
		Statuses: f.statuses,
		Feed:     f.feed,
		Activity: f.activity,
		Presence: f.presence,
		Sink:     f.sink,
	})
	return f
}

func TestSetIntentWritesOnlyOwnerRow(t *testing.T) {
	f := newFriendFixture()
	ctx := context.Background()
	own := &model.FriendLink{ID: 10, OwnerID: 1, PeerID: 2, Intent: model.IntentOff}

	f.links.On("FindByOwnerAndPeer", mock.Anything, uint(1), uint(2)).Return(own, nil).Once()
	f.links.On("UpdateIntent", mock.Anything, uint(10), model.IntentShared).Return(int64(1), nil).Once()
	f.feed.On("PublishFriendLinkChange", mock.Anything, mock.MatchedBy(func(c model.FriendLinkChange) bool {
		return c.Op == model.LinkUpdated && c.OwnerID == 1 && c.PeerID == 2 && c.Intent == model.IntentShared
	})).Return(nil).Once()
	f.activity.On("Publish", mock.Anything, mq.RouteIntentUpdated, mock.Anything).Return(nil).Once()

	link, err := f.svc.SetIntent(ctx, 1, 2, model.IntentShared)
	require.NoError(t, err)
	assert.Equal(t, model.IntentShared, link.Intent)

	f.links.AssertExpectations(t)
	f.feed.AssertExpectations(t)
	f.links.AssertNotCalled(t, "FindByOwnerAndPeer", mock.Anything, uint(2), uint(1))
}

func TestSetIntentIdempotent(t *testing.T) {
	f := newFriendFixture()
	own := &model.FriendLink{ID: 10, OwnerID: 1, PeerID: 2, Intent: model.IntentPrivate}
	f.links.On("FindByOwnerAndPeer", mock.Anything, uint(1), uint(2)).Return(own, nil).Twice()

	for i := 0; i < 2; i++ {
		link, err := f.svc.SetIntent(context.Background(), 1, 2, model.IntentPrivate)
		require.NoError(t, err)
		assert.Equal(t, model.IntentPrivate, link.Intent)
	}
	f.links.AssertNotCalled(t, "UpdateIntent", mock.Anything, mock.Anything, mock.Anything)
	f.feed.AssertNotCalled(t, "PublishFriendLinkChange", mock.Anything, mock.Anything)
}

func TestSetIntentInvalidValue(t *testing.T) {
	f := newFriendFixture()

	_, err := f.svc.SetIntent(context.Background(), 1, 2, model.Intent("maybe"))
	assert.ErrorIs(t, err, ErrInvalidState)
	f.links.AssertNotCalled(t, "FindByOwnerAndPeer", mock.Anything, mock.Anything, mock.Anything)
	f.links.AssertNotCalled(t, "UpdateIntent", mock.Anything, mock.Anything, mock.Anything)
}

func TestSetIntentMissingEdge(t *testing.T) {
	f := newFriendFixture()
	f.links.On("FindByOwnerAndPeer", mock.Anything, uint(1), uint(3)).Return(nil, nil).Once()

	_, err := f.svc.SetIntent(context.Background(), 1, 3, model.IntentShared)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetIntentRowVanishedDuringUpdate(t *testing.T) {
	f := newFriendFixture()
	own := &model.FriendLink{ID: 10, OwnerID: 1, PeerID: 2, Intent: model.IntentOff}
	f.links.On("FindByOwnerAndPeer", mock.Anything, uint(1), uint(2)).Return(own, nil).Once()
	f.links.On("UpdateIntent", mock.Anything, uint(10), model.IntentShared).Return(int64(0), nil).Once()
	f.links.On("FindByOwnerAndPeer", mock.Anything, uint(1), uint(2)).Return(nil, nil).Once()

	_, err := f.svc.SetIntent(context.Background(), 1, 2, model.IntentShared)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetIntentStorageFailure(t *testing.T) {
	f := newFriendFixture()
	f.links.On("FindByOwnerAndPeer", mock.Anything, uint(1), uint(2)).Return(nil, context.DeadlineExceeded).Once()

	_, err := f.svc.SetIntent(context.Background(), 1, 2, model.IntentShared)
	assert.ErrorIs(t, err, ErrCollaboratorFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSetIntentUnauthenticated(t *testing.T) {
	f := newFriendFixture()
	_, err := f.svc.SetIntent(context.Background(), 0, 2, model.IntentShared)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestEvaluateMutualIntentSingleRead(t *testing.T) {
	f := newFriendFixture()
	f.links.On("FindPair", mock.Anything, uint(1), uint(2)).Return([]model.FriendLink{
		{OwnerID: 1, PeerID: 2, Intent: model.IntentShared},
		{OwnerID: 2, PeerID: 1, Intent: model.IntentShared},
	}, nil).Once()

	view, err := f.svc.EvaluateMutualIntent(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, view.IsMutual)
	f.links.AssertNumberOfCalls(t, "FindPair", 1)
}

func TestEvaluateMutualIntentMissingPeerEdge(t *testing.T) {
	f := newFriendFixture()
	f.links.On("FindPair", mock.Anything, uint(1), uint(2)).Return([]model.FriendLink{
		{OwnerID: 1, PeerID: 2, Intent: model.IntentShared},
	}, nil).Once()

	view, err := f.svc.EvaluateMutualIntent(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, model.IntentOff, view.PeerIntent)
	assert.False(t, view.IsMutual)
}

func TestCanViewContentAsymmetry(t *testing.T) {
	f := newFriendFixture()
	pair := []model.FriendLink{
		{OwnerID: 1, PeerID: 2, Intent: model.IntentPrivate},
		{OwnerID: 2, PeerID: 1, Intent: model.IntentOff},
	}
	f.links.On("FindPair", mock.Anything, uint(1), uint(2)).Return(pair, nil)
	f.links.On("FindPair", mock.Anything, uint(2), uint(1)).Return(pair, nil)

	aSeesB, err := f.svc.CanViewContent(context.Background(), 1, 2)
	require.NoError(t, err)
	bSeesA, err := f.svc.CanViewContent(context.Background(), 2, 1)
	require.NoError(t, err)

	assert.False(t, aSeesB)
	assert.True(t, bSeesA)
}

func TestAddFriendNotifiesPeer(t *testing.T) {
	f := newFriendFixture()
	f.users.On("GetByID", mock.Anything, uint(2)).Return(&model.User{ID: 2, Username: "bob"}, nil).Once()
	f.users.On("GetByID", mock.Anything, uint(1)).Return(&model.User{ID: 1, Username: "alice"}, nil).Once()
	f.links.On("FindPair", mock.Anything, uint(1), uint(2)).Return([]model.FriendLink{}, nil).Once()
	f.links.On("Create", mock.Anything, mock.MatchedBy(func(l *model.FriendLink) bool {
		return l.OwnerID == 1 && l.PeerID == 2 && l.Intent == model.IntentOff
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.FriendLink).ID = 5
	}).Return(nil).Once()
	f.feed.On("PublishFriendLinkChange", mock.Anything, mock.Anything).Return(nil).Once()
	f.activity.On("Publish", mock.Anything, mq.RouteFriendAdded, mock.Anything).Return(nil).Once()
	f.sink.On("Deliver", mock.Anything, uint(2), mock.MatchedBy(func(ev notify.Event) bool {
		return ev.Kind == model.KindFriendRequest && ev.ActorID == 1 && ev.Message == "alice added you as a friend"
	})).Return(true).Once()

	link, err := f.svc.AddFriend(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(5), link.ID)
	f.sink.AssertExpectations(t)
	f.links.AssertExpectations(t)
}

func TestAddFriendRejectsSelfAndDuplicates(t *testing.T) {
	f := newFriendFixture()
	_, err := f.svc.AddFriend(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrInvalidState)

	f.users.On("GetByID", mock.Anything, uint(2)).Return(&model.User{ID: 2}, nil)
	f.links.On("FindPair", mock.Anything, uint(1), uint(2)).Return([]model.FriendLink{{OwnerID: 1, PeerID: 2}}, nil).Once()
	_, err = f.svc.AddFriend(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrInvalidState)
	f.links.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAddFriendUnknownPeer(t *testing.T) {
	f := newFriendFixture()
	f.users.On("GetByID", mock.Anything, uint(9)).Return(nil, gorm.ErrRecordNotFound).Once()

	_, err := f.svc.AddFriend(context.Background(), 1, 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnfriendDeletesOnlyOwnEdge(t *testing.T) {
	f := newFriendFixture()
	f.links.On("Delete", mock.Anything, uint(1), uint(2)).Return(int64(1), nil).Once()
	f.feed.On("PublishFriendLinkChange", mock.Anything, mock.MatchedBy(func(c model.FriendLinkChange) bool {
		return c.Op == model.LinkDeleted && c.OwnerID == 1 && c.PeerID == 2
	})).Return(nil).Once()
	f.activity.On("Publish", mock.Anything, mq.RouteFriendRemoved, mock.Anything).Return(nil).Once()

	require.NoError(t, f.svc.Unfriend(context.Background(), 1, 2))
	f.links.AssertNotCalled(t, "Delete", mock.Anything, uint(2), uint(1))

	f.links.On("Delete", mock.Anything, uint(1), uint(3)).Return(int64(0), nil).Once()
	assert.ErrorIs(t, f.svc.Unfriend(context.Background(), 1, 3), ErrNotFound)
}

func TestListFriendsUsesReciprocalEdges(t *testing.T) {
	f := newFriendFixture()
	f.links.On("ListInvolving", mock.Anything, uint(1)).Return([]model.FriendLink{
		{ID: 1, OwnerID: 1, PeerID: 2, Intent: model.IntentShared},
		{ID: 2, OwnerID: 2, PeerID: 1, Intent: model.IntentShared},
		{ID: 3, OwnerID: 1, PeerID: 3, Intent: model.IntentShared},
		{ID: 4, OwnerID: 4, PeerID: 1, Intent: model.IntentPrivate},
	}, nil).Once()
	f.presence.On("IsUserOnline", mock.Anything, uint(2)).Return(true, nil)
	f.presence.On("IsUserOnline", mock.Anything, uint(3)).Return(false, errors.New("redis down"))

	views, err := f.svc.ListFriends(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, uint(2), views[0].Link.PeerID)
	assert.True(t, views[0].Mutual.IsMutual)
	assert.True(t, views[0].Online)

	assert.Equal(t, uint(3), views[1].Link.PeerID)
	assert.False(t, views[1].Mutual.IsMutual)
	assert.False(t, views[1].Online)
}

func TestFriendProfileHidesContentWhenNotVisible(t *testing.T) {
	f := newFriendFixture()
	f.users.On("GetByID", mock.Anything, uint(2)).Return(&model.User{ID: 2, Username: "bob"}, nil).Once()
	f.links.On("FindPair", mock.Anything, uint(1), uint(2)).Return([]model.FriendLink{
		{OwnerID: 1, PeerID: 2, Intent: model.IntentShared},
		{OwnerID: 2, PeerID: 1, Intent: model.IntentOff},
	}, nil).Once()

	profile, err := f.svc.FriendProfile(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, profile.Visible)
	assert.Empty(t, profile.Places)
	f.places.AssertNotCalled(t, "ListUserPlaces", mock.Anything, mock.Anything, mock.Anything)
}

func TestFriendProfileFiltersStatusesByPrivacy(t *testing.T) {
	f := newFriendFixture()
	f.users.On("GetByID", mock.Anything, uint(2)).Return(&model.User{ID: 2, Username: "bob"}, nil).Once()
	f.links.On("FindPair", mock.Anything, uint(1), uint(2)).Return([]model.FriendLink{
		{OwnerID: 1, PeerID: 2, Intent: model.IntentOff},
		{OwnerID: 2, PeerID: 1, Intent: model.IntentPrivate},
	}, nil).Once()
	f.places.On("ListUserPlaces", mock.Anything, uint(2),
		[]model.PlaceVisibility{model.VisibilityPublic, model.VisibilityFriends}).
		Return([]model.UserPlace{{ID: 1, UserID: 2, PlaceID: 7}}, nil).Once()
	f.statuses.On("ListActiveByUsers", mock.Anything, []uint{2}).Return([]model.Status{
		{ID: 1, UserID: 2, Privacy: model.PrivacyAll},
		{ID: 2, UserID: 2, Privacy: model.PrivacyIntended},
		{ID: 3, UserID: 2, Privacy: model.PrivacySpecific},
	}, nil).Once()

	profile, err := f.svc.FriendProfile(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, profile.Visible)
	require.Len(t, profile.Places, 1)
	require.Len(t, profile.Statuses, 2)
	assert.Equal(t, uint(1), profile.Statuses[0].ID)
	assert.Equal(t, uint(2), profile.Statuses[1].ID)
}
