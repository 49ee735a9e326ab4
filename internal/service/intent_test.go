package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bump-server/internal/model"
)

var allIntents = []model.Intent{model.IntentOff, model.IntentPrivate, model.IntentShared}

func edge(owner, peer uint, intent model.Intent) *model.FriendLink {
	return &model.FriendLink{OwnerID: owner, PeerID: peer, Intent: intent}
}

func TestDeriveMutualIntentGrid(t *testing.T) {
	for _, a := range allIntents {
		for _, b := range allIntents {
			view := DeriveMutualIntent(edge(1, 2, a), edge(2, 1, b))
			assert.Equal(t, a, view.ViewerIntent)
			assert.Equal(t, b, view.PeerIntent)
			assert.Equal(t, a == model.IntentShared && b == model.IntentShared, view.IsMutual, "viewer=%s peer=%s", a, b)
		}
	}
}

func TestDeriveMutualIntentSymmetric(t *testing.T) {
	for _, a := range allIntents {
		for _, b := range allIntents {
			ab := DeriveMutualIntent(edge(1, 2, a), edge(2, 1, b))
			ba := DeriveMutualIntent(edge(2, 1, b), edge(1, 2, a))
			assert.Equal(t, ab.IsMutual, ba.IsMutual)
			assert.Equal(t, ab.ViewerIntent, ba.PeerIntent)
			assert.Equal(t, ab.PeerIntent, ba.ViewerIntent)
		}
	}
}

func TestDeriveMutualIntentMissingEdges(t *testing.T) {
	view := DeriveMutualIntent(edge(1, 2, model.IntentShared), nil)
	assert.Equal(t, model.IntentShared, view.ViewerIntent)
	assert.Equal(t, model.IntentOff, view.PeerIntent)
	assert.False(t, view.IsMutual)

	view = DeriveMutualIntent(nil, nil)
	assert.Equal(t, model.MutualIntentView{ViewerIntent: model.IntentOff, PeerIntent: model.IntentOff}, view)
}

func TestContentVisibleOnlyDependsOnPeerEdge(t *testing.T) {
	for _, viewer := range allIntents {
		for _, peer := range allIntents {
			view := DeriveMutualIntent(edge(1, 2, viewer), edge(2, 1, peer))
			want := peer == model.IntentPrivate || peer == model.IntentShared
			assert.Equal(t, want, ContentVisible(view), "viewer=%s peer=%s", viewer, peer)
		}
	}
}

func TestContentVisibleIsAsymmetric(t *testing.T) {
	// A 对 B private，B 对 A off：B 能看 A，A 不能看 B
	aToB := edge(1, 2, model.IntentPrivate)
	bToA := edge(2, 1, model.IntentOff)

	assert.False(t, ContentVisible(DeriveMutualIntent(aToB, bToA)))
	assert.True(t, ContentVisible(DeriveMutualIntent(bToA, aToB)))
}

func TestSplitPair(t *testing.T) {
	links := []model.FriendLink{*edge(2, 1, model.IntentShared), *edge(1, 2, model.IntentPrivate)}
	viewer, peer := splitPair(links, 1, 2)
	assert.Equal(t, model.IntentPrivate, viewer.Intent)
	assert.Equal(t, model.IntentShared, peer.Intent)

	viewer, peer = splitPair(nil, 1, 2)
	assert.Nil(t, viewer)
	assert.Nil(t, peer)
}

func TestStatusVisibleTo(t *testing.T) {
	mutual := model.MutualIntentView{ViewerIntent: model.IntentShared, PeerIntent: model.IntentShared, IsMutual: true}
	notMutual := model.MutualIntentView{ViewerIntent: model.IntentShared, PeerIntent: model.IntentOff}

	off := edge(2, 1, model.IntentOff)
	private := edge(2, 1, model.IntentPrivate)

	assert.True(t, statusVisibleTo(model.PrivacyAll, off, notMutual))
	assert.False(t, statusVisibleTo(model.PrivacyAll, nil, notMutual))

	assert.False(t, statusVisibleTo(model.PrivacyIntended, off, notMutual))
	assert.True(t, statusVisibleTo(model.PrivacyIntended, private, notMutual))

	assert.False(t, statusVisibleTo(model.PrivacySpecific, private, notMutual))
	assert.True(t, statusVisibleTo(model.PrivacySpecific, private, mutual))
}
