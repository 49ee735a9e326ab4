package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"bump-server/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, httpStatus(0))
	assert.Equal(t, http.StatusOK, httpStatus(1001))
	assert.Equal(t, http.StatusNotFound, httpStatus(404))
	assert.Equal(t, http.StatusBadGateway, httpStatus(502))
}

func TestErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	NotFound(c, "好友关系不存在")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"code":404,"message":"好友关系不存在"}`, rec.Body.String())
}

func TestFilterFriendLinkHidesEmail(t *testing.T) {
	link := &model.FriendLink{
		ID:      3,
		OwnerID: 1,
		PeerID:  2,
		Intent:  model.IntentShared,
		Peer:    &model.User{ID: 2, Username: "bob", Email: "bob@example.com"},
	}
	view := model.MutualIntentView{ViewerIntent: model.IntentShared, PeerIntent: model.IntentShared, IsMutual: true}

	resp := FilterFriendLink(link, view, true)

	assert.Equal(t, uint(3), resp.LinkID)
	assert.True(t, resp.Online)
	assert.True(t, resp.Mutual.IsMutual)
	if assert.NotNil(t, resp.Friend) {
		assert.Equal(t, uint(2), resp.Friend.ID)
		assert.Empty(t, resp.Friend.Email)
		assert.Equal(t, "bob", resp.Friend.DisplayName)
	}
}
