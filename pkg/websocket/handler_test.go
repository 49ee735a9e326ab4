package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bump-server/config"
	"bump-server/internal/model"
	"bump-server/internal/notify"
	"bump-server/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type defaultSettings struct{}

func (defaultSettings) GetOrCreateSettings(_ context.Context, userID uint) (*model.Settings, error) {
	return model.DefaultSettings(userID), nil
}

type frame struct {
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data"`
	Unread int             `json:"unread"`
}

func newTestServer(t *testing.T) (*httptest.Server, *jwt.JWTService, *notify.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtSvc := jwt.NewJWTService(config.JWTConfig{Secret: "ws-secret", Issuer: "bump-test", ExpireTime: time.Hour})
	manager := NewManager()
	sessions := notify.NewManager(notify.GateOptions{}, defaultSettings{}, manager)
	h := &Handler{Manager: manager, JWT: jwtSvc, Sessions: sessions}

	r := gin.New()
	r.GET("/ws", h.Serve)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, jwtSvc, sessions
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestServeRejectsMissingToken(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeNotificationFlow(t *testing.T) {
	srv, jwtSvc, sessions := newTestServer(t)
	token, err := jwtSvc.GenerateToken(3, "carol")
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readFrame(t, conn)
	assert.Equal(t, "notifications", first.Type)
	assert.Equal(t, 0, first.Unread)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "heartbeat"}))
	assert.Equal(t, "heartbeat_ack", readFrame(t, conn).Type)

	require.True(t, sessions.Deliver(context.Background(), 3, notify.Event{
		Kind:    model.KindFriendRequest,
		Title:   "New friend",
		Message: "dave added you as a friend",
	}))
	pushed := readFrame(t, conn)
	require.Equal(t, "notification", pushed.Type)
	assert.Equal(t, 1, pushed.Unread)

	var n model.Notification
	require.NoError(t, json.Unmarshal(pushed.Data, &n))
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ack_read", "id": n.ID}))

	unread := readFrame(t, conn)
	assert.Equal(t, "unread", unread.Type)
	assert.Equal(t, 0, unread.Unread)
}
