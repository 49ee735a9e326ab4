package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"bump-server/config"
	"bump-server/internal/model"
	"bump-server/internal/notify"
	"bump-server/pkg/jwt"
	"bump-server/pkg/logger"
	"bump-server/pkg/redis"
	"bump-server/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许跨域
	},
}

// MutualEvaluator 收到好友边变更后重新计算互相意向
type MutualEvaluator interface {
	EvaluateMutualIntent(ctx context.Context, viewerID, peerID uint) (model.MutualIntentView, error)
}

// ChangeSubscriber 好友边变更订阅
type ChangeSubscriber interface {
	Subscribe(ctx context.Context, filters ...redis.ChangeFilter) (*redis.Subscription, error)
}

// PresenceTracker 在线状态维护
type PresenceTracker interface {
	SetOnline(ctx context.Context, userID uint) error
	Refresh(ctx context.Context, userID uint) error
	Remove(ctx context.Context, userID uint) error
}

// Handler WebSocket 入口，依赖由 main 注入
// Feed 与 Presence 可以为空（例如测试或 Redis 不可用时）
type Handler struct {
	Manager   *Manager
	JWT       *jwt.JWTService
	Sessions  *notify.Manager
	Evaluator MutualEvaluator
	Feed      ChangeSubscriber
	Presence  PresenceTracker
	Config    config.WebSocketConfig
}

const (
	defaultPingInterval = 30 * time.Second
	defaultReadTimeout  = 90 * time.Second
)

func (h *Handler) pingInterval() time.Duration {
	if h.Config.PingInterval > 0 {
		return h.Config.PingInterval
	}
	return defaultPingInterval
}

func (h *Handler) readTimeout() time.Duration {
	if h.Config.ReadTimeout > 0 {
		return h.Config.ReadTimeout
	}
	return defaultReadTimeout
}

// 客户端发来的消息
type inbound struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

func marshalFrame(frameType string, fields map[string]any) []byte {
	frame := map[string]any{"type": frameType}
	for k, v := range fields {
		frame[k] = v
	}
	b, _ := json.Marshal(frame)
	return b
}

// extractToken 优先使用 query 参数，其次是 Sec-WebSocket-Protocol 头
func extractToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	return strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Sec-WebSocket-Protocol"), "Bearer "))
}

// Serve Gin路由处理函数
func (h *Handler) Serve(c *gin.Context) {
	token := extractToken(c)
	if token == "" {
		response.Unauthorized(c, "缺少token")
		return
	}
	claims, err := h.JWT.ValidateToken(token)
	if err != nil {
		response.Unauthorized(c, "token无效或已过期")
		return
	}
	userID, _ := claims.UserID()

	// 连接即开始通知会话
	if _, err := h.Sessions.Start(c.Request.Context(), userID); err != nil {
		logger.Error("启动通知会话失败", zap.Uint("user_id", userID), zap.Error(err))
		response.BadGateway(c, "加载用户设置失败")
		return
	}

	// 回显子协议，避免客户端提示 "Server sent no subprotocol"
	respHeader := http.Header{}
	if protocol := c.GetHeader("Sec-WebSocket-Protocol"); protocol != "" {
		respHeader.Set("Sec-WebSocket-Protocol", protocol)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, respHeader)
	if err != nil {
		logger.Warn("WebSocket升级失败", zap.Uint("user_id", userID), zap.Error(err))
		return
	}

	// 连接被劫持后请求上下文不再反映连接状态，这里自行管理
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := NewClient(userID, conn)
	h.Manager.AddClient(userID, client)
	if h.Presence != nil {
		if err := h.Presence.SetOnline(ctx, userID); err != nil {
			logger.Warn("设置在线状态失败", zap.Uint("user_id", userID), zap.Error(err))
		}
	}
	logger.Info("WebSocket连接建立", zap.Uint("user_id", userID))

	defer func() {
		if h.Manager.RemoveClient(userID, client) && h.Presence != nil {
			_ = h.Presence.Remove(context.Background(), userID)
		}
		_ = conn.Close()
		logger.Info("WebSocket连接关闭", zap.Uint("user_id", userID))
	}()

	go h.writeLoop(client)

	// 首帧：当前会话中的通知
	h.pushNotifications(userID)

	if h.Feed != nil && h.Evaluator != nil {
		sub, err := h.Feed.Subscribe(ctx,
			redis.ChangeFilter{OwnerID: userID},
			redis.ChangeFilter{PeerID: userID},
		)
		if err != nil {
			logger.Warn("订阅好友变更失败", zap.Uint("user_id", userID), zap.Error(err))
		} else {
			defer sub.Close()
			go h.feedLoop(ctx, userID, sub)
		}
	}

	h.readLoop(ctx, userID, conn)
}

// writeLoop 写协程，同时定时发送ping
func (h *Handler) writeLoop(client *Client) {
	ticker := time.NewTicker(h.pingInterval())
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				_ = client.Conn.Close()
				return
			}
		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				_ = client.Conn.Close()
				return
			}
		}
	}
}

// feedLoop 每条相关变更都重新计算互相意向，重复计算结果相同
func (h *Handler) feedLoop(ctx context.Context, userID uint, sub *redis.Subscription) {
	for change := range sub.Changes() {
		peerID := change.PeerID
		if change.PeerID == userID {
			peerID = change.OwnerID
		}
		view, err := h.Evaluator.EvaluateMutualIntent(ctx, userID, peerID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("重新计算互相意向失败",
				zap.Uint("user_id", userID),
				zap.Uint("peer_id", peerID),
				zap.Error(err),
			)
			continue
		}
		h.Manager.SendToUser(userID, marshalFrame("mutual_intent", map[string]any{
			"peer_id": peerID,
			"op":      change.Op,
			"data":    view,
		}))
	}
}

// readLoop 读协程（接收心跳/通知确认）。若超时未收到任何读事件则断开
func (h *Handler) readLoop(ctx context.Context, userID uint, conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout()))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.readTimeout()))
	})
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout()))

		var msg inbound
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "ack_read":
			if s, ok := h.Sessions.Get(userID); ok && msg.ID != "" {
				s.Queue().MarkRead(msg.ID)
				h.pushUnread(userID, s)
			}
		case "ack_all":
			if s, ok := h.Sessions.Get(userID); ok {
				s.Queue().MarkAllRead()
				h.pushUnread(userID, s)
			}
		case "heartbeat":
			if h.Presence != nil {
				_ = h.Presence.Refresh(ctx, userID)
			}
			h.Manager.SendToUser(userID, marshalFrame("heartbeat_ack", nil))
		}
	}
}

func (h *Handler) pushNotifications(userID uint) {
	s, ok := h.Sessions.Get(userID)
	if !ok {
		return
	}
	q := s.Queue()
	h.Manager.SendToUser(userID, marshalFrame("notifications", map[string]any{
		"data":   q.Snapshot(),
		"unread": q.UnreadCount(),
	}))
}

func (h *Handler) pushUnread(userID uint, s *notify.Session) {
	h.Manager.SendToUser(userID, marshalFrame("unread", map[string]any{
		"unread": s.Queue().UnreadCount(),
	}))
}
