package handler

import (
	"bump-server/internal/notify"
	"bump-server/internal/service"
	"bump-server/pkg/jwt"
	"bump-server/pkg/logger"
	"bump-server/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NotificationHandler 会话内通知队列与通知设置
type NotificationHandler struct {
	sessions *notify.Manager
	settings *service.SettingsService
}

func NewNotificationHandler(sessions *notify.Manager, settings *service.SettingsService) *NotificationHandler {
	return &NotificationHandler{sessions: sessions, settings: settings}
}

// SessionMiddleware 首次带认证访问时开始通知会话；失败只记录日志，通知接口会再次尝试
func SessionMiddleware(sessions *notify.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := jwt.GetUserID(c); id != 0 {
			if _, err := sessions.Start(c.Request.Context(), id); err != nil {
				logger.Warn("启动通知会话失败", zap.Uint("user_id", id), zap.Error(err))
			}
		}
		c.Next()
	}
}

func (h *NotificationHandler) session(c *gin.Context) (*notify.Session, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return nil, false
	}
	s, err := h.sessions.Start(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return s, true
}

func listResponse(q *notify.Queue) *response.NotificationListResponse {
	return &response.NotificationListResponse{
		Items:  q.Snapshot(),
		Unread: q.UnreadCount(),
	}
}

// List 当前会话的通知，新的在前
func (h *NotificationHandler) List(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	response.Success(c, listResponse(s.Queue()))
}

// MarkRead 标记一条已读，id 不存在时不做任何修改
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.Queue().MarkRead(c.Param("id"))
	response.Success(c, listResponse(s.Queue()))
}

// MarkAllRead 全部标记已读
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.Queue().MarkAllRead()
	response.Success(c, listResponse(s.Queue()))
}

// ClearAll 清空队列
func (h *NotificationHandler) ClearAll(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.Queue().ClearAll()
	response.Success(c, listResponse(s.Queue()))
}

// GetSettings 获取通知设置，不存在时创建默认设置
func (h *NotificationHandler) GetSettings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	settings, err := h.settings.GetOrCreateSettings(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, settings)
}

// UpdateSettings 部分更新，只修改请求体中出现的字段
func (h *NotificationHandler) UpdateSettings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var patch service.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	settings, err := h.settings.UpdateSettings(c.Request.Context(), userID, patch)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "设置已更新", settings)
}

// ToggleDoNotDisturb 切换免打扰
func (h *NotificationHandler) ToggleDoNotDisturb(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	settings, err := h.settings.ToggleDoNotDisturb(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, settings)
}
