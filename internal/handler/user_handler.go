package handler

import (
	"errors"

	"bump-server/internal/service"
	"bump-server/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service  *service.UserService
	presence service.PresenceChecker
}

func NewUserHandler(s *service.UserService, presence service.PresenceChecker) *UserHandler {
	return &UserHandler{service: s, presence: presence}
}

// Register 用户注册
func (h *UserHandler) Register(c *gin.Context) {
	type req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user, token, err := h.service.Register(c.Request.Context(), r.Username, r.Email, r.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "注册成功", &response.LoginResponse{
		User:        response.FilterUserInfo(user),
		AccessToken: token,
	})
}

// Login 用户登录
func (h *UserHandler) Login(c *gin.Context) {
	type req struct {
		UsernameOrEmail string `json:"usernameOrEmail" binding:"required"`
		Password        string `json:"password" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user, token, err := h.service.Login(c.Request.Context(), r.UsernameOrEmail, r.Password)
	if err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			response.Unauthorized(c, "用户名或密码错误")
			return
		}
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "登录成功", &response.LoginResponse{
		User:        response.FilterUserInfo(user),
		AccessToken: token,
	})
}

// GetProfile 获取当前用户资料
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.service.Profile(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, response.FilterUserInfo(user))
}

// Logout 结束通知会话并清理在线状态
func (h *UserHandler) Logout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.service.Logout(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "已登出", nil)
}

// CheckUserOnline 检查指定用户是否在线
func (h *UserHandler) CheckUserOnline(c *gin.Context) {
	userID, ok := uintParam(c, "user_id")
	if !ok {
		return
	}

	online := false
	if h.presence != nil {
		var err error
		online, err = h.presence.IsUserOnline(c.Request.Context(), userID)
		if err != nil {
			response.BadGateway(c, "检查用户在线状态失败")
			return
		}
	}

	response.Success(c, gin.H{
		"user_id": userID,
		"online":  online,
	})
}
