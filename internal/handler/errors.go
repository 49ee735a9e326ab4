package handler

import (
	"errors"
	"strconv"

	"bump-server/internal/service"
	"bump-server/pkg/jwt"
	"bump-server/pkg/logger"
	"bump-server/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// currentUserID 当前登录用户，未认证时写入401并返回false
func currentUserID(c *gin.Context) (uint, bool) {
	userID := jwt.GetUserID(c)
	if userID == 0 {
		response.Unauthorized(c, "用户未认证")
		return 0, false
	}
	return userID, true
}

// uintParam 解析路径参数，非法时写入400
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}

// writeError 按错误类别映射状态码；错误同时挂到 gin.Context，访问日志会带上
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.ErrorWithDetails(c, 404, "资源不存在", err)
	case errors.Is(err, service.ErrInvalidState):
		response.ErrorWithDetails(c, 400, "请求参数无效", err)
	case errors.Is(err, service.ErrUnauthenticated):
		response.Unauthorized(c, "用户未认证")
	case errors.Is(err, service.ErrCollaboratorFailure):
		logger.Error("存储访问失败", zap.String("request_id", logger.RequestID(c)), zap.String("path", c.Request.URL.Path), zap.Error(err))
		response.ErrorWithDetails(c, 502, "存储服务暂不可用", err)
	default:
		logger.Error("请求处理失败", zap.String("request_id", logger.RequestID(c)), zap.String("path", c.Request.URL.Path), zap.Error(err))
		response.ErrorWithDetails(c, 500, "服务器内部错误", err)
	}
}
