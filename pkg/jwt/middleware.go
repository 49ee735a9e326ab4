package jwt

import (
	"strings"

	"bump-server/pkg/logger"
	"bump-server/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// ContextUserIDKey 用户ID在gin.Context中的键名
	ContextUserIDKey = "user_id"
	// ContextUsernameKey 用户名在gin.Context中的键名
	ContextUsernameKey = "username"
)

// AuthMiddleware JWT认证中间件
// 从请求头中提取Authorization: Bearer <token>，验证后把用户ID(uint)存入gin.Context
func (s *JWTService) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "缺少Authorization请求头")
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Unauthorized(c, "Authorization格式错误，应为Bearer <token>")
			c.Abort()
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := s.ValidateToken(tokenString)
		if err != nil {
			// 不记录 token 本身
			logger.Warn("JWT验证失败",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
			)
			response.Unauthorized(c, "token无效或已过期")
			c.Abort()
			return
		}

		userID, _ := claims.UserID()
		c.Set(ContextUserIDKey, userID)
		c.Set(ContextUsernameKey, claims.Username)

		logger.Debug("用户访问接口",
			zap.Uint("user_id", userID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)

		c.Next()
	}
}

// GetUserID 从gin.Context中获取用户ID，未认证时返回0
func GetUserID(c *gin.Context) uint {
	if v, exists := c.Get(ContextUserIDKey); exists {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// GetUsername 从gin.Context中获取用户名
func GetUsername(c *gin.Context) string {
	if v, exists := c.Get(ContextUsernameKey); exists {
		if name, ok := v.(string); ok {
			return name
		}
	}
	return ""
}
