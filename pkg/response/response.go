package response

import (
	"net/http"

	"bump-server/internal/model"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`            // 状态码：0表示成功，其他表示错误
	Message string      `json:"message"`         // 响应消息
	Data    interface{} `json:"data,omitempty"`  // 响应数据
	Error   string      `json:"error,omitempty"` // 错误详情（仅在开发环境显示）
}

// httpStatus 业务码是合法的 HTTP 错误码时直接作为状态码返回
func httpStatus(code int) int {
	if code >= 400 && code < 600 {
		return code
	}
	return http.StatusOK
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 带自定义消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: message,
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	c.JSON(httpStatus(code), Response{
		Code:    code,
		Message: message,
	})
}

// ErrorWithDetails 带错误详情的错误响应
func ErrorWithDetails(c *gin.Context, code int, message string, err error) {
	resp := Response{
		Code:    code,
		Message: message,
	}

	// 在开发环境下显示错误详情
	if gin.Mode() == gin.DebugMode && err != nil {
		resp.Error = err.Error()
	}

	c.JSON(httpStatus(code), resp)
}

// BadRequest 400错误
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized 401错误
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// NotFound 404错误
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// BadGateway 502错误，后端存储不可用
func BadGateway(c *gin.Context, message string) {
	Error(c, http.StatusBadGateway, message)
}

const timeLayout = "2006-01-02 15:04:05"

// UserInfo 用户信息（隐藏敏感字段）
type UserInfo struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// FilterUserInfo 过滤用户信息，隐藏敏感字段
func FilterUserInfo(user *model.User) *UserInfo {
	if user == nil {
		return nil
	}

	info := &UserInfo{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		DisplayName: user.DisplayName(),
	}
	if !user.CreatedAt.IsZero() {
		info.CreatedAt = user.CreatedAt.Format(timeLayout)
	}
	return info
}

// LoginResponse 登录响应
type LoginResponse struct {
	User        *UserInfo `json:"user"`
	AccessToken string    `json:"access_token"`
}

// FriendResponse 好友列表项
type FriendResponse struct {
	LinkID uint                   `json:"link_id"`
	Friend *UserInfo              `json:"friend"`
	Intent model.Intent           `json:"intent"`
	Mutual model.MutualIntentView `json:"mutual"`
	Online bool                   `json:"online"`
	Since  string                 `json:"since"`
}

// FilterFriendLink 好友边转响应，只暴露对方的公开资料
func FilterFriendLink(link *model.FriendLink, mutual model.MutualIntentView, online bool) *FriendResponse {
	if link == nil {
		return nil
	}
	peer := FilterUserInfo(link.Peer)
	if peer != nil {
		peer.Email = ""
	}
	return &FriendResponse{
		LinkID: link.ID,
		Friend: peer,
		Intent: link.IntentOrOff(),
		Mutual: mutual,
		Online: online,
		Since:  link.CreatedAt.Format(timeLayout),
	}
}

// NotificationListResponse 通知列表
type NotificationListResponse struct {
	Items  []model.Notification `json:"items"`
	Unread int                  `json:"unread"`
}
