package model

import "time"

// NotificationKind 通知类型
type NotificationKind string

const (
	KindCheckIn       NotificationKind = "check-in"
	KindFriendRequest NotificationKind = "friend-request"
	KindSystem        NotificationKind = "system"
)

// Notification 会话内的通知，仅存在于内存中
// 状态只允许 unread -> read
type Notification struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
	Read      bool             `json:"read"`
	Kind      NotificationKind `json:"kind"`
	Payload   map[string]any   `json:"payload,omitempty"`
}
