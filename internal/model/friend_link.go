package model

import (
	"fmt"
	"time"
)

// Intent 单向"想偶遇"意向
type Intent string

const (
	IntentOff     Intent = "off"     // 无特别意向
	IntentPrivate Intent = "private" // 有意向但不告知对方
	IntentShared  Intent = "shared"  // 有意向且愿意被匹配
)

// Valid 是否为合法取值
func (i Intent) Valid() bool {
	switch i {
	case IntentOff, IntentPrivate, IntentShared:
		return true
	}
	return false
}

// AtLeastPrivate private 或 shared
func (i Intent) AtLeastPrivate() bool {
	return i == IntentPrivate || i == IntentShared
}

// ParseIntent 解析意向，非法取值返回错误
func ParseIntent(s string) (Intent, error) {
	i := Intent(s)
	if !i.Valid() {
		return "", fmt.Errorf("unknown intent %q", s)
	}
	return i, nil
}

// FriendLink 好友关系中的一条有向边
// 两个用户之间由两条相互独立的记录表示（owner->peer 与 peer->owner），
// 每条只由其 owner 写入，不存在共享的"双向"记录
type FriendLink struct {
	ID        uint      `gorm:"primaryKey"`
	OwnerID   uint      `gorm:"not null;uniqueIndex:idx_owner_peer;comment:边的所有者"`
	PeerID    uint      `gorm:"not null;uniqueIndex:idx_owner_peer;index;comment:对方用户"`
	Intent    Intent    `gorm:"type:varchar(16);not null;default:'off';comment:偶遇意向"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`

	// 读取时预加载的对方资料
	Peer *User `gorm:"foreignKey:PeerID"`
}

func (FriendLink) TableName() string { return "friend_link" }

// IntentOrOff 边不存在时按 off 处理
func (l *FriendLink) IntentOrOff() Intent {
	if l == nil || !l.Intent.Valid() {
		return IntentOff
	}
	return l.Intent
}

// MutualIntentView 某个 (viewer, peer) 的派生视图，不落库
type MutualIntentView struct {
	ViewerIntent Intent `json:"viewer_intent"`
	PeerIntent   Intent `json:"peer_intent"`
	IsMutual     bool   `json:"is_mutual"`
}

// 变更类型
const (
	LinkCreated = "created"
	LinkUpdated = "updated"
	LinkDeleted = "deleted"
)

// FriendLinkChange 实时变更事件
type FriendLinkChange struct {
	Op        string    `json:"op"`
	LinkID    uint      `json:"link_id"`
	OwnerID   uint      `json:"owner_id"`
	PeerID    uint      `json:"peer_id"`
	Intent    Intent    `json:"intent"`
	ChangedAt time.Time `json:"changed_at"`
}
