package service

import (
	"context"

	"bump-server/internal/model"
	"bump-server/internal/notify"
)

// 以下接口由 internal/repository 中的 gorm 实现满足，测试中由 internal/mocks 替代

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByUsernameOrEmail(ctx context.Context, identifier string) (*model.User, error)
}

type FriendLinkStore interface {
	Create(ctx context.Context, link *model.FriendLink) error
	FindByOwnerAndPeer(ctx context.Context, ownerID, peerID uint) (*model.FriendLink, error)
	// FindPair 一次查询同时取回 a->b 与 b->a 两条边
	FindPair(ctx context.Context, a, b uint) ([]model.FriendLink, error)
	// ListInvolving 一次查询取回 user 拥有的边和指向 user 的边
	ListInvolving(ctx context.Context, userID uint) ([]model.FriendLink, error)
	UpdateIntent(ctx context.Context, id uint, intent model.Intent) (int64, error)
	Delete(ctx context.Context, ownerID, peerID uint) (int64, error)
}

type SettingsStore interface {
	FindByUserID(ctx context.Context, userID uint) (*model.Settings, error)
	Create(ctx context.Context, settings *model.Settings) error
	UpdateFields(ctx context.Context, userID uint, fields map[string]any) (int64, error)
	ToggleDoNotDisturb(ctx context.Context, userID uint) (int64, error)
}

type PlaceStore interface {
	Create(ctx context.Context, place *model.Place) error
	GetByID(ctx context.Context, id uint) (*model.Place, error)
	FindByGooglePlaceID(ctx context.Context, googlePlaceID string) (*model.Place, error)
	SaveUserPlace(ctx context.Context, up *model.UserPlace) error
	ListUserPlaces(ctx context.Context, userID uint, visibilities ...model.PlaceVisibility) ([]model.UserPlace, error)
}

type StatusStore interface {
	// ReplaceActive 先下线用户当前的 active 签到，再写入新签到
	ReplaceActive(ctx context.Context, status *model.Status) error
	Deactivate(ctx context.Context, statusID, userID uint) (int64, error)
	ListActiveByUsers(ctx context.Context, userIDs []uint) ([]model.Status, error)
}

type MeetupStore interface {
	Create(ctx context.Context, meetup *model.Meetup) error
	ListByUser(ctx context.Context, userID uint) ([]model.Meetup, error)
}

// ChangePublisher 好友边变更的实时通道
type ChangePublisher interface {
	PublishFriendLinkChange(ctx context.Context, change model.FriendLinkChange) error
}

// ActivityPublisher 活动事件外发（RabbitMQ）
type ActivityPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// PresenceChecker 在线状态查询
type PresenceChecker interface {
	IsUserOnline(ctx context.Context, userID uint) (bool, error)
}

// NotificationSink 把候选事件交给目标用户会话的通知闸门
type NotificationSink interface {
	Deliver(ctx context.Context, userID uint, event notify.Event) bool
}

// SettingsObserver 设置写入成功后刷新会话缓存
type SettingsObserver interface {
	SettingsChanged(userID uint, settings *model.Settings)
}
