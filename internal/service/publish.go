package service

import (
	"context"
	"time"

	"bump-server/internal/model"
	"bump-server/pkg/logger"
	"bump-server/pkg/mq"

	"go.uber.org/zap"
)

// 写入成功之后的外发都是尽力而为，失败只记录日志，不影响本次操作结果

func publishActivity(ctx context.Context, pub ActivityPublisher, route string, actorID uint, data map[string]any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, route, mq.NewActivityEvent(route, actorID, data)); err != nil {
		logger.Warn("活动事件发布失败", zap.String("route", route), zap.Uint("actor_id", actorID), zap.Error(err))
	}
}

func publishChange(ctx context.Context, feed ChangePublisher, op string, link *model.FriendLink) {
	if feed == nil || link == nil {
		return
	}
	change := model.FriendLinkChange{
		Op:        op,
		LinkID:    link.ID,
		OwnerID:   link.OwnerID,
		PeerID:    link.PeerID,
		Intent:    link.IntentOrOff(),
		ChangedAt: time.Now(),
	}
	if err := feed.PublishFriendLinkChange(ctx, change); err != nil {
		logger.Warn("好友变更发布失败",
			zap.String("op", op),
			zap.Uint("owner_id", link.OwnerID),
			zap.Uint("peer_id", link.PeerID),
			zap.Error(err),
		)
	}
}
