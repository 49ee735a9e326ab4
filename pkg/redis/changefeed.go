package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"bump-server/internal/model"
	"bump-server/pkg/logger"
	"bump-server/pkg/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 好友边变更频道，同一事件同时发布到 owner 和 peer 两个频道
const (
	OwnerChannelPrefix = "bump:friend_link:owner:"
	PeerChannelPrefix  = "bump:friend_link:peer:"
)

// ChangeFilter 订阅过滤条件，OwnerID / PeerID 为 0 表示不按该维度订阅
type ChangeFilter struct {
	OwnerID uint
	PeerID  uint
}

func (f ChangeFilter) channels() []string {
	var chs []string
	if f.OwnerID != 0 {
		chs = append(chs, fmt.Sprintf("%s%d", OwnerChannelPrefix, f.OwnerID))
	}
	if f.PeerID != 0 {
		chs = append(chs, fmt.Sprintf("%s%d", PeerChannelPrefix, f.PeerID))
	}
	return chs
}

// ChangeFeed 基于 Redis pub/sub 的好友边变更通知
type ChangeFeed struct {
	client *redis.Client
}

func NewChangeFeed(c *redis.Client) *ChangeFeed {
	return &ChangeFeed{client: c}
}

// PublishFriendLinkChange 发布一次变更
func (f *ChangeFeed) PublishFriendLinkChange(ctx context.Context, change model.FriendLinkChange) error {
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("序列化变更事件失败: %w", err)
	}

	pipe := f.client.Pipeline()
	for _, ch := range (ChangeFilter{OwnerID: change.OwnerID, PeerID: change.PeerID}).channels() {
		pipe.Publish(ctx, ch, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("发布变更事件失败: %w", err)
	}
	metrics.IncFeedEvent("published")
	return nil
}

// Subscribe 订阅变更，调用方负责 Close
func (f *ChangeFeed) Subscribe(ctx context.Context, filters ...ChangeFilter) (*Subscription, error) {
	var channels []string
	for _, filter := range filters {
		channels = append(channels, filter.channels()...)
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("订阅条件为空")
	}

	ps := f.client.Subscribe(ctx, channels...)
	// 等待订阅确认，确保之后发布的事件不会丢
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("订阅变更事件失败: %w", err)
	}

	sub := &Subscription{
		ps:      ps,
		changes: make(chan model.FriendLinkChange, 16),
		done:    make(chan struct{}),
	}
	go sub.run()
	return sub, nil
}

// Subscription 一次订阅
type Subscription struct {
	ps      *redis.PubSub
	changes chan model.FriendLinkChange
	done    chan struct{}
	once    sync.Once
}

// Changes 变更事件通道，订阅关闭后通道关闭
func (s *Subscription) Changes() <-chan model.FriendLinkChange {
	return s.changes
}

func (s *Subscription) run() {
	defer close(s.changes)
	for msg := range s.ps.Channel() {
		var change model.FriendLinkChange
		if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
			logger.Warn("无法解析变更事件", zap.String("channel", msg.Channel), zap.Error(err))
			continue
		}
		metrics.IncFeedEvent("received")
		select {
		case s.changes <- change:
		case <-s.done:
			return
		}
	}
}

// Close 取消订阅
func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}
