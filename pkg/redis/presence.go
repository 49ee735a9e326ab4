package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PresenceData 在线状态数据
type PresenceData struct {
	UserID    uint      `json:"user_id"`
	Status    string    `json:"status"` // online/offline
	LastSeen  time.Time `json:"last_seen"`
	Connected bool      `json:"connected"`
}

// 在线状态相关常量
const (
	PresenceKeyPrefix = "bump:presence:user:" // 用户在线状态key前缀
	OnlineUsersKey    = "bump:online:users"   // 在线用户集合key
	PresenceTTL       = 2 * time.Minute       // 在线状态TTL（2倍心跳周期）
)

// Presence 基于 Redis 的在线状态存储
type Presence struct {
	client *redis.Client
}

func NewPresence(c *redis.Client) *Presence {
	return &Presence{client: c}
}

func presenceKey(userID uint) string {
	return fmt.Sprintf("%s%d", PresenceKeyPrefix, userID)
}

// SetOnline 连接建立时写入在线状态
func (p *Presence) SetOnline(ctx context.Context, userID uint) error {
	data, err := json.Marshal(PresenceData{
		UserID:    userID,
		Status:    "online",
		LastSeen:  time.Now(),
		Connected: true,
	})
	if err != nil {
		return fmt.Errorf("序列化在线状态失败: %w", err)
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, presenceKey(userID), data, PresenceTTL)
	pipe.SAdd(ctx, OnlineUsersKey, userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("设置用户在线状态失败: %w", err)
	}
	return nil
}

// IsUserOnline 检查用户是否在线
func (p *Presence) IsUserOnline(ctx context.Context, userID uint) (bool, error) {
	exists, err := p.client.Exists(ctx, presenceKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("检查用户在线状态失败: %w", err)
	}
	return exists > 0, nil
}

// Refresh 心跳时延长TTL
func (p *Presence) Refresh(ctx context.Context, userID uint) error {
	ok, err := p.client.Expire(ctx, presenceKey(userID), PresenceTTL).Result()
	if err != nil {
		return fmt.Errorf("刷新用户在线状态失败: %w", err)
	}
	if !ok {
		return p.SetOnline(ctx, userID)
	}
	return nil
}

// Remove 移除用户在线状态
func (p *Presence) Remove(ctx context.Context, userID uint) error {
	pipe := p.client.TxPipeline()
	pipe.Del(ctx, presenceKey(userID))
	pipe.SRem(ctx, OnlineUsersKey, userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("删除用户在线状态失败: %w", err)
	}
	return nil
}

// CleanExpired 清理集合中已过期的用户（定期任务）
func (p *Presence) CleanExpired(ctx context.Context) (int, error) {
	members, err := p.client.SMembers(ctx, OnlineUsersKey).Result()
	if err != nil {
		return 0, fmt.Errorf("获取在线用户列表失败: %w", err)
	}

	removed := 0
	for _, member := range members {
		var userID uint
		if _, err := fmt.Sscanf(member, "%d", &userID); err != nil {
			continue
		}
		ttl, err := p.client.TTL(ctx, presenceKey(userID)).Result()
		if err != nil {
			continue
		}
		// -2 表示key不存在，-1 表示没有过期时间
		if ttl == -2 || ttl == -1 {
			p.client.SRem(ctx, OnlineUsersKey, member)
			removed++
		}
	}
	return removed, nil
}
