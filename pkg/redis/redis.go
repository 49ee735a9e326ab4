package redis

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"bump-server/config"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// InitRedis 初始化Redis连接，变更通知与在线状态共用这一个客户端
func InitRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client = redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		// 失败直接上报给调用方，不自动重试
		MaxRetries:   -1,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("redis连接失败: %w", err)
	}

	return client, nil
}

// Close 关闭Redis连接
func Close() error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// HealthCheck 检查Redis健康状态
func HealthCheck(ctx context.Context) error {
	if client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}

	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("redis连接异常: %w", err)
	}

	return nil
}
