package mq

import (
	"context"
	"encoding/json"
	"time"

	"bump-server/config"
	"bump-server/pkg/logger"
	"bump-server/pkg/metrics"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// 活动事件的 routing key
const (
	RouteFriendAdded   = "bump.friend.added"
	RouteFriendRemoved = "bump.friend.removed"
	RouteIntentUpdated = "bump.friend.intent_updated"
	RouteCheckIn       = "bump.status.checked_in"
	RouteCheckOut      = "bump.status.checked_out"
	RouteMeetupLogged  = "bump.meetup.logged"
)

// ActivityEvent 外发的活动事件
type ActivityEvent struct {
	Type       string         `json:"type"`
	ActorID    uint           `json:"actor_id"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewActivityEvent 构造事件
func NewActivityEvent(eventType string, actorID uint, data map[string]any) ActivityEvent {
	return ActivityEvent{Type: eventType, ActorID: actorID, Data: data, OccurredAt: time.Now()}
}

// Publisher 活动事件发布者
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// NewPublisher 连接 RabbitMQ；地址为空或连接失败时退化为 noop
func NewPublisher(cfg config.MQConfig) Publisher {
	if cfg.URL == "" {
		logger.Info("rabbitmq未配置，使用noop发布者")
		return noopPublisher{reason: "empty amqp url"}
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		logger.Warn("rabbitmq连接失败，使用noop发布者", zap.Error(err))
		return noopPublisher{reason: err.Error()}
	}

	ch, err := conn.Channel()
	if err != nil {
		logger.Warn("rabbitmq打开channel失败，使用noop发布者", zap.Error(err))
		_ = conn.Close()
		return noopPublisher{reason: err.Error()}
	}

	if err := ch.ExchangeDeclare(
		cfg.Exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		logger.Warn("rabbitmq声明exchange失败，使用noop发布者", zap.Error(err))
		_ = ch.Close()
		_ = conn.Close()
		return noopPublisher{reason: err.Error()}
	}

	logger.Info("rabbitmq已连接", zap.String("exchange", cfg.Exchange))
	return &amqpPublisher{conn: conn, ch: ch, exchange: cfg.Exchange}
}

type amqpPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func (p *amqpPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		metrics.IncAMQPPublishError()
		logger.Error("rabbitmq发布失败", zap.String("routing_key", routingKey), zap.Error(err))
	}
	return err
}

func (p *amqpPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

type noopPublisher struct {
	reason string
}

func (noopPublisher) Publish(_ context.Context, routingKey string, event any) error {
	if ev, ok := event.(ActivityEvent); ok {
		logger.Debug("noop发布", zap.String("routing_key", routingKey), zap.String("type", ev.Type), zap.Uint("actor_id", ev.ActorID))
		return nil
	}
	logger.Debug("noop发布", zap.String("routing_key", routingKey))
	return nil
}

func (noopPublisher) Close() error {
	return nil
}

// PublisherMode 发布者模式，用于启动日志
func PublisherMode(p Publisher) string {
	switch publisher := p.(type) {
	case *amqpPublisher:
		return "amqp"
	case noopPublisher:
		return "noop(" + publisher.reason + ")"
	default:
		return "unknown"
	}
}
