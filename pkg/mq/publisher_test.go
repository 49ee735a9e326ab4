package mq

import (
	"context"
	"testing"

	"bump-server/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisherWithoutURLIsNoop(t *testing.T) {
	p := NewPublisher(config.MQConfig{Exchange: "bump.activity"})
	defer p.Close()

	assert.Equal(t, "noop(empty amqp url)", PublisherMode(p))
	require.NoError(t, p.Publish(context.Background(), RouteCheckIn, NewActivityEvent(RouteCheckIn, 1, nil)))
}

func TestNewActivityEvent(t *testing.T) {
	ev := NewActivityEvent(RouteIntentUpdated, 9, map[string]any{"intent": "shared"})

	assert.Equal(t, RouteIntentUpdated, ev.Type)
	assert.Equal(t, uint(9), ev.ActorID)
	assert.Equal(t, "shared", ev.Data["intent"])
	assert.False(t, ev.OccurredAt.IsZero())
}
