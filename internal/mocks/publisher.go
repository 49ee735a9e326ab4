package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"bump-server/internal/model"
)

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

type ChangePublisherMock struct {
	mock.Mock
}

func (m *ChangePublisherMock) PublishFriendLinkChange(ctx context.Context, change model.FriendLinkChange) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}
