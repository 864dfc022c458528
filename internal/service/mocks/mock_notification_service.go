package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"clientdocs/internal/model"
)

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) Notify(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Notification), args.Error(1)
}

func (m *MockNotificationService) List(ctx context.Context, principalID string, unreadOnly bool) ([]model.Notification, error) {
	args := m.Called(ctx, principalID, unreadOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Notification), args.Error(1)
}

func (m *MockNotificationService) UnreadCount(ctx context.Context, principalID string) (int, error) {
	args := m.Called(ctx, principalID)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, principalID, id string) (*model.Notification, error) {
	args := m.Called(ctx, principalID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context, principalID string) (int64, error) {
	args := m.Called(ctx, principalID)
	return args.Get(0).(int64), args.Error(1)
}
