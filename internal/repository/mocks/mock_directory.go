package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"clientdocs/internal/model"
)

type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) FindByIDs(ctx context.Context, ids []string) (map[string]model.UserSummary, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]model.UserSummary), args.Error(1)
}

type MockClientDirectory struct {
	mock.Mock
}

func (m *MockClientDirectory) FindByID(ctx context.Context, id string) (*model.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Client), args.Error(1)
}

func (m *MockClientDirectory) FindByIDs(ctx context.Context, ids []string) (map[string]model.ClientSummary, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]model.ClientSummary), args.Error(1)
}
