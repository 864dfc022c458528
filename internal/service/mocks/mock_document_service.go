package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"clientdocs/internal/model"
	"clientdocs/internal/query"
	"clientdocs/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) List(ctx context.Context, principalID string, params query.Params) ([]model.Document, error) {
	args := m.Called(ctx, principalID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, principalID, id string) (*model.Document, error) {
	args := m.Called(ctx, principalID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Upload(ctx context.Context, principalID string, in service.UploadInput) (*model.Document, error) {
	args := m.Called(ctx, principalID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Update(ctx context.Context, principalID, id string, in service.UpdateInput) (*model.Document, error) {
	args := m.Called(ctx, principalID, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, principalID, id string) (*service.DeleteReport, error) {
	args := m.Called(ctx, principalID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DeleteReport), args.Error(1)
}

func (m *MockDocumentService) Share(ctx context.Context, principalID, id string, targetIDs []string) (*service.ShareResult, error) {
	args := m.Called(ctx, principalID, id, targetIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ShareResult), args.Error(1)
}

func (m *MockDocumentService) Download(ctx context.Context, principalID, id string) (*service.Download, error) {
	args := m.Called(ctx, principalID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Download), args.Error(1)
}

func (m *MockDocumentService) DownloadURL(ctx context.Context, principalID, id string) (*service.DownloadURL, error) {
	args := m.Called(ctx, principalID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DownloadURL), args.Error(1)
}
