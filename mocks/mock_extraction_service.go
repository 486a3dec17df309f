package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"refinener/internal/extraction"
	"refinener/internal/service"
)

// MockExtractionService is a mock implementation of service.ExtractionService.
type MockExtractionService struct {
	mock.Mock
}

func (m *MockExtractionService) Start(ctx context.Context, projectID uuid.UUID, input service.StartExtractionInput) (*extraction.ProcessInfo, error) {
	args := m.Called(ctx, projectID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*extraction.ProcessInfo), args.Error(1)
}

func (m *MockExtractionService) Get(ctx context.Context, processID uuid.UUID) (*extraction.ProcessInfo, error) {
	args := m.Called(ctx, processID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*extraction.ProcessInfo), args.Error(1)
}

func (m *MockExtractionService) Cancel(ctx context.Context, processID uuid.UUID) (*extraction.ProcessInfo, error) {
	args := m.Called(ctx, processID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*extraction.ProcessInfo), args.Error(1)
}

func (m *MockExtractionService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]extraction.ProcessInfo, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]extraction.ProcessInfo), args.Error(1)
}

func (m *MockExtractionService) Shutdown() {
	m.Called()
}
