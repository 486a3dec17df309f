package mocks

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"refinener/internal/domain"
)

// MockChangeLogRepo is a mock implementation of port.ChangeLogRepository.
type MockChangeLogRepo struct {
	mock.Mock
}

func (m *MockChangeLogRepo) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockChangeLogRepo) UpdateState(ctx context.Context, id uuid.UUID, state domain.EntryState, changeData json.RawMessage) error {
	args := m.Called(ctx, id, state, changeData)
	return args.Error(0)
}

func (m *MockChangeLogRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.HistoryEntry, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HistoryEntry), args.Error(1)
}
