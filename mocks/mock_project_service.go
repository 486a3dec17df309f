package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"refinener/internal/dataset"
	"refinener/internal/domain"
	"refinener/internal/history"
	"refinener/internal/service"
)

// MockProjectService is a mock implementation of service.ProjectService.
type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) Create(ctx context.Context, input service.CreateProjectInput) (*dataset.Summary, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dataset.Summary), args.Error(1)
}

func (m *MockProjectService) Get(ctx context.Context, id uuid.UUID) (*dataset.Summary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dataset.Summary), args.Error(1)
}

func (m *MockProjectService) List(ctx context.Context) []dataset.Summary {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]dataset.Summary)
}

func (m *MockProjectService) Open(ctx context.Context, id uuid.UUID) (*dataset.Project, *history.Ledger, error) {
	args := m.Called(ctx, id)
	var project *dataset.Project
	if p := args.Get(0); p != nil {
		project = p.(*dataset.Project)
	}
	var ledger *history.Ledger
	if l := args.Get(1); l != nil {
		ledger = l.(*history.Ledger)
	}
	return project, ledger, args.Error(2)
}

func (m *MockProjectService) History(ctx context.Context, id uuid.UUID) ([]domain.HistoryEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HistoryEntry), args.Error(1)
}

func (m *MockProjectService) Undo(ctx context.Context, id uuid.UUID) (*domain.HistoryEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HistoryEntry), args.Error(1)
}

func (m *MockProjectService) Redo(ctx context.Context, id uuid.UUID) (*domain.HistoryEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HistoryEntry), args.Error(1)
}

func (m *MockProjectService) Export(ctx context.Context, id uuid.UUID, format domain.DatasetFormat, w io.Writer) (string, error) {
	args := m.Called(ctx, id, format, w)
	return args.String(0), args.Error(1)
}

func (m *MockProjectService) Publish(ctx context.Context, id uuid.UUID, format domain.DatasetFormat) (*service.ExportResult, error) {
	args := m.Called(ctx, id, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportResult), args.Error(1)
}
