package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"refinener/internal/port"
)

// MockObjectStorage is a mock implementation of port.ObjectStorage.
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) PublishExport(ctx context.Context, obj port.ExportObject) (*port.PublishedExport, error) {
	args := m.Called(ctx, obj)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.PublishedExport), args.Error(1)
}

func (m *MockObjectStorage) PresignDownload(ctx context.Context, bucket, key, filename string, expirySeconds int64) (string, error) {
	args := m.Called(ctx, bucket, key, filename, expirySeconds)
	return args.String(0), args.Error(1)
}
