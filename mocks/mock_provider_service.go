package mocks

import (
	"github.com/stretchr/testify/mock"

	"refinener/internal/domain"
	"refinener/internal/provider"
)

// MockProviderService is a mock implementation of service.ProviderService.
type MockProviderService struct {
	mock.Mock
}

func (m *MockProviderService) List() []domain.ProviderInfo {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.ProviderInfo)
}

func (m *MockProviderService) Configure(name string, update provider.Update) (*domain.ProviderInfo, error) {
	args := m.Called(name, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProviderInfo), args.Error(1)
}
