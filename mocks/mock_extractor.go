package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"refinener/internal/domain"
)

// MockExtractor is a mock implementation of port.Extractor.
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockExtractor) Kind() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockExtractor) Extract(ctx context.Context, text string, settings map[string]string) domain.ExtractionOutcome {
	args := m.Called(ctx, text, settings)
	return args.Get(0).(domain.ExtractionOutcome)
}

func (m *MockExtractor) SettingNames() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func (m *MockExtractor) DefaultSettings() map[string]string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(map[string]string)
}

func (m *MockExtractor) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}
