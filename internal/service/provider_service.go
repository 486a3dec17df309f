package service

import (
	"refinener/internal/domain"
	"refinener/internal/provider"
)

// ProviderService lists and reconfigures extraction providers.
type ProviderService interface {
	List() []domain.ProviderInfo
	Configure(name string, update provider.Update) (*domain.ProviderInfo, error)
}

type providerService struct {
	manager *provider.Manager
}

// NewProviderService creates a new ProviderService implementation.
func NewProviderService(manager *provider.Manager) ProviderService {
	return &providerService{manager: manager}
}

func (s *providerService) List() []domain.ProviderInfo {
	return s.manager.List()
}

func (s *providerService) Configure(name string, update provider.Update) (*domain.ProviderInfo, error) {
	info, err := s.manager.Configure(name, update)
	if err != nil {
		return nil, err
	}
	return &info, nil
}
