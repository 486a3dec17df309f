package provider

import (
	"fmt"
	"sort"
	"sync"

	"refinener/internal/config"
	"refinener/internal/domain"
	"refinener/internal/port"
)

// Factory is a function that creates an Extractor from a provider config.
type Factory func(cfg *config.ProviderConfig) (port.Extractor, error)

// registry of provider factories by kind, populated at startup via Register
// (see provider/builtin).
var (
	registryMu sync.RWMutex
	factories  = map[string]Factory{}
)

// Register registers a provider factory by kind.
func Register(kind string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[kind] = factory
}

// New creates an Extractor from a provider config using the registered factory.
func New(cfg *config.ProviderConfig) (port.Extractor, error) {
	registryMu.RLock()
	factory, ok := factories[cfg.Kind]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no provider kind %q", domain.ErrUnknownProvider, cfg.Kind)
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("provider of kind %q has no name", cfg.Kind)
	}
	return factory(cfg)
}

// Kinds lists the registered provider kinds in sorted order.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
