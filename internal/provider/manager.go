package provider

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"refinener/internal/config"
	"refinener/internal/domain"
	"refinener/internal/port"
)

// settingsFile is the on-disk shape of the provider settings file.
type settingsFile struct {
	Providers []config.ProviderConfig `yaml:"providers"`
}

// Update changes a provider's credentials or default extraction settings.
// Nil fields are left unchanged.
type Update struct {
	APIKey   *string           `json:"api_key,omitempty"`
	AppID    *string           `json:"app_id,omitempty"`
	Endpoint *string           `json:"endpoint,omitempty"`
	Settings map[string]string `json:"settings,omitempty"`
}

// Manager holds the configured providers by name. It is safe for
// concurrent use.
type Manager struct {
	mu         sync.RWMutex
	order      []string
	configs    map[string]config.ProviderConfig
	extractors map[string]port.Extractor
	path       string
}

// NewManager builds every provider in cfgs through the registry. path is the
// settings file used by Load and Save; empty disables persistence.
func NewManager(cfgs []config.ProviderConfig, path string) (*Manager, error) {
	m := &Manager{
		configs:    make(map[string]config.ProviderConfig, len(cfgs)),
		extractors: make(map[string]port.Extractor, len(cfgs)),
		path:       path,
	}
	for i := range cfgs {
		if err := m.put(cfgs[i]); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// put builds and stores one provider. Callers hold mu or own m exclusively.
func (m *Manager) put(cfg config.ProviderConfig) error {
	ex, err := New(&cfg)
	if err != nil {
		return fmt.Errorf("provider.Manager: building %q: %w", cfg.Name, err)
	}
	if _, exists := m.configs[cfg.Name]; !exists {
		m.order = append(m.order, cfg.Name)
	}
	m.configs[cfg.Name] = cfg
	m.extractors[cfg.Name] = ex
	return nil
}

// Get returns the named provider.
func (m *Manager) Get(name string) (port.Extractor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ex, ok := m.extractors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, name)
	}
	return ex, nil
}

// Resolve returns the named providers in the given order.
func (m *Manager) Resolve(names []string) ([]port.Extractor, error) {
	if len(names) == 0 {
		return nil, domain.ErrNoProviders
	}
	out := make([]port.Extractor, 0, len(names))
	for _, name := range names {
		ex, err := m.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, nil
}

// List describes every provider in registration order.
func (m *Manager) List() []domain.ProviderInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	infos := make([]domain.ProviderInfo, 0, len(m.order))
	for _, name := range m.order {
		ex := m.extractors[name]
		infos = append(infos, domain.ProviderInfo{
			Name:            ex.Name(),
			Kind:            ex.Kind(),
			Configured:      ex.IsConfigured(),
			SettingNames:    ex.SettingNames(),
			DefaultSettings: ex.DefaultSettings(),
		})
	}
	return infos
}

// Configure applies update to the named provider, rebuilds it, and saves
// the settings file.
func (m *Manager) Configure(name string, update Update) (domain.ProviderInfo, error) {
	m.mu.Lock()
	cfg, ok := m.configs[name]
	if !ok {
		m.mu.Unlock()
		return domain.ProviderInfo{}, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, name)
	}

	if update.APIKey != nil {
		cfg.APIKey = *update.APIKey
	}
	if update.AppID != nil {
		cfg.AppID = *update.AppID
	}
	if update.Endpoint != nil {
		cfg.Endpoint = *update.Endpoint
	}
	if len(update.Settings) > 0 {
		merged := make(map[string]string, len(cfg.Settings)+len(update.Settings))
		for k, v := range cfg.Settings {
			merged[k] = v
		}
		for k, v := range update.Settings {
			merged[k] = v
		}
		cfg.Settings = merged
	}

	if err := m.put(cfg); err != nil {
		m.mu.Unlock()
		return domain.ProviderInfo{}, err
	}
	ex := m.extractors[name]
	m.mu.Unlock()

	if err := m.Save(); err != nil {
		return domain.ProviderInfo{}, err
	}
	return domain.ProviderInfo{
		Name:            ex.Name(),
		Kind:            ex.Kind(),
		Configured:      ex.IsConfigured(),
		SettingNames:    ex.SettingNames(),
		DefaultSettings: ex.DefaultSettings(),
	}, nil
}

// Load reads the settings file and replaces or adds the providers it lists.
// A missing file is not an error.
func (m *Manager) Load() error {
	if m.path == "" {
		return nil
	}
	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("provider.Manager: reading %s: %w", m.path, err)
	}

	var file settingsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("provider.Manager: parsing %s: %w", m.path, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cfg := range file.Providers {
		if err := m.put(cfg); err != nil {
			return err
		}
	}
	log.Printf("provider.Manager: loaded %d providers from %s", len(file.Providers), m.path)
	return nil
}

// Save writes every provider config to the settings file.
func (m *Manager) Save() error {
	if m.path == "" {
		return nil
	}

	m.mu.RLock()
	file := settingsFile{Providers: make([]config.ProviderConfig, 0, len(m.order))}
	for _, name := range m.order {
		file.Providers = append(file.Providers, m.configs[name])
	}
	m.mu.RUnlock()

	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("provider.Manager: encoding settings: %w", err)
	}

	if dir := filepath.Dir(m.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("provider.Manager: creating %s: %w", dir, err)
		}
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("provider.Manager: writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("provider.Manager: replacing %s: %w", m.path, err)
	}
	return nil
}
