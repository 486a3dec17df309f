package service_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refinener/internal/config"
	"refinener/internal/domain"
	"refinener/internal/provider"
	"refinener/internal/provider/builtin"
	"refinener/internal/service"
)

func TestProviderService_ConfigurePersists(t *testing.T) {
	builtin.RegisterAll()
	path := filepath.Join(t.TempDir(), "providers.yaml")
	cfgs := []config.ProviderConfig{{Name: "Dandelion", Kind: "dandelion"}}

	manager, err := provider.NewManager(cfgs, path)
	require.NoError(t, err)
	svc := service.NewProviderService(manager)

	list := svc.List()
	require.Len(t, list, 1)
	assert.False(t, list[0].Configured)

	key := "token"
	info, err := svc.Configure("Dandelion", provider.Update{APIKey: &key, Settings: map[string]string{"Language": "en"}})
	require.NoError(t, err)
	assert.True(t, info.Configured)
	assert.Equal(t, "en", info.DefaultSettings["Language"])

	reloaded, err := provider.NewManager(cfgs, path)
	require.NoError(t, err)
	require.NoError(t, reloaded.Load())
	assert.True(t, service.NewProviderService(reloaded).List()[0].Configured)

	_, err = svc.Configure("Nope", provider.Update{})
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
	_, err = svc.Configure("Dandelion", provider.Update{Settings: map[string]string{"Colour": "red"}})
	assert.ErrorIs(t, err, domain.ErrUnknownSetting)
}
