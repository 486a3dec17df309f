package provider_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refinener/internal/config"
	"refinener/internal/domain"
	"refinener/internal/provider"
	"refinener/internal/provider/dummy"
)

func newDummy(t *testing.T, settings map[string]string) *dummy.Extractor {
	t.Helper()
	ex, err := dummy.New(&config.ProviderConfig{Name: "Dummy", Kind: dummy.Kind, Settings: settings})
	require.NoError(t, err)
	return ex.(*dummy.Extractor)
}

func TestNewSpec(t *testing.T) {
	s := provider.NewSpec("A", "1", "B", "2")

	assert.Equal(t, []string{"A", "B"}, s.SettingNames())
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, s.DefaultSettings())

	names := s.SettingNames()
	names[0] = "changed"
	assert.Equal(t, "A", s.SettingNames()[0])
}

func TestSpec_WithOverrides(t *testing.T) {
	s := provider.NewSpec("A", "1", "B", "2")

	out, err := s.WithOverrides("p", map[string]string{"B": "3"})
	require.NoError(t, err)
	assert.Equal(t, "3", out.DefaultSettings()["B"])
	assert.Equal(t, "2", s.DefaultSettings()["B"])

	_, err = s.WithOverrides("p", map[string]string{"C": "x"})
	assert.ErrorIs(t, err, domain.ErrUnknownSetting)
}

func TestResolveSettings_MergesOverDefaults(t *testing.T) {
	ex := newDummy(t, nil)

	resolved, err := provider.ResolveSettings(ex, map[string]string{"Fail on": "boom"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Terms": "Paris,London,Berlin", "Fail on": "boom"}, resolved)
}

func TestResolveSettings_RejectsUnknownNames(t *testing.T) {
	ex := newDummy(t, nil)

	_, err := provider.ResolveSettings(ex, map[string]string{"Colour": "blue", "Terms": "x"})
	assert.ErrorIs(t, err, domain.ErrUnknownSetting)
	assert.Contains(t, err.Error(), "Colour")
}

func TestResolveSettings_ConfiguredDefaults(t *testing.T) {
	ex := newDummy(t, map[string]string{"Terms": "Rome"})

	resolved, err := provider.ResolveSettings(ex, nil)
	require.NoError(t, err)
	assert.Equal(t, "Rome", resolved["Terms"])
}
