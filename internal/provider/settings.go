package provider

import (
	"fmt"
	"sort"

	"refinener/internal/domain"
	"refinener/internal/port"
)

// ValidateSettings rejects setting names the extractor does not declare.
func ValidateSettings(ex port.Extractor, settings map[string]string) error {
	known := make(map[string]bool, len(ex.SettingNames()))
	for _, name := range ex.SettingNames() {
		known[name] = true
	}
	var unknown []string
	for name := range settings {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: %q for provider %s", domain.ErrUnknownSetting, unknown, ex.Name())
	}
	return nil
}

// ResolveSettings validates overrides and merges them over the extractor's
// defaults. The result has a value for every declared setting.
func ResolveSettings(ex port.Extractor, overrides map[string]string) (map[string]string, error) {
	if err := ValidateSettings(ex, overrides); err != nil {
		return nil, err
	}
	resolved := make(map[string]string, len(ex.SettingNames()))
	defaults := ex.DefaultSettings()
	for _, name := range ex.SettingNames() {
		resolved[name] = defaults[name]
	}
	for name, value := range overrides {
		resolved[name] = value
	}
	return resolved, nil
}

// Spec declares a provider's extraction settings and their defaults, in
// display order. Adapters embed it to implement SettingNames and
// DefaultSettings.
type Spec struct {
	Names    []string
	Defaults map[string]string
}

// NewSpec builds a Spec from alternating name, default pairs.
func NewSpec(pairs ...string) Spec {
	s := Spec{Defaults: make(map[string]string, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		s.Names = append(s.Names, pairs[i])
		s.Defaults[pairs[i]] = pairs[i+1]
	}
	return s
}

// SettingNames returns the declared setting names.
func (s Spec) SettingNames() []string {
	return append([]string(nil), s.Names...)
}

// DefaultSettings returns a copy of the default values.
func (s Spec) DefaultSettings() map[string]string {
	cp := make(map[string]string, len(s.Defaults))
	for k, v := range s.Defaults {
		cp[k] = v
	}
	return cp
}

// WithOverrides returns a copy of the spec whose defaults are replaced by
// configured values for known names. Unknown names are rejected.
func (s Spec) WithOverrides(name string, overrides map[string]string) (Spec, error) {
	out := Spec{Names: s.SettingNames(), Defaults: s.DefaultSettings()}
	for k, v := range overrides {
		if _, ok := out.Defaults[k]; !ok {
			return Spec{}, fmt.Errorf("%w: %q for provider %s", domain.ErrUnknownSetting, k, name)
		}
		out.Defaults[k] = v
	}
	return out, nil
}
