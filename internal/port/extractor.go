package port

import (
	"context"

	"refinener/internal/domain"
)

// Extractor abstracts a named-entity extraction provider.
//
// Extract must not return provider-side failures (quota, auth, HTTP errors,
// malformed responses) any other way than as a domain.Failure outcome. The
// call may block on network I/O and should honor ctx.
type Extractor interface {
	Name() string
	Kind() string
	Extract(ctx context.Context, text string, settings map[string]string) domain.ExtractionOutcome
	// SettingNames lists the per-run extraction settings the provider accepts.
	SettingNames() []string
	// DefaultSettings returns the default value of every setting in SettingNames.
	DefaultSettings() map[string]string
	// IsConfigured reports whether the provider has what it needs to run,
	// e.g. a non-empty API key.
	IsConfigured() bool
}
