// Package dummy provides an offline extractor that finds fixed terms in the
// input text. It is used for demos and end-to-end tests.
package dummy

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"refinener/internal/config"
	"refinener/internal/domain"
	"refinener/internal/port"
	"refinener/internal/provider"
)

// Kind is the registry key for this adapter.
const Kind = "dummy"

const linkBase = "https://en.wikipedia.org/wiki/"

var settingSpec = provider.NewSpec(
	"Terms", "Paris,London,Berlin",
	"Fail on", "",
)

// Extractor reports every configured term that occurs in the text, in the
// order the terms are listed. A text containing the "Fail on" value yields a
// failure outcome.
type Extractor struct {
	provider.Spec
	name string
}

// New is the provider.Factory for the dummy extractor.
func New(cfg *config.ProviderConfig) (port.Extractor, error) {
	spec, err := settingSpec.WithOverrides(cfg.Name, cfg.Settings)
	if err != nil {
		return nil, err
	}
	return &Extractor{Spec: spec, name: cfg.Name}, nil
}

func (e *Extractor) Name() string { return e.name }

func (e *Extractor) Kind() string { return Kind }

func (e *Extractor) IsConfigured() bool { return true }

func (e *Extractor) Extract(ctx context.Context, text string, settings map[string]string) domain.ExtractionOutcome {
	if err := ctx.Err(); err != nil {
		return provider.Fail(err)
	}
	if trigger := settings["Fail on"]; trigger != "" && strings.Contains(text, trigger) {
		return domain.Failure(fmt.Sprintf("%s: refusing text containing %q", e.name, trigger))
	}

	var entities []domain.NamedEntity
	for _, term := range strings.Split(settings["Terms"], ",") {
		term = strings.TrimSpace(term)
		if term == "" || !strings.Contains(text, term) {
			continue
		}
		uri := linkBase + url.PathEscape(strings.ReplaceAll(term, " ", "_"))
		entities = append(entities, domain.NewLinkedEntity(term, uri))
	}
	return domain.Success(entities...)
}
