package spotlight

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"refinener/internal/config"
	"refinener/internal/domain"
	"refinener/internal/port"
	"refinener/internal/provider"
)

// Kind is the registry key for this adapter.
const Kind = "spotlight"

const defaultEndpoint = "https://api.dbpedia-spotlight.org/en/annotate"

var settingSpec = provider.NewSpec(
	"Confidence", "0.5",
	"Support", "30",
)

// Extractor implements port.Extractor using the DBpedia Spotlight annotate API.
type Extractor struct {
	provider.Spec
	name     string
	endpoint string
	client   *http.Client
	breaker  *provider.Breaker
}

// New is the provider.Factory for Spotlight.
func New(cfg *config.ProviderConfig) (port.Extractor, error) {
	ex, err := newExtractor(cfg, "")
	if err != nil {
		return nil, err
	}
	return ex, nil
}

// NewWithEndpoint creates an extractor pointing at a custom endpoint (for testing).
func NewWithEndpoint(cfg *config.ProviderConfig, endpoint string) (*Extractor, error) {
	return newExtractor(cfg, endpoint)
}

func newExtractor(cfg *config.ProviderConfig, endpoint string) (*Extractor, error) {
	spec, err := settingSpec.WithOverrides(cfg.Name, cfg.Settings)
	if err != nil {
		return nil, err
	}
	if endpoint == "" {
		endpoint = cfg.Endpoint
	}
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Extractor{
		Spec:     spec,
		name:     cfg.Name,
		endpoint: endpoint,
		client:   &http.Client{Timeout: cfg.Timeout()},
		breaker:  provider.NewBreaker(cfg.Name),
	}, nil
}

func (e *Extractor) Name() string { return e.name }

func (e *Extractor) Kind() string { return Kind }

// IsConfigured is always true: the public endpoint needs no credentials.
func (e *Extractor) IsConfigured() bool { return true }

func (e *Extractor) Extract(ctx context.Context, text string, settings map[string]string) domain.ExtractionOutcome {
	return e.breaker.Do(ctx, e.extract, text, settings)
}

func (e *Extractor) extract(ctx context.Context, text string, settings map[string]string) ([]domain.NamedEntity, error) {
	form := url.Values{}
	form.Set("confidence", settings["Confidence"])
	form.Set("support", settings["Support"])
	form.Set("text", text)

	body, err := provider.PostForm(ctx, e.client, e.name, e.endpoint, form)
	if err != nil {
		return nil, err
	}
	return parseResponse(body)
}

// annotateResponse models the Spotlight JSON response. Attribute names keep
// the XML-derived "@" prefix.
type annotateResponse struct {
	Resources []struct {
		URI             string `json:"@URI"`
		SurfaceForm     string `json:"@surfaceForm"`
		SimilarityScore string `json:"@similarityScore"`
	} `json:"Resources"`
}

func parseResponse(body []byte) ([]domain.NamedEntity, error) {
	var resp annotateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	entities := make([]domain.NamedEntity, 0, len(resp.Resources))
	for i, r := range resp.Resources {
		if r.SurfaceForm == "" {
			return nil, fmt.Errorf("resource %d has no surface form", i)
		}
		if r.URI == "" {
			entities = append(entities, domain.NewNamedEntity(r.SurfaceForm))
			continue
		}
		if score, err := strconv.ParseFloat(r.SimilarityScore, 64); err == nil {
			entities = append(entities, domain.NewNamedEntity(r.SurfaceForm,
				domain.NewDisambiguation(r.SurfaceForm, r.URI, score)))
			continue
		}
		entities = append(entities, domain.NewLinkedEntity(r.SurfaceForm, r.URI))
	}
	return entities, nil
}
