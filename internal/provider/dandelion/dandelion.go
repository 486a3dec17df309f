package dandelion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"refinener/internal/config"
	"refinener/internal/domain"
	"refinener/internal/port"
	"refinener/internal/provider"
)

// Kind is the registry key for this adapter.
const Kind = "dandelion"

const defaultEndpoint = "https://api.dandelion.eu/datatxt/nex/v1"

var settingSpec = provider.NewSpec(
	"Language", "auto",
	"Confidence", "0.6",
	"Parse hashtag", "false",
	"Min length", "2",
)

// Extractor implements port.Extractor using the Dandelion dataTXT NEX API.
// Credentials are either an app ID and key pair (AppID, APIKey) or a single
// token (APIKey alone).
type Extractor struct {
	provider.Spec
	name     string
	appID    string
	appKey   string
	endpoint string
	client   *http.Client
	breaker  *provider.Breaker
}

// New is the provider.Factory for Dandelion.
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
		appID:    cfg.AppID,
		appKey:   cfg.APIKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: cfg.Timeout()},
		breaker:  provider.NewBreaker(cfg.Name),
	}, nil
}

func (e *Extractor) Name() string { return e.name }

func (e *Extractor) Kind() string { return Kind }

func (e *Extractor) IsConfigured() bool { return e.appKey != "" }

func (e *Extractor) Extract(ctx context.Context, text string, settings map[string]string) domain.ExtractionOutcome {
	return e.breaker.Do(ctx, e.extract, text, settings)
}

func (e *Extractor) extract(ctx context.Context, text string, settings map[string]string) ([]domain.NamedEntity, error) {
	form := url.Values{}
	form.Set("lang", settings["Language"])
	form.Set("text", text)
	form.Set("min_confidence", settings["Confidence"])
	form.Set("min_length", settings["Min length"])
	form.Set("parse_hashtag", settings["Parse hashtag"])
	if e.appID != "" {
		form.Set("$app_id", e.appID)
		form.Set("$app_key", e.appKey)
	} else {
		form.Set("token", e.appKey)
	}

	body, err := provider.PostForm(ctx, e.client, e.name, e.endpoint, form)
	if err != nil {
		return nil, err
	}
	return parseResponse(e.name, body)
}

type nexResponse struct {
	Error       json.RawMessage `json:"error"`
	Message     string          `json:"message"`
	Annotations []struct {
		Spot       string  `json:"spot"`
		Title      string  `json:"title"`
		URI        string  `json:"uri"`
		Confidence float64 `json:"confidence"`
	} `json:"annotations"`
}

func parseResponse(name string, body []byte) ([]domain.NamedEntity, error) {
	var resp nexResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(resp.Error) > 0 && string(resp.Error) != "null" && string(resp.Error) != "false" {
		if resp.Message != "" {
			return nil, fmt.Errorf("%s request failed: %s", name, resp.Message)
		}
		return nil, fmt.Errorf("%s request failed", name)
	}

	entities := make([]domain.NamedEntity, 0, len(resp.Annotations))
	for i, a := range resp.Annotations {
		if a.Spot == "" {
			return nil, fmt.Errorf("annotation %d has no spot", i)
		}
		label := a.Title
		if label == "" {
			label = a.Spot
		}
		entities = append(entities, domain.NewNamedEntity(a.Spot,
			domain.NewDisambiguation(label, a.URI, a.Confidence)))
	}
	return entities, nil
}
