// Package claude extracts named entities by prompting an Anthropic model to
// return linked entities as JSON.
package claude

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"refinener/internal/config"
	"refinener/internal/domain"
	"refinener/internal/port"
	"refinener/internal/provider"
	"refinener/internal/provider/llm"
)

// Kind is the registry key for this adapter.
const Kind = "claude"

const defaultModel = "claude-3-5-haiku-20241022"

// Extractor implements port.Extractor with the Anthropic Messages API.
type Extractor struct {
	provider.Spec
	name    string
	apiKey  string
	model   anthropic.Model
	client  anthropic.Client
	breaker *provider.Breaker
}

// New is the provider.Factory for Claude.
func New(cfg *config.ProviderConfig) (port.Extractor, error) {
	ex, err := newExtractor(cfg, "")
	if err != nil {
		return nil, err
	}
	return ex, nil
}

// NewWithEndpoint creates an extractor pointing at a custom base URL (for testing).
func NewWithEndpoint(cfg *config.ProviderConfig, endpoint string) (*Extractor, error) {
	return newExtractor(cfg, endpoint)
}

func newExtractor(cfg *config.ProviderConfig, endpoint string) (*Extractor, error) {
	spec, err := llm.Settings.WithOverrides(cfg.Name, cfg.Settings)
	if err != nil {
		return nil, err
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	if endpoint == "" {
		endpoint = cfg.Endpoint
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
		option.WithMaxRetries(0),
	}
	if endpoint != "" {
		opts = append(opts, option.WithBaseURL(endpoint))
	}

	return &Extractor{
		Spec:    spec,
		name:    cfg.Name,
		apiKey:  cfg.APIKey,
		model:   anthropic.Model(model),
		client:  anthropic.NewClient(opts...),
		breaker: provider.NewBreaker(cfg.Name),
	}, nil
}

func (e *Extractor) Name() string { return e.name }

func (e *Extractor) Kind() string { return Kind }

func (e *Extractor) IsConfigured() bool { return e.apiKey != "" }

func (e *Extractor) Extract(ctx context.Context, text string, settings map[string]string) domain.ExtractionOutcome {
	return e.breaker.Do(ctx, e.extract, text, settings)
}

func (e *Extractor) extract(ctx context.Context, text string, settings map[string]string) ([]domain.NamedEntity, error) {
	limits, err := llm.ReadLimits(settings)
	if err != nil {
		return nil, err
	}
	prompt, err := llm.BuildPrompt(text, limits, false)
	if err != nil {
		return nil, err
	}

	message, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     e.model,
		MaxTokens: 2048,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, e.mapError(err)
	}
	if len(message.Content) == 0 {
		return nil, fmt.Errorf("unexpected response format: no content blocks")
	}
	content := message.Content[0]
	if content.Type != "text" {
		return nil, fmt.Errorf("unexpected response format: not a text block (type=%s)", content.Type)
	}
	return llm.ParseEntities(content.Text, limits)
}

func (e *Extractor) mapError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("calling %s API: %w", e.name, err)
	}
	httpErr := &provider.HTTPError{
		Provider:   e.name,
		StatusCode: apiErr.StatusCode,
		Message:    fmt.Sprintf("%s API error (status %d)", e.name, apiErr.StatusCode),
	}
	if apiErr.StatusCode == http.StatusTooManyRequests {
		retryAfter := 0
		if apiErr.Response != nil {
			retryAfter = provider.ParseRetryAfterHeader(apiErr.Response.Header.Get("Retry-After"))
		}
		return provider.NewRateLimitError(e.name, httpErr, retryAfter)
	}
	return httpErr
}
