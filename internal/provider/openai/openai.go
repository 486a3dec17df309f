// Package openai extracts named entities with the OpenAI Chat Completions
// API in JSON-object response mode.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"refinener/internal/config"
	"refinener/internal/domain"
	"refinener/internal/port"
	"refinener/internal/provider"
	"refinener/internal/provider/llm"
)

// Kind is the registry key for this adapter.
const Kind = "openai"

const (
	apiURL       = "https://api.openai.com/v1/chat/completions"
	defaultModel = "gpt-4o-mini"
)

// Extractor implements port.Extractor using the OpenAI Chat Completions API.
type Extractor struct {
	provider.Spec
	name     string
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	breaker  *provider.Breaker
}

// New is the provider.Factory for OpenAI.
func New(cfg *config.ProviderConfig) (port.Extractor, error) {
	ex, err := newExtractor(cfg, "")
	if err != nil {
		return nil, err
	}
	return ex, nil
}

// NewWithEndpoint creates an extractor pointing at a custom API endpoint (for testing).
func NewWithEndpoint(cfg *config.ProviderConfig, endpoint string) (*Extractor, error) {
	return newExtractor(cfg, endpoint)
}

func newExtractor(cfg *config.ProviderConfig, endpoint string) (*Extractor, error) {
	spec, err := llm.Settings.WithOverrides(cfg.Name, cfg.Settings)
	if err != nil {
		return nil, err
	}
	if endpoint == "" {
		endpoint = cfg.Endpoint
	}
	if endpoint == "" {
		endpoint = apiURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Extractor{
		Spec:     spec,
		name:     cfg.Name,
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: cfg.Timeout()},
		breaker:  provider.NewBreaker(cfg.Name),
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
	prompt, err := llm.BuildPrompt(text, limits, true)
	if err != nil {
		return nil, err
	}

	reqBody := map[string]interface{}{
		"model":                 e.model,
		"max_completion_tokens": 2048,
		"messages": []map[string]interface{}{
			{"role": "user", "content": prompt},
		},
		"response_format": map[string]interface{}{
			"type": "json_object",
		},
	}
	headers := map[string]string{"Authorization": "Bearer " + e.apiKey}
	body, err := provider.PostJSON(ctx, e.client, e.name, e.endpoint, headers, reqBody)
	if err != nil {
		return nil, err
	}
	return parseResponse(body, limits)
}

// apiResponse models the OpenAI Chat Completions API response.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func parseResponse(body []byte, limits llm.Limits) ([]domain.NamedEntity, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from API: no choices")
	}
	if resp.Choices[0].FinishReason == "length" {
		return nil, fmt.Errorf("output truncated (finish_reason: length)")
	}
	return llm.ParseEntities(resp.Choices[0].Message.Content, limits)
}
