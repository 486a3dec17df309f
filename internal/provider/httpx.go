package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

// maxResponseBytes bounds how much of a provider response is read.
const maxResponseBytes = 8 << 20

// PostForm sends an application/x-www-form-urlencoded POST and returns the
// response body. Non-2xx statuses come back as *HTTPError, and 429 as
// *RateLimitError wrapping one.
func PostForm(ctx context.Context, client *http.Client, providerName, endpoint string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return do(client, providerName, req)
}

// PostJSON sends payload as a JSON POST with the given extra headers and
// returns the response body, with the same error mapping as PostForm.
func PostJSON(ctx context.Context, client *http.Client, providerName, endpoint string, headers map[string]string, payload interface{}) ([]byte, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return do(client, providerName, req)
}

func do(client *http.Client, providerName string, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s API: %w", providerName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := &HTTPError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s API error (status %d)", providerName, resp.StatusCode),
		}
		if detail := errorDetail(body); detail != "" {
			httpErr.Message += ": " + detail
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, NewRateLimitError(providerName, httpErr, ParseRetryAfterHeader(resp.Header.Get("Retry-After")))
		}
		return nil, httpErr
	}
	return body, nil
}

// errorDetail extracts a readable reason from an error body: the JSON
// "message" or "error" string when present, otherwise the raw text.
func errorDetail(body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"message", "error"} {
			if msg, ok := payload[key].(string); ok && strings.TrimSpace(msg) != "" {
				return truncate(msg, 300)
			}
			// {"error": {"message": "..."}}
			if nested, ok := payload[key].(map[string]interface{}); ok {
				if msg, ok := nested["message"].(string); ok && strings.TrimSpace(msg) != "" {
					return truncate(msg, 300)
				}
			}
		}
	}
	return truncate(string(body), 300)
}

// truncate shortens s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
