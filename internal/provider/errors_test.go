package provider_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"refinener/internal/domain"
	"refinener/internal/provider"
)

func TestNewRateLimitError_DefaultRetryAfter(t *testing.T) {
	err := provider.NewRateLimitError("p", errors.New("slow down"), 0)
	assert.Equal(t, 60*time.Second, err.RetryAfter)

	err = provider.NewRateLimitError("p", errors.New("slow down"), 5)
	assert.Equal(t, 5*time.Second, err.RetryAfter)
}

func TestRateLimitError_Unwrap(t *testing.T) {
	inner := &provider.HTTPError{Provider: "p", StatusCode: 429}
	err := fmt.Errorf("wrapped: %w", provider.NewRateLimitError("p", inner, 1))

	var httpErr *provider.HTTPError
	assert.True(t, errors.As(err, &httpErr))
	assert.Equal(t, 429, httpErr.StatusCode)
}

func TestParseRetryAfterHeader(t *testing.T) {
	assert.Equal(t, 0, provider.ParseRetryAfterHeader(""))
	assert.Equal(t, 0, provider.ParseRetryAfterHeader("Wed, 21 Oct 2015 07:28:00 GMT"))
	assert.Equal(t, 30, provider.ParseRetryAfterHeader("30"))
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, domain.DefaultFailureMessage},
		{"deadline", fmt.Errorf("x: %w", context.DeadlineExceeded), "provider request timed out"},
		{"canceled", context.Canceled, "provider request canceled"},
		{"http", fmt.Errorf("x: %w", &provider.HTTPError{StatusCode: 500, Message: "p API error (status 500): oops"}), "p API error (status 500): oops"},
		{"http no message", &provider.HTTPError{StatusCode: 502}, "HTTP error 502"},
		{"rate limited", fmt.Errorf("x: %w", provider.NewRateLimitError("p", &provider.HTTPError{StatusCode: 429, Message: "p API error (status 429)"}, 30)),
			"p rate limited (retry after 30s): p API error (status 429)"},
		{"blank", errors.New("  "), domain.DefaultFailureMessage},
		{"plain", errors.New("bad json"), "bad json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, provider.Describe(tt.err))
		})
	}
}

func TestFail(t *testing.T) {
	o := provider.Fail(errors.New("quota exceeded"))
	assert.True(t, o.HasError())
	assert.Equal(t, "quota exceeded", o.ErrorMessage())
}
