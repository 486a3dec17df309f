package provider

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"refinener/internal/domain"
)

// HTTPError indicates a provider answered with a non-success HTTP status.
type HTTPError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP error %d", e.StatusCode)
	}
	return e.Message
}

// RateLimitError indicates a provider returned HTTP 429.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

// Describe turns an extraction error into the message stored in a Failure
// outcome. It never returns an empty string.
func Describe(err error) string {
	if err == nil {
		return domain.DefaultFailureMessage
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "provider request timed out"
	case errors.Is(err, context.Canceled):
		return "provider request canceled"
	}
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return rlErr.Error()
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Error()
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return domain.DefaultFailureMessage
	}
	return msg
}

// Fail converts an extraction error into a Failure outcome.
func Fail(err error) domain.ExtractionOutcome {
	return domain.Failure(Describe(err))
}
