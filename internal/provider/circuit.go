package provider

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"refinener/internal/domain"
)

// ExtractFunc performs one provider call and reports provider-side failures
// as errors.
type ExtractFunc func(ctx context.Context, text string, settings map[string]string) ([]domain.NamedEntity, error)

// Breaker runs provider calls and converts their errors into Failure
// outcomes. After a rate-limit response it short-circuits calls until the
// provider's retry-after window has passed, so a throttled provider does not
// burn one request per remaining row.
type Breaker struct {
	name    string
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
	now     func() time.Time
}

// NewBreaker creates a closed Breaker for the named provider.
func NewBreaker(name string) *Breaker {
	return &Breaker{name: name, now: time.Now}
}

func (b *Breaker) isOpenWithReset(now time.Time) (time.Time, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.resetAt, !b.resetAt.IsZero() && now.Before(b.resetAt)
}

func (b *Breaker) open(resetAt time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetAt = resetAt
}

// Do runs fn unless the circuit is open and returns its outcome.
func (b *Breaker) Do(ctx context.Context, fn ExtractFunc, text string, settings map[string]string) domain.ExtractionOutcome {
	now := b.now()
	if resetAt, open := b.isOpenWithReset(now); open {
		return domain.Failure(fmt.Sprintf("%s rate limited until %s", b.name, resetAt.Format(time.RFC3339)))
	}

	entities, err := fn(ctx, text, settings)
	if err == nil {
		return domain.Success(entities...)
	}

	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		resetAt := now.Add(rlErr.RetryAfter)
		b.open(resetAt)
		log.Printf("provider.Breaker: %s rate limited, skipping calls until %s", b.name, resetAt.Format(time.RFC3339))
	}
	return Fail(err)
}
