package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimitedProvider wraps a Provider with one token bucket per user, so a
// single member cannot exhaust the shared API budget.
type RateLimitedProvider struct {
	provider Provider
	rpm      int
	poll     time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens   int
	lastFill time.Time
}

// NewRateLimitedProvider wraps the given provider with a limiter that allows
// each user at most rpm requests per minute.
func NewRateLimitedProvider(provider Provider, rpm int) *RateLimitedProvider {
	return &RateLimitedProvider{
		provider: provider,
		rpm:      rpm,
		poll:     100 * time.Millisecond,
		buckets:  make(map[string]*bucket),
	}
}

func (r *RateLimitedProvider) Name() string {
	return r.provider.Name()
}

func (r *RateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := r.wait(ctx, req.User); err != nil {
		return nil, err
	}
	return r.provider.Complete(ctx, req)
}

// take consumes one token from key's bucket if one is available.
func (r *RateLimitedProvider) take(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	b, ok := r.buckets[key]
	if !ok {
		b = &bucket{tokens: r.rpm, lastFill: now}
		r.buckets[key] = b
	}

	refill := int(now.Sub(b.lastFill).Seconds() * float64(r.rpm) / 60.0)
	if refill > 0 {
		b.tokens = min(b.tokens+refill, r.rpm)
		b.lastFill = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

func (r *RateLimitedProvider) wait(ctx context.Context, key string) error {
	for {
		if r.take(key) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrRateLimited, ctx.Err())
		case <-time.After(r.poll):
		}
	}
}
