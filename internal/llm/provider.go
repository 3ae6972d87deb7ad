package llm

import (
	"context"
	"errors"
)

// ErrRateLimited is returned when a caller has used up its request budget
// and the context ends before a new request is allowed.
var ErrRateLimited = errors.New("assistant rate limit reached")

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}
