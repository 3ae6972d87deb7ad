package llm

import (
	"fmt"
	"os"
)

// Config selects and configures the assistant's provider.
type Config struct {
	Provider string
	Model    string
	BaseURL  string
	// RateLimit is the per-user requests-per-minute budget. Zero disables
	// limiting.
	RateLimit int
}

// NewProvider creates the configured provider. It returns nil, without an
// error, when the provider is "none" or empty, which disables the assistant.
func NewProvider(cfg Config) (Provider, error) {
	var p Provider
	switch cfg.Provider {
	case "", "none":
		return nil, nil

	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		p = NewOpenAIProvider(apiKey, cfg.Model, cfg.BaseURL)

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Provider)
	}

	if cfg.RateLimit > 0 {
		p = NewRateLimitedProvider(p, cfg.RateLimit)
	}
	return p, nil
}
