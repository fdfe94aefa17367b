// Package llm provides the language model client used by the standardization stage.
package llm

import (
	"context"
	"io"
	"net/http"
	"time"
)

// MaxErrorBodySize limits how much of an error response body is read (1MB).
const MaxErrorBodySize = 1 * 1024 * 1024

// Client sends a single prompt and returns the model's raw text reply.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)

	// Name returns the provider identifier.
	Name() string
}

// ProviderConfig contains configuration for an LLM provider.
type ProviderConfig struct {
	// Name identifies the provider.
	Name string

	// Endpoint is the API base URL.
	Endpoint string

	// APIKey for authentication.
	APIKey string

	// Model is the model identifier.
	Model string

	// MaxTokens bounds the response length.
	MaxTokens int

	// Temperature is sent as-is, including zero.
	Temperature float64

	// Timeout for API calls.
	Timeout time.Duration
}

// DefaultConfig returns the deterministic settings the standardization prompt is tuned for.
func DefaultConfig() *ProviderConfig {
	return &ProviderConfig{
		Name:        "groq",
		Endpoint:    "https://api.groq.com/openai/v1",
		Model:       "llama-3.3-70b-versatile",
		MaxTokens:   8000,
		Temperature: 0,
		Timeout:     2 * time.Minute,
	}
}

// baseProvider holds the HTTP plumbing shared by OpenAI-compatible providers.
type baseProvider struct {
	config *ProviderConfig
	client *http.Client
}

func newBaseProvider(cfg *ProviderConfig) baseProvider {
	defaults := DefaultConfig()
	if cfg == nil {
		cfg = defaults
	}
	if cfg.Name == "" {
		cfg.Name = defaults.Name
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaults.Endpoint
	}
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	return baseProvider{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the provider identifier.
func (b *baseProvider) Name() string {
	return b.config.Name
}

// Model returns the configured model identifier.
func (b *baseProvider) Model() string {
	return b.config.Model
}

func readLimitedBody(r io.Reader, maxBytes int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxBytes))
}
