package generation

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Model is one external generative model.
type Model interface {
	// Name returns the provider identifier used in logs, metrics and errors.
	Name() string

	// Complete sends prompt and returns the raw response text.
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// Options bounds a single model call.
type Options struct {
	Temperature     float64
	MaxOutputTokens int
}

// DefaultOptions keeps sampling near-deterministic with a bounded output size.
func DefaultOptions() Options {
	return Options{
		Temperature:     0.3,
		MaxOutputTokens: 4000,
	}
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ProviderConfig selects and configures a Model implementation.
type ProviderConfig struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewModel builds the Model named by cfg.Provider.
func NewModel(cfg ProviderConfig) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderGemini:
		return NewGemini(GeminiConfig{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			HTTPClient: cfg.HTTPClient,
		})
	case ProviderOpenAI:
		return NewOpenAI(OpenAIConfig{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			HTTPClient: cfg.HTTPClient,
		})
	default:
		return nil, fmt.Errorf("unknown model provider: %s", cfg.Provider)
	}
}

// classifyHTTPError determines if a provider HTTP error is transient or fatal.
func classifyHTTPError(statusCode int, body []byte) error {
	bodyStr := string(body)
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200] + "..."
	}

	err := fmt.Errorf("model API error (status %d): %s", statusCode, bodyStr)

	switch {
	case statusCode == http.StatusTooManyRequests:
		return NewTransientError(err)
	case statusCode >= 500:
		return NewTransientError(err)
	default:
		return NewFatalError(err)
	}
}
