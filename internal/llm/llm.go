// Package llm provides the text generation backends used to draft SEO metadata.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/config"
)

// Client generates a completion for a single prompt.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Request is a provider-neutral completion request.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// ErrEmptyResponse is returned when a backend answers with no text.
var ErrEmptyResponse = errors.New("llm returned an empty response")

// StatusError is a non-2xx answer from an HTTP backend.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// IsTransient reports whether err is worth retrying: network failures,
// timeouts, rate limiting and server errors. Cancellation and malformed
// output are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return retryableStatus(statusErr.StatusCode)
	}

	if code, ok := anthropicStatus(err); ok {
		return retryableStatus(code)
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}

// New builds the configured backend wrapped with the transient-error retry policy.
func New(cfg config.LLMConfig) (Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	var base Client
	switch cfg.Provider {
	case "", "ollama":
		base = NewOllamaClient(OllamaConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
			Timeout: timeout,
		})
	case "openai":
		base = NewOpenAIClient(OpenAIConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
			Timeout: timeout,
		})
	case "anthropic":
		c, err := NewAnthropicClient(AnthropicConfig{
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
			Timeout: timeout,
		})
		if err != nil {
			return nil, err
		}
		base = c
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	return WithRetry(base, RetryConfig{MaxRetries: cfg.MaxRetries}), nil
}
