package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ad-tracker/youtube-seo-workflow-go/internal/config"
)

type scriptedClient struct {
	errs  []error
	calls int
}

func (s *scriptedClient) Generate(_ context.Context, _ Request) (string, error) {
	s.calls++
	if s.calls <= len(s.errs) && s.errs[s.calls-1] != nil {
		return "", s.errs[s.calls-1]
	}
	return "ok", nil
}

func fastRetry(next Client, max int) Client {
	return WithRetry(next, RetryConfig{MaxRetries: max, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond})
}

func configFor(provider string) config.LLMConfig {
	return config.LLMConfig{Provider: provider, BaseURL: "http://localhost:11434", Model: "m", MaxRetries: 2}
}

func TestWithRetry(t *testing.T) {
	transient := &StatusError{Provider: "ollama", StatusCode: 503}

	t.Run("recovers after transient failures", func(t *testing.T) {
		s := &scriptedClient{errs: []error{transient, transient}}
		text, err := fastRetry(s, 2).Generate(context.Background(), Request{})

		require.NoError(t, err)
		assert.Equal(t, "ok", text)
		assert.Equal(t, 3, s.calls)
	})

	t.Run("gives up after two retries", func(t *testing.T) {
		s := &scriptedClient{errs: []error{transient, transient, transient, transient}}
		_, err := fastRetry(s, 2).Generate(context.Background(), Request{})

		require.Error(t, err)
		assert.Equal(t, 3, s.calls)
	})

	t.Run("retry budget is capped at two", func(t *testing.T) {
		s := &scriptedClient{errs: []error{transient, transient, transient, transient, transient}}
		_, err := fastRetry(s, 10).Generate(context.Background(), Request{})

		require.Error(t, err)
		assert.Equal(t, 3, s.calls)
	})

	t.Run("permanent errors are not retried", func(t *testing.T) {
		s := &scriptedClient{errs: []error{&StatusError{StatusCode: 400}}}
		_, err := fastRetry(s, 2).Generate(context.Background(), Request{})

		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, 1, s.calls)
	})

	t.Run("malformed output is not retried", func(t *testing.T) {
		s := &scriptedClient{errs: []error{ErrEmptyResponse}}
		_, err := fastRetry(s, 2).Generate(context.Background(), Request{})

		assert.ErrorIs(t, err, ErrEmptyResponse)
		assert.Equal(t, 1, s.calls)
	})
}
