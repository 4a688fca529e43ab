package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/ad-tracker/youtube-seo-workflow-go/pkg/logger"
)

// RetryConfig bounds the retry policy. MaxRetries is capped at 2.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

type retryClient struct {
	next Client
	cfg  RetryConfig
	log  *zap.Logger
}

// WithRetry retries transient failures of next with exponential backoff.
// Permanent failures (bad output, 4xx, cancellation) return immediately.
func WithRetry(next Client, cfg RetryConfig) Client {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.MaxRetries > 2 {
		cfg.MaxRetries = 2
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 500 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 5 * time.Second
	}

	return &retryClient{next: next, cfg: cfg, log: logger.L().Named("llm")}
}

func (r *retryClient) Generate(ctx context.Context, req Request) (string, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.cfg.InitialInterval
	eb.MaxInterval = r.cfg.MaxInterval
	eb.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(r.cfg.MaxRetries)), ctx)

	var text string
	op := func() error {
		out, err := r.next.Generate(ctx, req)
		if err != nil {
			if IsTransient(err) && ctx.Err() == nil {
				return err
			}
			return backoff.Permanent(err)
		}
		text = out
		return nil
	}

	notify := func(err error, wait time.Duration) {
		r.log.Warn("transient llm failure, retrying", zap.Error(err), zap.Duration("wait", wait))
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return "", err
	}

	return text, nil
}
