package embedding

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig bounds how long a RetryingProvider keeps trying.
type RetryConfig struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxElapsedTime  time.Duration
	// OnRetry is called before each new attempt.
	OnRetry func(err error, wait time.Duration)
}

// RetryingProvider retries transient failures of the wrapped provider with
// exponential backoff. Non-retryable status codes fail immediately.
type RetryingProvider struct {
	next EmbeddingProvider
	cfg  RetryConfig
}

func NewRetryingProvider(next EmbeddingProvider, cfg RetryConfig) *RetryingProvider {
	if cfg.MaxTries == 0 {
		cfg.MaxTries = 3
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 200 * time.Millisecond
	}
	if cfg.MaxElapsedTime <= 0 {
		cfg.MaxElapsedTime = 15 * time.Second
	}
	return &RetryingProvider{next: next, cfg: cfg}
}

func (p *RetryingProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.InitialInterval

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(p.cfg.MaxTries),
		backoff.WithMaxElapsedTime(p.cfg.MaxElapsedTime),
	}
	if p.cfg.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(p.cfg.OnRetry))
	}

	return backoff.Retry(ctx, func() (*EmbeddingResponse, error) {
		res, err := p.next.Generate(ctx, text, taskType)
		if err == nil {
			return res, nil
		}
		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Retryable() {
			return nil, backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}, opts...)
}
