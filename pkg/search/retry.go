package search

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pkg/errors"
)

// Retry retries transport failures of the wrapped getter. Responses, even
// unusable ones, are never retried.
type Retry struct {
	getter     Getter
	baseDelay  time.Duration
	maxRetries int
	logger     *slog.Logger
}

type RetryOptions struct {
	Logger *slog.Logger
}

type RetryOptionFunc func(opts *RetryOptions)

// WithRetryLogger sets the logger notified of each retry
func WithRetryLogger(logger *slog.Logger) RetryOptionFunc {
	return func(opts *RetryOptions) {
		opts.Logger = logger
	}
}

// Get implements Getter.
func (r *Retry) Get(ctx context.Context, url string, apiKey string) (*Response, error) {
	backoff := r.baseDelay
	retries := 0
	for {
		res, err := r.getter.Get(ctx, url, apiKey)
		if err != nil {
			if retries < r.maxRetries && errors.Is(err, ErrTransport) && ctx.Err() == nil {
				r.logger.WarnContext(ctx, "search request failed, will retry", slog.Duration("backoff", backoff), slog.Int("retries", retries), slog.Any("error", err))

				delay := backoff + time.Duration(rand.Float64()*float64(r.baseDelay))

				timer := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					timer.Stop()
					return nil, errors.WithStack(err)
				case <-timer.C:
				}

				backoff *= 2
				retries++
				continue
			}

			return nil, errors.WithStack(err)
		}

		return res, nil
	}
}

var _ Getter = &Retry{}

func WithRetry(getter Getter, maxRetries int, baseDelay time.Duration, funcs ...RetryOptionFunc) *Retry {
	opts := &RetryOptions{
		Logger: slog.Default(),
	}
	for _, fn := range funcs {
		fn(opts)
	}

	return &Retry{
		getter:     getter,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     opts.Logger,
	}
}
