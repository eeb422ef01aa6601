package adapters

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/kulucloud/kulu/types"
)

// Retry budget per adapter call: exponential backoff starting at 500ms,
// doubling, at most 5 attempts, 30s total.
const (
	retryInitialInterval = 500 * time.Millisecond
	retryMultiplier      = 2.0
	retryMaxTries        = 5
	retryMaxElapsed      = 30 * time.Second
)

// RetryNotify is invoked before each backoff sleep. Installed by the
// telemetry layer; nil disables notifications.
type RetryNotify func(provider types.Provider, op string, err error, next time.Duration)

// WithRetry runs fn under the adapter retry contract. Transient errors
// (429, 5xx, connection reset) are retried; anything else fails on the
// first attempt. The returned error is always an *AdapterError with
// Retryable=false once the budget is spent.
func WithRetry[T any](ctx context.Context, provider types.Provider, op string, notify RetryNotify, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, retryMaxElapsed)
	defer cancel()

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = retryInitialInterval
	expo.Multiplier = retryMultiplier

	opts := []backoff.RetryOption{
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(retryMaxTries),
		backoff.WithMaxElapsedTime(retryMaxElapsed),
	}
	if notify != nil {
		opts = append(opts, backoff.WithNotify(func(err error, next time.Duration) {
			notify(provider, op, err, next)
		}))
	}

	result, err := backoff.Retry(ctx, func() (T, error) {
		out, err := fn(ctx)
		if err != nil && !Transient(err) {
			return out, backoff.Permanent(err)
		}
		return out, err
	}, opts...)
	if err != nil {
		return result, &AdapterError{Provider: provider, Op: op, Cause: err, Retryable: false}
	}
	return result, nil
}
