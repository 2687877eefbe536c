// Package retry re-runs whole units of work that failed with an error marked retryable
// (errs.ErrRetryable): lock wait timeouts, optimistic version conflicts and database
// serialization or deadlock failures. Any other error stops the loop immediately.
package retry

import (
	"context"
	"time"

	"fulfillment/internal/pkg/errs"

	"github.com/cenkalti/backoff/v4"
)

// Policy configures exponential backoff with jitter between attempts.
type Policy struct {
	// MaxRetries is the number of extra attempts after the first one.
	MaxRetries int
	// InitialBackoff is the wait before the first retry; it doubles on every retry.
	InitialBackoff time.Duration
	// MaxBackoff caps a single wait.
	MaxBackoff time.Duration
}

// DefaultPolicy returns three retries starting at 50ms.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     time.Second,
	}
}

// NotifyFunc is called before each retry with the failure and the wait that follows.
type NotifyFunc func(err error, attempt int, wait time.Duration)

// Do runs fn until it succeeds, fails with a non-retryable error, the retries are
// exhausted or ctx is done. The last error is returned unchanged, so callers can still
// inspect it with errors.Is.
//
// Example:
//
//	details, err := retry.Do(ctx, h.policy, func(ctx context.Context) (views.OrderDetails, error) {
//	    return h.attempt(ctx, cmd)
//	}, nil)
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error), notify NotifyFunc) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0.25
	b.MaxElapsedTime = 0
	if p.MaxBackoff > 0 {
		b.MaxInterval = p.MaxBackoff
	}
	b.Reset()

	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	attempt := 0
	op := func() (T, error) {
		attempt++
		result, err := fn(ctx)
		if err != nil && !errs.IsRetryable(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}

	var onRetry backoff.Notify
	if notify != nil {
		onRetry = func(err error, wait time.Duration) {
			notify(err, attempt, wait)
		}
	}

	return backoff.RetryNotifyWithData(op, backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries)), ctx), onRetry)
}
