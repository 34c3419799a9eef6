package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Op is the operation being retried.
type Op[T any] func(ctx context.Context) (T, error)

// Notify is called after each failed attempt that will be retried.
type Notify func(err error, attempt int, wait time.Duration)

// Do calls op up to maxAttempts times in total, waiting delay between
// attempts. It returns the first success, or the last error once attempts are
// exhausted. Values of maxAttempts below 1 are treated as 1. A cancelled ctx
// stops the loop with the context's error.
func Do[T any](ctx context.Context, op Op[T], maxAttempts int, delay time.Duration) (T, error) {
	return DoNotify(ctx, op, maxAttempts, delay, nil)
}

// DoNotify is Do with a callback between attempts.
func DoNotify[T any](ctx context.Context, op Op[T], maxAttempts int, delay time.Duration, notify Notify) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if delay < 0 {
		delay = 0
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(maxAttempts-1)),
		ctx,
	)

	attempt := 0
	operation := func() (T, error) {
		attempt++
		return op(ctx)
	}

	var onRetry backoff.Notify
	if notify != nil {
		onRetry = func(err error, wait time.Duration) {
			notify(err, attempt, wait)
		}
	}

	return backoff.RetryNotifyWithData[T](operation, policy, onRetry)
}

// Permanent marks err as not worth retrying; Do returns it immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
