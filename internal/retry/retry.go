// Package retry wraps an operation with bounded fixed-delay retries. Retries
// are uniform: the RPC layer does not classify failures as transient or
// permanent, so every error is retried until the attempt budget runs out.
package retry

import (
	"context"
	"time"
)

const (
	// DefaultAttempts and DefaultDelay match the pacing the rate-limited
	// contract service is known to tolerate.
	DefaultAttempts = 3
	DefaultDelay    = time.Second
)

// Do invokes op up to attempts times, sleeping delay between failures. On
// success it returns op's value; on exhaustion it returns the last error
// unchanged. The delay is interruptible by ctx, in which case the context
// error is returned.
func Do[T any](ctx context.Context, attempts int, delay time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}
	return zero, lastErr
}

// Default runs op with the default attempt budget and delay.
func Default[T any](ctx context.Context, op func(ctx context.Context) (T, error)) (T, error) {
	return Do(ctx, DefaultAttempts, DefaultDelay, op)
}
