package remote

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

// CallOptions bound a single remote call: a per-attempt timeout plus a small
// retry budget for transient failures.
type CallOptions struct {
	Timeout  time.Duration
	Attempts uint64
	Base     time.Duration
}

// DefaultCallOptions matches the engine defaults: 2 attempts, 10s timeout.
func DefaultCallOptions(timeout time.Duration) CallOptions {
	return CallOptions{Timeout: timeout, Attempts: 2, Base: 250 * time.Millisecond}
}

// Call runs fn with a per-attempt timeout, retrying transient failures with
// exponential backoff until the attempt budget is spent. Timeouts are not
// distinguished from other transient failures. Cancellation of ctx stops
// retrying immediately.
func Call(ctx context.Context, opts CallOptions, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(opts.Attempts-1, retry.NewExponential(opts.Base))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		defer cancel()

		err := fn(attemptCtx)
		if errors.Is(err, ErrUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
}
