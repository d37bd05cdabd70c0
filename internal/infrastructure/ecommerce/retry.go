package ecommerce

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/warehouse/stocksync/internal/domain/marketplace"
)

// RetryPolicy bounds how often a marketplace call is repeated.
// Delay before attempt n+1 is Backoff*n.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy is three attempts with 500ms linear backoff
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, Backoff: 500 * time.Millisecond}

// IsRetryable reports whether err is transient: a network failure or an
// HTTP 5xx. Configuration errors and rejections, 429 included, are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, marketplace.ErrPlatformUnavailable)
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempts are used up. The last error is returned unwrapped.
func Do(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var n int
	linear := retry.BackoffFunc(func() (time.Duration, bool) {
		n++
		return policy.Backoff * time.Duration(n), false
	})
	backoff := retry.WithMaxRetries(uint64(attempts-1), linear)

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if IsRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}
