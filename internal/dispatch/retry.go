package dispatch

import (
	"context"
	"time"

	"outreach_backend/internal/email"
)

// BackoffFunc maps a 1-based attempt number to the pause before the next try.
type BackoffFunc func(attempt int) time.Duration

// LinearBackoff grows the pause linearly with the attempt number.
func LinearBackoff(base time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * base
	}
}

// RetryPolicy retries transient failures up to a fixed cap. Terminal
// failures, as classified by the email package, are returned immediately.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     BackoffFunc
}

// NewRetryPolicy builds a policy with linear backoff.
func NewRetryPolicy(maxAttempts int, backoffBase time.Duration) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff:     LinearBackoff(backoffBase),
	}
}

// Do runs fn under the policy. The sleep between tries honors context
// cancellation.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !email.IsTransient(lastErr) {
			return lastErr
		}

		if attempt < p.MaxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Backoff(attempt)):
			}
		}
	}
	return lastErr
}
