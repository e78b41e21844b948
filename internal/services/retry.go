package services

import (
	"context"
	"time"
)

// RetryPolicy bounds retries of transient external failures.
type RetryPolicy struct {
	Attempts int
	Base     time.Duration
	Factor   float64
}

// DefaultRetryPolicy retries transient failures three times with exponential
// backoff before the caller downgrades the step to "no result".
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Base: 500 * time.Millisecond, Factor: 2}
}

// Retry invokes fn until it succeeds, returns a non-transient error, or the
// attempt budget is spent. The last error is returned in the failure case.
func Retry(ctx context.Context, policy RetryPolicy, fn func(context.Context) error) error {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	if policy.Factor <= 1 {
		policy.Factor = 2
	}

	var lastErr error
	delay := policy.Base
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) || attempt == policy.Attempts {
			return lastErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * policy.Factor)
	}
	return lastErr
}
