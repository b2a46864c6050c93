package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/deckedit/internal/translate"
)

// RetryPolicy bounds how often a transient translation failure is retried.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	Max         time.Duration
}

// DefaultRetry allows three attempts, backing off 1s then 2s plus jitter.
var DefaultRetry = RetryPolicy{MaxAttempts: 3, Base: time.Second, Max: 30 * time.Second}

// IsRetryable checks if a translation error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *translate.RetryableError
	return errors.As(err, &retryErr)
}

// Delay returns the wait before retry number attempt (0-indexed): Base
// doubled per attempt, capped at Max, plus up to 50% jitter.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	base := p.Base << uint(attempt)
	if base <= 0 || (p.Max > 0 && base > p.Max) {
		base = p.Max
	}
	if base <= 0 {
		return 0
	}
	half := int64(base) / 2
	if half == 0 {
		return base
	}
	return base + time.Duration(rand.Int64N(half))
}

// Do calls fn until it succeeds, fails with a non-retryable error, or the
// attempts run out. It returns the last error.
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error) error {
	attempts := max(p.MaxAttempts, 1)
	var err error
	for attempt := range attempts {
		err = fn(attempt)
		if err == nil || !IsRetryable(err) || attempt == attempts-1 {
			return err
		}
		select {
		case <-time.After(p.Delay(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
