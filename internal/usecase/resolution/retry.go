package resolution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finview/finview-backend/internal/domain"
)

// sleepFunc pauses for d or until ctx is done. Swapped out in tests so
// the backoff schedule can be asserted without real waiting.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// withRetry runs fn up to attempts times, sleeping base before the second
// try and doubling the delay after each further failure. Only rate-limit
// failures are retried; anything else returns immediately. When every
// attempt was rate limited the failure is reported as
// ErrProviderUnavailable, so the pipeline treats it like any other
// escalation failure.
func withRetry[T any](ctx context.Context, attempts int, base time.Duration, sleep sleepFunc, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var err error
	delay := base

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if serr := sleep(ctx, delay); serr != nil {
				return zero, serr
			}
			delay *= 2
		}

		var out T
		out, err = fn(ctx)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, domain.ErrRateLimited) {
			return zero, err
		}
	}

	return zero, fmt.Errorf("%w: %d rate-limited attempts: %v", domain.ErrProviderUnavailable, attempts, err)
}
