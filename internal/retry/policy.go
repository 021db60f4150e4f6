// Package retry provides the shared retry policy for publish and write
// paths.
//
// The policy is an explicit value shared by the event publisher and the
// metrics writer so that backoff behaviour is configured once rather than
// duplicated ad hoc. Delays grow exponentially from the base delay, are
// capped at the maximum delay, and are spread by a configurable jitter
// fraction to avoid thundering-herd retries.
package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/nerrad567/device-pulse/internal/infrastructure/config"
)

// Policy describes a bounded exponential backoff schedule.
//
// The zero value is not useful; construct with FromConfig or populate all
// fields. A Policy is immutable and safe for concurrent use.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the delay before the second attempt.
	BaseDelay time.Duration

	// MaxDelay caps the delay between attempts.
	MaxDelay time.Duration

	// Jitter is the fraction of each delay randomised away, in [0, 1].
	// A delay d becomes a uniform value in [d*(1-Jitter), d].
	Jitter float64
}

// FromConfig builds a Policy from the retry configuration section.
func FromConfig(cfg config.RetryConfig) Policy {
	return Policy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   time.Duration(cfg.BaseDelayMS) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.MaxDelayMS) * time.Millisecond,
		Jitter:      cfg.Jitter,
	}
}

// Delay returns the backoff delay to wait after the given failed attempt.
//
// Attempts are numbered from 1. The delay doubles per attempt, capped at
// MaxDelay, then reduced by up to Jitter fraction.
//
// Parameters:
//   - attempt: The attempt number that just failed (1-based)
//
// Returns:
//   - time.Duration: How long to wait before the next attempt
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := p.BaseDelay << (attempt - 1)
	if delay > p.MaxDelay || delay <= 0 {
		// The shift overflows for large attempt counts; treat as capped.
		delay = p.MaxDelay
	}

	if p.Jitter > 0 {
		spread := time.Duration(float64(delay) * p.Jitter * rand.Float64())
		delay -= spread
	}

	return delay
}

// Wait sleeps for the backoff delay after the given failed attempt,
// returning early if the context is cancelled.
//
// Parameters:
//   - ctx: Context for cancellation
//   - attempt: The attempt number that just failed (1-based)
//
// Returns:
//   - error: ctx.Err() if cancelled during the wait, nil otherwise
func (p Policy) Wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(p.Delay(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
