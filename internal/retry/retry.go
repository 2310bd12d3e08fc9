// Package retry runs the bounded booking attempt loop. It is
// deliberately specific to this bot: one loop, one policy, two
// outcomes besides success.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"teefore/internal/schedule"
)

// Policy bounds the attempt loop in both count and wall-clock time.
type Policy struct {
	MaxAttempts int
	Interval    time.Duration
	Budget      time.Duration
}

var (
	// ErrAttemptsExhausted reports that every allowed attempt failed.
	ErrAttemptsExhausted = errors.New("all attempts failed")
	// ErrBudgetExceeded reports that the time budget ran out first.
	ErrBudgetExceeded = errors.New("retry budget exceeded")
)

// fatalError marks an error that must not be retried.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }

func (e *fatalError) Unwrap() error { return e.err }

// Fatal wraps err so the attempt loop stops immediately.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal reports whether err carries the no-retry marker.
func IsFatal(err error) bool {
	var fe *fatalError
	return errors.As(err, &fe)
}

// Do calls fn until it succeeds, fails fatally, or the policy is spent.
// The attempt argument is 1-based. Between attempts it sleeps
// policy.Interval, cut short when the budget deadline would pass first.
func Do(ctx context.Context, clock schedule.Clock, policy Policy, logger *zap.Logger, fn func(ctx context.Context, attempt int) error) error {
	deadline := clock.Now().Add(policy.Budget)

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if IsFatal(err) {
			return err
		}
		lastErr = err
		logger.Warn("attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", policy.MaxAttempts),
			zap.Error(err))

		if attempt == policy.MaxAttempts {
			break
		}

		remaining := deadline.Sub(clock.Now())
		if remaining <= 0 {
			return fmt.Errorf("%w after %d attempts: %w", ErrBudgetExceeded, attempt, lastErr)
		}
		pause := policy.Interval
		if pause > remaining {
			pause = remaining
		}
		if err := clock.Sleep(ctx, pause); err != nil {
			return err
		}
		if !clock.Now().Before(deadline) {
			return fmt.Errorf("%w after %d attempts: %w", ErrBudgetExceeded, attempt, lastErr)
		}
	}

	return fmt.Errorf("%w (%d attempts): %w", ErrAttemptsExhausted, policy.MaxAttempts, lastErr)
}
