package booking

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"teefore/internal/retry"
	"teefore/internal/schedule"
)

// Flow is the page sequence the runner drives. Pages implements it;
// tests script it.
type Flow interface {
	Open(ctx context.Context) error
	SignIn(ctx context.Context) error
	Refresh(ctx context.Context) error
	BookOnce(ctx context.Context, target time.Time) error
}

// Outcome classifies how a run ended.
type Outcome int

const (
	Booked Outcome = iota
	AttemptsExhausted
	FatalFailure
)

func (o Outcome) String() string {
	switch o {
	case Booked:
		return "booked"
	case AttemptsExhausted:
		return "attempts-exhausted"
	case FatalFailure:
		return "fatal"
	default:
		return "unknown"
	}
}

// Result reports one run.
type Result struct {
	Outcome  Outcome
	Attempts int
	Elapsed  time.Duration
	Err      error
}

// Runner owns one booking run: wait for release, then attempt the
// flow on the retry policy.
type Runner struct {
	Flow     Flow
	Clock    schedule.Clock
	Release  schedule.Release
	Policy   retry.Policy
	Logger   *zap.Logger
	TestMode bool
}

// Run executes the booking. In test mode it skips the wait and the
// retry loop and makes a single pass, so the flow can be exercised
// off-hours without burning the release window.
func (r *Runner) Run(ctx context.Context) Result {
	start := r.Clock.Now()
	plan := r.Release.PlanAt(start)

	result := func(outcome Outcome, attempts int, err error) Result {
		return Result{Outcome: outcome, Attempts: attempts, Elapsed: r.Clock.Now().Sub(start), Err: err}
	}

	r.Logger.Info("run starting",
		zap.Bool("test_mode", r.TestMode),
		zap.String("target_date", plan.TargetDateString()),
		zap.Time("release_at", plan.ReleaseAt))

	// Open and authenticate before the wait so the session is ready
	// the moment slots appear.
	if err := r.Flow.Open(ctx); err != nil {
		return result(FatalFailure, 0, err)
	}
	if err := r.Flow.SignIn(ctx); err != nil {
		return result(FatalFailure, 0, err)
	}

	if r.TestMode {
		if err := r.Flow.BookOnce(ctx, plan.TargetDate); err != nil {
			if retry.IsFatal(err) {
				return result(FatalFailure, 1, err)
			}
			return result(AttemptsExhausted, 1, err)
		}
		return result(Booked, 1, nil)
	}

	waiter := schedule.Waiter{Clock: r.Clock, Logger: r.Logger}
	if err := waiter.Wait(ctx, plan); err != nil {
		return result(FatalFailure, 0, err)
	}

	attempts := 0
	err := retry.Do(ctx, r.Clock, r.Policy, r.Logger, func(ctx context.Context, attempt int) error {
		attempts = attempt
		if attempt > 1 {
			if err := r.Flow.Refresh(ctx); err != nil {
				return err
			}
		}
		return r.Flow.BookOnce(ctx, plan.TargetDate)
	})
	switch {
	case err == nil:
		r.Logger.Info("booked", zap.Int("attempts", attempts))
		return result(Booked, attempts, nil)
	case retry.IsFatal(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return result(FatalFailure, attempts, err)
	default:
		return result(AttemptsExhausted, attempts, err)
	}
}
