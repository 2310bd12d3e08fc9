// Package schedule computes the slot release instant and holds the bot
// back until shortly before it.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"teefore/internal/config"
)

// ErrReleasePassed reports that the release moment is already behind us,
// so a scheduled run has nothing left to race for.
var ErrReleasePassed = errors.New("release time has already passed")

// Release describes when slots open: a wall-clock time in a fixed
// timezone, booking a date AdvanceDays ahead, waking Lead before it.
type Release struct {
	Location    *time.Location
	Hour        int
	Minute      int
	AdvanceDays int
	Lead        time.Duration
}

// NewRelease builds a Release from configuration.
func NewRelease(cfg config.ScheduleConfig) (Release, error) {
	hour, minute, err := config.ParseClock(cfg.ReleaseTime)
	if err != nil {
		return Release{}, fmt.Errorf("parse release time %q: %w", cfg.ReleaseTime, err)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Release{}, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	return Release{
		Location:    loc,
		Hour:        hour,
		Minute:      minute,
		AdvanceDays: cfg.AdvanceDays,
		Lead:        cfg.Lead.Std(),
	}, nil
}

// Plan holds the computed instants for one run.
type Plan struct {
	// TargetDate is the calendar date to book, in the release timezone.
	TargetDate time.Time
	// ReleaseAt is today's release instant in the release timezone.
	ReleaseAt time.Time
	// WakeAt is ReleaseAt minus the lead time.
	WakeAt time.Time
}

// TargetDateString formats the target date as YYYY-MM-DD.
func (p Plan) TargetDateString() string {
	return p.TargetDate.Format("2006-01-02")
}

// PlanAt computes the run plan for the given wall-clock moment.
// Using time.Date for the release instant keeps the math correct
// across DST transitions: the release is a wall-clock fact, not a
// fixed offset from midnight.
func (r Release) PlanAt(now time.Time) Plan {
	local := now.In(r.Location)
	y, m, d := local.Date()
	releaseAt := time.Date(y, m, d, r.Hour, r.Minute, 0, 0, r.Location)
	target := time.Date(y, m, d, 0, 0, 0, 0, r.Location).AddDate(0, 0, r.AdvanceDays)
	return Plan{
		TargetDate: target,
		ReleaseAt:  releaseAt,
		WakeAt:     releaseAt.Add(-r.Lead),
	}
}

// Waiter sleeps a run until its wake instant.
type Waiter struct {
	Clock  Clock
	Logger *zap.Logger
}

// Wait blocks until plan.WakeAt. It never returns early: after each
// sleep the clock is re-checked and any shortfall is slept again. A
// run that starts after the release instant fails with
// ErrReleasePassed; starting at the instant itself is still in time.
func (w Waiter) Wait(ctx context.Context, plan Plan) error {
	now := w.Clock.Now()
	if now.After(plan.ReleaseAt) {
		return fmt.Errorf("%w: release %s, now %s",
			ErrReleasePassed, plan.ReleaseAt.Format(time.RFC3339), now.Format(time.RFC3339))
	}

	w.Logger.Info("waiting for release",
		zap.Time("release_at", plan.ReleaseAt),
		zap.Time("wake_at", plan.WakeAt),
		zap.Duration("sleep", plan.WakeAt.Sub(now)))

	for {
		remaining := plan.WakeAt.Sub(w.Clock.Now())
		if remaining <= 0 {
			break
		}
		if err := w.Clock.Sleep(ctx, remaining); err != nil {
			return fmt.Errorf("wait interrupted: %w", err)
		}
	}

	woke := w.Clock.Now()
	w.Logger.Info("awake",
		zap.Time("woke_at", woke),
		zap.Duration("drift", woke.Sub(plan.WakeAt)))
	return nil
}
