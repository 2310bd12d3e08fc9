package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeClock advances instantly on Sleep.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func testPolicy() Policy {
	return Policy{MaxAttempts: 5, Interval: time.Second, Budget: time.Minute}
}

func TestDo_SuccessFirstAttempt(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	calls := 0

	err := Do(context.Background(), clock, testPolicy(), zap.NewNop(), func(ctx context.Context, attempt int) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Empty(t, clock.sleeps, "no sleep after success")
}

func TestDo_SuccessAfterTransientFailures(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	calls := 0

	err := Do(context.Background(), clock, testPolicy(), zap.NewNop(), func(ctx context.Context, attempt int) error {
		calls++
		require.Equal(t, calls, attempt)
		if attempt < 3 {
			return errors.New("slot list empty")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Len(t, clock.sleeps, 2)
}

func TestDo_FatalStopsImmediately(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	calls := 0
	authErr := errors.New("login rejected")

	err := Do(context.Background(), clock, testPolicy(), zap.NewNop(), func(ctx context.Context, attempt int) error {
		calls++
		return Fatal(authErr)
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
	require.True(t, IsFatal(err))
	require.ErrorIs(t, err, authErr)
}

func TestDo_AttemptsExhausted(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	calls := 0
	stepErr := errors.New("continue button missing")

	err := Do(context.Background(), clock, testPolicy(), zap.NewNop(), func(ctx context.Context, attempt int) error {
		calls++
		return stepErr
	})
	require.ErrorIs(t, err, ErrAttemptsExhausted)
	require.ErrorIs(t, err, stepErr)
	require.Equal(t, 5, calls)
	// No sleep after the final attempt.
	require.Len(t, clock.sleeps, 4)
}

func TestDo_BudgetExceeded(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	policy := Policy{MaxAttempts: 100, Interval: time.Second, Budget: 3 * time.Second}
	calls := 0

	err := Do(context.Background(), clock, policy, zap.NewNop(), func(ctx context.Context, attempt int) error {
		calls++
		return errors.New("not yet")
	})
	require.ErrorIs(t, err, ErrBudgetExceeded)
	require.LessOrEqual(t, calls, 4, "budget must cut the loop well before MaxAttempts")
}

func TestDo_BudgetShortensFinalSleep(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	policy := Policy{MaxAttempts: 10, Interval: 10 * time.Second, Budget: 15 * time.Second}

	err := Do(context.Background(), clock, policy, zap.NewNop(), func(ctx context.Context, attempt int) error {
		return errors.New("not yet")
	})
	require.ErrorIs(t, err, ErrBudgetExceeded)
	require.Len(t, clock.sleeps, 2)
	require.Equal(t, 10*time.Second, clock.sleeps[0])
	require.Equal(t, 5*time.Second, clock.sleeps[1], "final sleep clipped to the budget")
}

func TestDo_ContextCancelled(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := Do(ctx, clock, testPolicy(), zap.NewNop(), func(ctx context.Context, attempt int) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestFatal(t *testing.T) {
	require.Nil(t, Fatal(nil))

	base := errors.New("boom")
	wrapped := Fatal(base)
	require.True(t, IsFatal(wrapped))
	require.ErrorIs(t, wrapped, base)

	// The marker survives further wrapping.
	outer := errors.Join(errors.New("context"), wrapped)
	require.True(t, IsFatal(outer))

	require.False(t, IsFatal(base))
	require.False(t, IsFatal(nil))
}
