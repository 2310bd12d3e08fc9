package schedule

import (
	"context"
	"time"
)

// Clock abstracts time operations for testing.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock implements Clock using the standard time package.
type SystemClock struct{}

var _ Clock = (*SystemClock)(nil)

func (*SystemClock) Now() time.Time {
	return time.Now()
}

func (*SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		if !timer.Stop() {
			<-timer.C
		}
		return ctx.Err()
	}
}
