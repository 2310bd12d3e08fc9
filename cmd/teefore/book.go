package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"teefore/internal/booking"
	"teefore/internal/browser"
	"teefore/internal/config"
	"teefore/internal/retry"
	"teefore/internal/runlog"
	"teefore/internal/schedule"
)

var testMode bool

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Run a booking: wait for the release and grab a slot",
	Long: `Runs the full booking: open the site, log in, wait until just
before the release instant, then retry the booking flow until a slot
is secured or the retry budget runs out.

With --test the wait and the retry loop are skipped and the flow is
exercised once, end to end, so selectors and credentials can be
verified off-hours.`,
	RunE: runBook,
}

func init() {
	bookCmd.Flags().BoolVarP(&testMode, "test", "t", false, "single pass, no wait, no retries")
}

func runBook(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return &exitCodeError{code: 2, err: err}
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	if testMode {
		cfg.Booking.TestMode = true
	}
	if err := cfg.Validate(); err != nil {
		return &exitCodeError{code: 2, err: fmt.Errorf("invalid configuration: %w", err)}
	}

	release, err := schedule.NewRelease(cfg.Schedule)
	if err != nil {
		return &exitCodeError{code: 2, err: err}
	}

	run, err := runlog.Open(cfg.Output.Dir, time.Now(), verbose)
	if err != nil {
		return &exitCodeError{code: 2, err: err}
	}
	defer run.Close()
	logger.Info("run directory created", zap.String("dir", run.Dir))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	driver := browser.New(cfg.Browser, run.Logger)
	if err := driver.Start(ctx); err != nil {
		return &exitCodeError{code: 2, err: err}
	}
	defer func() {
		if err := driver.Close(); err != nil {
			run.Logger.Warn("browser close failed", zap.Error(err))
		}
	}()

	pages, err := booking.NewPages(driver, run, booking.DefaultSelectors(), cfg)
	if err != nil {
		return &exitCodeError{code: 2, err: err}
	}

	runner := &booking.Runner{
		Flow:    pages,
		Clock:   &schedule.SystemClock{},
		Release: release,
		Policy: retry.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Interval:    cfg.Retry.Interval.Std(),
			Budget:      cfg.Retry.Budget.Std(),
		},
		Logger:   run.Logger,
		TestMode: cfg.Booking.TestMode,
	}

	result := runner.Run(ctx)
	run.Logger.Info("run finished",
		zap.Stringer("outcome", result.Outcome),
		zap.Int("attempts", result.Attempts),
		zap.Duration("elapsed", result.Elapsed),
		zap.Error(result.Err))

	switch result.Outcome {
	case booking.Booked:
		cmd.Printf("Booked after %d attempt(s) in %s. Artifacts: %s\n",
			result.Attempts, result.Elapsed.Round(time.Millisecond), run.Dir)
		return nil
	case booking.AttemptsExhausted:
		return &exitCodeError{code: 1, err: fmt.Errorf("booking failed: %w", result.Err)}
	default:
		return &exitCodeError{code: 2, err: fmt.Errorf("booking aborted: %w", result.Err)}
	}
}
