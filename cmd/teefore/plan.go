package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"teefore/internal/config"
	"teefore/internal/schedule"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the computed release plan without touching a browser",
	Long: `Computes and prints the target date, release instant, and wake
instant for a run started now. Use it to sanity-check the timezone and
release-time configuration before trusting an early-morning wake-up.`,
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	release, err := schedule.NewRelease(cfg.Schedule)
	if err != nil {
		return err
	}

	plan := release.PlanAt(time.Now())
	cmd.Print(formatPlan(plan, time.Now()))
	return nil
}

func formatPlan(plan schedule.Plan, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Target date:  %s\n", plan.TargetDateString())
	fmt.Fprintf(&b, "Release at:   %s\n", plan.ReleaseAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Wake at:      %s\n", plan.WakeAt.Format("2006-01-02 15:04:05 MST"))
	switch {
	case now.After(plan.ReleaseAt):
		fmt.Fprintf(&b, "Release passed %s ago; a scheduled run would abort.\n",
			now.Sub(plan.ReleaseAt).Round(time.Second))
	default:
		fmt.Fprintf(&b, "Time to wake: %s\n", plan.WakeAt.Sub(now).Round(time.Second))
	}
	return b.String()
}
