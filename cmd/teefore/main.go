package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	cfgPath   string
	verbose   bool
	outputDir string

	// Logger for CLI-level messages; each run builds its own run
	// logger under the run directory.
	logger *zap.Logger
)

var version = "dev"

// exitCodeError lets a command pick its process exit code: 1 for a
// failed booking, 2 for a fatal setup or authentication error.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }

func (e *exitCodeError) Unwrap() error { return e.err }

var rootCmd = &cobra.Command{
	Use:   "teefore",
	Short: "teefore - tee-time release sniper",
	Long: `teefore books a golf tee time on a Chronogolf-style widget the
moment slots are released.

It computes the release instant in the course's timezone, logs in
ahead of time, wakes shortly before release, and retries the booking
flow on a bounded budget until a slot is secured.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show teefore version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("teefore %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "teefore.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "override output directory")

	rootCmd.AddCommand(bookCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var ec *exitCodeError
		if errors.As(err, &ec) {
			os.Exit(ec.code)
		}
		os.Exit(1)
	}
}
