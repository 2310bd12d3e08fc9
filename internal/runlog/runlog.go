// Package runlog owns the per-run output directory: one timestamped
// directory per run holding the log file and every screenshot.
package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Screenshot checkpoint names; the numeric prefix keeps the directory
// listing in flow order.
const (
	ShotInitialPage      = "01_initial_page"
	ShotLoginTab         = "02_login_tab"
	ShotLoginSubmitted   = "03_login_submitted"
	ShotLoginOK          = "04_login_ok"
	ShotLoginFailed      = "04_login_failed"
	ShotDateSelected     = "05_date_selected"
	ShotPlayersSelected  = "06_players_selected"
	ShotContinued        = "07_continued"
	ShotSlotsBefore      = "08_slots_before"
	ShotSlotSelected     = "09_slot_selected"
	ShotFinalContinue    = "10_final_continue"
	ShotAgreementChecked = "11_agreement_checked"
	ShotBookingConfirmed = "12_booking_confirmed"
)

// ErrorShot names the screenshot taken when a stage fails.
func ErrorShot(stage string) string {
	return "error_" + stage
}

// Run is one run's output directory and logger.
type Run struct {
	ID        string
	Dir       string
	Logger    *zap.Logger
	StartedAt time.Time

	logFile *os.File
}

// Open creates <baseDir>/run_YYYYMMDD_HHMMSS with logs/ and
// screenshots/ beneath it, and builds a logger that tees console
// output to stderr and JSON entries to logs/teefore.log.
func Open(baseDir string, now time.Time, debug bool) (*Run, error) {
	dir := filepath.Join(baseDir, "run_"+now.Format("20060102_150405"))
	for _, sub := range []string{"logs", "screenshots"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return nil, fmt.Errorf("create run directory: %w", err)
		}
	}

	logPath := filepath.Join(dir, "logs", "teefore.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	fileCfg := zap.NewProductionEncoderConfig()
	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), level),
		zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(logFile), level),
	)

	id := uuid.NewString()
	logger := zap.New(core).With(zap.String("run_id", id))

	return &Run{
		ID:        id,
		Dir:       dir,
		Logger:    logger,
		StartedAt: now,
		logFile:   logFile,
	}, nil
}

// SaveScreenshot writes a PNG under screenshots/ and returns its path.
func (r *Run) SaveScreenshot(name string, png []byte) (string, error) {
	path := filepath.Join(r.Dir, "screenshots", name+".png")
	if err := os.WriteFile(path, png, 0644); err != nil {
		return "", fmt.Errorf("save screenshot %s: %w", name, err)
	}
	return path, nil
}

// Close flushes the logger and releases the log file.
func (r *Run) Close() {
	_ = r.Logger.Sync()
	if r.logFile != nil {
		_ = r.logFile.Close()
	}
}
