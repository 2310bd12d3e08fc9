package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Booking.Players != 4 {
		t.Errorf("expected Players=4, got %d", cfg.Booking.Players)
	}
	if cfg.Schedule.ReleaseTime != "07:00" {
		t.Errorf("expected ReleaseTime=07:00, got %s", cfg.Schedule.ReleaseTime)
	}
	if cfg.Schedule.AdvanceDays != 7 {
		t.Errorf("expected AdvanceDays=7, got %d", cfg.Schedule.AdvanceDays)
	}
	if cfg.Retry.MaxAttempts != 60 {
		t.Errorf("expected MaxAttempts=60, got %d", cfg.Retry.MaxAttempts)
	}
	if !cfg.Browser.Headless {
		t.Error("expected Headless=true by default")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default().Booking.TimeRange, cfg.Booking.TimeRange)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("booking: [not a map"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestConfig_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Site.BookingURL = "https://example.com/widget"
	cfg.Booking.Players = 2
	cfg.Schedule.ReleaseTime = "06:30"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("config did not survive the round trip (-saved +loaded):\n%s", diff)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.Site.Username = "from-file"
	cfg.Booking.Players = 2
	require.NoError(t, cfg.Save(path))

	t.Setenv("GOLF_USERNAME", "from-env")
	t.Setenv("NUMBER_OF_PLAYERS", "3")
	t.Setenv("RETRY_BUDGET", "2m")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-env", loaded.Site.Username)
	require.Equal(t, 3, loaded.Booking.Players)
	require.Equal(t, 2*time.Minute, loaded.Retry.Budget.Std())
}

func TestLoad_MalformedEnvValue(t *testing.T) {
	t.Setenv("NUMBER_OF_PLAYERS", "four")

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func validConfig() *Config {
	cfg := Default()
	cfg.Site.BookingURL = "https://example.com/widget"
	cfg.Site.Username = "member@example.com"
	cfg.Site.Password = "secret"
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing url", func(c *Config) { c.Site.BookingURL = "" }, "booking URL"},
		{"missing username", func(c *Config) { c.Site.Username = "" }, "username"},
		{"missing password", func(c *Config) { c.Site.Password = "" }, "password"},
		{"bad release time", func(c *Config) { c.Schedule.ReleaseTime = "7am" }, "release_time"},
		{"bad timezone", func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" }, "timezone"},
		{"negative advance days", func(c *Config) { c.Schedule.AdvanceDays = -1 }, "advance_days"},
		{"zero lead", func(c *Config) { c.Schedule.Lead = 0 }, "lead"},
		{"zero players", func(c *Config) { c.Booking.Players = 0 }, "players"},
		{"five players", func(c *Config) { c.Booking.Players = 5 }, "players"},
		{"bad time range", func(c *Config) { c.Booking.TimeRange = "morning" }, "time_range"},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "max_attempts"},
		{"zero interval", func(c *Config) { c.Retry.Interval = 0 }, "interval"},
		{"zero budget", func(c *Config) { c.Retry.Budget = 0 }, "budget"},
		{"zero element timeout", func(c *Config) { c.Retry.ElementTimeout = 0 }, "element_timeout"},
		{"zero window", func(c *Config) { c.Browser.WindowWidth = 0 }, "window size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("07:00")
	require.NoError(t, err)
	require.Equal(t, 7, h)
	require.Equal(t, 0, m)

	h, m, err = ParseClock(" 18:45 ")
	require.NoError(t, err)
	require.Equal(t, 18, h)
	require.Equal(t, 45, m)

	_, _, err = ParseClock("25:00")
	require.Error(t, err)
	_, _, err = ParseClock("7")
	require.Error(t, err)
}
