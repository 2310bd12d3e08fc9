// Package config holds the layered teefore configuration: built-in
// defaults, an optional YAML file, then environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that reads and writes as a string like
// "10s" in both YAML and environment values.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText implements encoding.TextUnmarshaler for env parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config holds all teefore configuration.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Booking  BookingConfig  `yaml:"booking"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Retry    RetryConfig    `yaml:"retry"`
	Browser  BrowserConfig  `yaml:"browser"`
	Output   OutputConfig   `yaml:"output"`
}

// SiteConfig identifies the booking site and the member account.
type SiteConfig struct {
	BookingURL string `yaml:"booking_url" env:"BOOKING_URL"`
	Username   string `yaml:"username" env:"GOLF_USERNAME"`
	Password   string `yaml:"password" env:"GOLF_PASSWORD"`
}

// BookingConfig describes what to book.
type BookingConfig struct {
	// TimeRange is the acceptable slot window as "HH:MM-HH:MM".
	TimeRange string `yaml:"time_range" env:"PREFERRED_TIME_RANGE"`
	Players   int    `yaml:"players" env:"NUMBER_OF_PLAYERS"`
	TestMode  bool   `yaml:"test_mode" env:"TEEFORE_TEST_MODE"`
}

// ScheduleConfig describes when slots are released.
type ScheduleConfig struct {
	Timezone string `yaml:"timezone" env:"BOOKING_TIMEZONE"`
	// ReleaseTime is the wall-clock release instant as "HH:MM" in Timezone.
	ReleaseTime string        `yaml:"release_time" env:"RELEASE_TIME"`
	AdvanceDays int           `yaml:"advance_days" env:"ADVANCE_DAYS"`
	Lead        Duration `yaml:"lead" env:"RELEASE_LEAD"`
}

// RetryConfig bounds the attempt loop after the release moment.
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" env:"MAX_RETRIES"`
	Interval       Duration `yaml:"interval" env:"RETRY_INTERVAL"`
	Budget         Duration `yaml:"budget" env:"RETRY_BUDGET"`
	ElementTimeout Duration `yaml:"element_timeout" env:"ELEMENT_TIMEOUT"`
}

// BrowserConfig configures the Chrome session.
type BrowserConfig struct {
	Headless     bool          `yaml:"headless" env:"BROWSER_HEADLESS"`
	Bin          string        `yaml:"bin" env:"BROWSER_BIN"`
	DebuggerURL  string        `yaml:"debugger_url" env:"BROWSER_DEBUGGER_URL"`
	WindowWidth  int           `yaml:"window_width"`
	WindowHeight int           `yaml:"window_height"`
	NavTimeout   Duration `yaml:"nav_timeout" env:"NAV_TIMEOUT"`
	SlowMotion   Duration `yaml:"slow_motion"`
}

// OutputConfig configures where run artifacts land.
type OutputConfig struct {
	Dir string `yaml:"dir" env:"TEEFORE_OUTPUT_DIR"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Booking: BookingConfig{
			TimeRange: "08:00-11:00",
			Players:   4,
		},
		Schedule: ScheduleConfig{
			Timezone:    "America/Los_Angeles",
			ReleaseTime: "07:00",
			AdvanceDays: 7,
			Lead:        Duration(10 * time.Second),
		},
		Retry: RetryConfig{
			MaxAttempts:    60,
			Interval:       Duration(time.Second),
			Budget:         Duration(5 * time.Minute),
			ElementTimeout: Duration(3 * time.Second),
		},
		Browser: BrowserConfig{
			Headless:     true,
			WindowWidth:  1920,
			WindowHeight: 1080,
			NavTimeout:   Duration(30 * time.Second),
		},
		Output: OutputConfig{
			Dir: "output",
		},
	}
}

// Load loads configuration from a YAML file, then applies environment
// overrides. A missing file is not an error; defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks the configuration, reporting the first offending field.
func (c *Config) Validate() error {
	if c.Site.BookingURL == "" {
		return fmt.Errorf("booking URL not configured (set BOOKING_URL or site.booking_url)")
	}
	if c.Site.Username == "" {
		return fmt.Errorf("username not configured (set GOLF_USERNAME or site.username)")
	}
	if c.Site.Password == "" {
		return fmt.Errorf("password not configured (set GOLF_PASSWORD or site.password)")
	}
	if _, _, err := ParseClock(c.Schedule.ReleaseTime); err != nil {
		return fmt.Errorf("invalid schedule.release_time %q: %w", c.Schedule.ReleaseTime, err)
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("invalid schedule.timezone %q: %w", c.Schedule.Timezone, err)
	}
	if c.Schedule.AdvanceDays < 0 {
		return fmt.Errorf("schedule.advance_days must be non-negative, got %d", c.Schedule.AdvanceDays)
	}
	if c.Schedule.Lead <= 0 {
		return fmt.Errorf("schedule.lead must be positive, got %s", c.Schedule.Lead)
	}
	if c.Booking.Players < 1 || c.Booking.Players > 4 {
		return fmt.Errorf("booking.players must be between 1 and 4, got %d", c.Booking.Players)
	}
	if err := validateTimeRange(c.Booking.TimeRange); err != nil {
		return fmt.Errorf("invalid booking.time_range %q: %w", c.Booking.TimeRange, err)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.Interval <= 0 {
		return fmt.Errorf("retry.interval must be positive, got %s", c.Retry.Interval)
	}
	if c.Retry.Budget <= 0 {
		return fmt.Errorf("retry.budget must be positive, got %s", c.Retry.Budget)
	}
	if c.Retry.ElementTimeout <= 0 {
		return fmt.Errorf("retry.element_timeout must be positive, got %s", c.Retry.ElementTimeout)
	}
	if c.Browser.WindowWidth <= 0 || c.Browser.WindowHeight <= 0 {
		return fmt.Errorf("browser window size must be positive, got %dx%d", c.Browser.WindowWidth, c.Browser.WindowHeight)
	}
	return nil
}

// Location returns the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Schedule.Timezone)
}

// ParseClock parses a wall-clock "HH:MM" value.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("expected HH:MM: %w", err)
	}
	return t.Hour(), t.Minute(), nil
}

func validateTimeRange(s string) error {
	start, end, ok := strings.Cut(s, "-")
	if !ok {
		return fmt.Errorf("expected HH:MM-HH:MM")
	}
	if _, _, err := ParseClock(start); err != nil {
		return err
	}
	if _, _, err := ParseClock(end); err != nil {
		return err
	}
	return nil
}
