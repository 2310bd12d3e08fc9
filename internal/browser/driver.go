// Package browser wraps a single rod-driven Chrome session. The booking
// flow runs on exactly one page, so the driver exposes one page and the
// element primitives the page objects need, nothing more.
package browser

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"teefore/internal/config"
)

// Driver owns the browser process and the single booking page.
type Driver struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	browser *rod.Browser
	page    *rod.Page
}

// New creates a driver; Start launches or attaches the browser.
func New(cfg config.BrowserConfig, logger *zap.Logger) *Driver {
	return &Driver{cfg: cfg, logger: logger}
}

// Start connects to an existing Chrome via DebuggerURL or launches a
// new one, then opens the page the whole run will use.
func (d *Driver) Start(ctx context.Context) error {
	controlURL := d.cfg.DebuggerURL
	if controlURL == "" {
		launch := launcher.New().Headless(d.cfg.Headless).
			Set(flags.NoSandbox).
			Set("disable-dev-shm-usage").
			Set("window-size", fmt.Sprintf("%d,%d", d.cfg.WindowWidth, d.cfg.WindowHeight))
		if d.cfg.Bin != "" {
			launch = launch.Bin(d.cfg.Bin)
		}
		url, err := launch.Launch()
		if err != nil {
			return fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = url
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if d.cfg.SlowMotion > 0 {
		browser = browser.SlowMotion(d.cfg.SlowMotion.Std())
	}
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}
	d.browser = browser

	incognito, err := browser.Incognito()
	if err != nil {
		_ = browser.Close()
		return fmt.Errorf("incognito context: %w", err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		return fmt.Errorf("create page: %w", err)
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             d.cfg.WindowWidth,
		Height:            d.cfg.WindowHeight,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		d.logger.Warn("failed to set viewport", zap.Error(err))
	}

	d.page = page
	d.logger.Debug("browser started",
		zap.Bool("headless", d.cfg.Headless),
		zap.String("viewport", strconv.Itoa(d.cfg.WindowWidth)+"x"+strconv.Itoa(d.cfg.WindowHeight)))
	return nil
}

// Navigate loads url and waits for the load event.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	page := d.page.Context(ctx).Timeout(d.cfg.NavTimeout.Std())
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait for load of %s: %w", url, err)
	}
	return nil
}

// Reload refreshes the page and waits for the load event.
func (d *Driver) Reload(ctx context.Context) error {
	page := d.page.Context(ctx).Timeout(d.cfg.NavTimeout.Std())
	if err := page.Reload(); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait for load after reload: %w", err)
	}
	return nil
}

// WaitReady waits for document.readyState to settle and, when the site
// runs jQuery, for its request queue to drain. The Chronogolf widget
// fires Angular work off jQuery requests, so a quiet queue is the
// closest signal to "the widget finished rendering".
func (d *Driver) WaitReady(ctx context.Context) error {
	page := d.page.Context(ctx).Timeout(d.cfg.NavTimeout.Std())
	res, err := page.Evaluate(&rod.EvalOptions{
		JS: `
		() => new Promise((resolve) => {
			const check = () => {
				if (document.readyState !== 'complete') return false;
				if (typeof jQuery !== 'undefined' && jQuery.active !== 0) return false;
				return true;
			};
			if (check()) { resolve(true); return; }
			const timer = setInterval(() => {
				if (check()) { clearInterval(timer); resolve(true); }
			}, 100);
		})
		`,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return fmt.Errorf("wait for page ready: %w", err)
	}
	if res == nil || !res.Value.Bool() {
		return fmt.Errorf("page did not become ready")
	}
	return nil
}

// Screenshot captures the full page as PNG.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := d.page.Context(ctx).Screenshot(true, nil)
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return data, nil
}

// Close shuts the browser down.
func (d *Driver) Close() error {
	if d.browser == nil {
		return nil
	}
	err := d.browser.Close()
	d.browser = nil
	d.page = nil
	return err
}
