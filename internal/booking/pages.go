// Package booking drives the Chronogolf reservation widget: one page
// object per screen, a slot-picking policy, and the runner that ties
// them to the release schedule and the retry loop.
package booking

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"teefore/internal/browser"
	"teefore/internal/config"
	"teefore/internal/retry"
	"teefore/internal/runlog"
)

// maxMonthHops bounds calendar navigation; bookings never sit more
// than a few months out.
const maxMonthHops = 12

// loginVerifyTimeout allows the post-submit redirect to settle.
const loginVerifyTimeout = 15 * time.Second

type base struct {
	driver  driver
	run     *runlog.Run
	sel     Selectors
	timeout time.Duration
	logger  *zap.Logger
}

func (b *base) find(ctx context.Context, locs []browser.Locator, cond browser.Condition) (element, error) {
	return b.driver.Find(ctx, browser.Query{Locators: locs, Condition: cond, Timeout: b.timeout})
}

// shoot captures a checkpoint screenshot. A failed screenshot never
// fails the booking step it documents.
func (b *base) shoot(ctx context.Context, name string) {
	png, err := b.driver.Screenshot(ctx)
	if err != nil {
		b.logger.Warn("screenshot failed", zap.String("name", name), zap.Error(err))
		return
	}
	if _, err := b.run.SaveScreenshot(name, png); err != nil {
		b.logger.Warn("screenshot not saved", zap.String("name", name), zap.Error(err))
	}
}

func (b *base) clickEnabled(ctx context.Context, locs []browser.Locator, what string) error {
	btn, err := b.find(ctx, locs, browser.Clickable)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	disabled, err := btn.Disabled()
	if err != nil {
		return fmt.Errorf("%s state: %w", what, err)
	}
	if disabled {
		return fmt.Errorf("%s is disabled", what)
	}
	if err := btn.Click(); err != nil {
		return fmt.Errorf("click %s: %w", what, err)
	}
	return nil
}

// LoginPage handles member authentication.
type LoginPage struct {
	base
	username string
	password string
}

// Login opens the members tab, submits credentials, and verifies the
// logged-in marker. A verification miss means the credentials are bad,
// which no amount of retrying fixes.
func (p *LoginPage) Login(ctx context.Context) error {
	p.logger.Info("logging in", zap.String("username", p.username))

	tab, err := p.find(ctx, p.sel.MembersTab, browser.Clickable)
	if err != nil {
		return fmt.Errorf("members tab: %w", err)
	}
	if err := tab.Click(); err != nil {
		return fmt.Errorf("open members tab: %w", err)
	}
	p.shoot(ctx, runlog.ShotLoginTab)

	email, err := p.find(ctx, p.sel.EmailField, browser.Visible)
	if err != nil {
		return fmt.Errorf("email field: %w", err)
	}
	if err := email.Input(p.username); err != nil {
		return fmt.Errorf("fill email: %w", err)
	}

	password, err := p.find(ctx, p.sel.PasswordField, browser.Visible)
	if err != nil {
		return fmt.Errorf("password field: %w", err)
	}
	if err := password.Input(p.password); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}

	if err := p.clickEnabled(ctx, p.sel.LoginButton, "login button"); err != nil {
		return err
	}
	p.shoot(ctx, runlog.ShotLoginSubmitted)

	_, err = p.driver.Find(ctx, browser.Query{
		Locators:  p.sel.LoginSuccess,
		Condition: browser.Visible,
		Timeout:   loginVerifyTimeout,
	})
	if err != nil {
		p.shoot(ctx, runlog.ShotLoginFailed)
		return retry.Fatal(fmt.Errorf("login not accepted: %w", err))
	}

	p.shoot(ctx, runlog.ShotLoginOK)
	p.logger.Info("login verified")
	return nil
}

// DatePage handles the calendar.
type DatePage struct {
	base
}

// SelectDate pages the calendar to the target month and clicks the day.
func (p *DatePage) SelectDate(ctx context.Context, target time.Time) error {
	p.logger.Info("selecting date", zap.String("date", target.Format("2006-01-02")))

	for hop := 0; ; hop++ {
		title, err := p.find(ctx, p.sel.MonthTitle, browser.Visible)
		if err != nil {
			return fmt.Errorf("month title: %w", err)
		}
		text, err := title.Text()
		if err != nil {
			return fmt.Errorf("month title text: %w", err)
		}
		current, err := time.Parse("January 2006", text)
		if err != nil {
			return fmt.Errorf("parse month title %q: %w", text, err)
		}
		if current.Year() == target.Year() && current.Month() == target.Month() {
			break
		}
		if hop >= maxMonthHops {
			return fmt.Errorf("target month %s not reached after %d hops", target.Format("January 2006"), hop)
		}
		if err := p.clickEnabled(ctx, p.sel.NextMonth, "next month button"); err != nil {
			return err
		}
	}

	if err := p.clickEnabled(ctx, DayCell(target.Day()), fmt.Sprintf("day %d", target.Day())); err != nil {
		return err
	}
	p.shoot(ctx, runlog.ShotDateSelected)
	return nil
}

// PlayersPage handles the party-size toggles.
type PlayersPage struct {
	base
}

// Select clicks the n-player toggle, skipping the click when the
// widget already shows it active.
func (p *PlayersPage) Select(ctx context.Context, n int) error {
	p.logger.Info("selecting players", zap.Int("players", n))

	btn, err := p.find(ctx, PlayerButton(n), browser.Clickable)
	if err != nil {
		return fmt.Errorf("player button %d: %w", n, err)
	}
	disabled, err := btn.Disabled()
	if err != nil {
		return fmt.Errorf("player button state: %w", err)
	}
	if disabled {
		return fmt.Errorf("player button %d is disabled", n)
	}
	active, err := btn.HasClass("active")
	if err != nil {
		return fmt.Errorf("player button state: %w", err)
	}
	if !active {
		if err := btn.Click(); err != nil {
			return fmt.Errorf("click player button %d: %w", n, err)
		}
	}
	p.shoot(ctx, runlog.ShotPlayersSelected)
	return nil
}

// SlotsPage scrapes and picks tee-time slots.
type SlotsPage struct {
	base
}

// Choose scrapes the slot list, picks per ChooseSlot, and clicks the
// winner's rate link. An empty or out-of-window list is transient: the
// sheet fills in over the seconds after release.
func (p *SlotsPage) Choose(ctx context.Context, window Window) (Slot, error) {
	p.shoot(ctx, runlog.ShotSlotsBefore)

	containers, err := p.driver.FindAll(ctx, p.sel.SlotContainer)
	if err != nil {
		return Slot{}, fmt.Errorf("slot containers: %w", err)
	}
	if len(containers) == 0 {
		return Slot{}, fmt.Errorf("no tee-time slots rendered yet")
	}

	var slots []Slot
	rates := make(map[int]element, len(containers))
	for i, container := range containers {
		timeEl, err := container.ElementIn(p.sel.SlotTime)
		if err != nil {
			continue
		}
		label, err := timeEl.Text()
		if err != nil {
			continue
		}
		slotTime, err := ParseSlotTime(label)
		if err != nil {
			p.logger.Debug("skipping slot with odd label", zap.String("label", label))
			continue
		}
		rate, err := container.ElementIn(p.sel.SlotRate)
		if err != nil {
			continue
		}
		if disabled, err := rate.HasClass("disabled"); err != nil || disabled {
			continue
		}
		slots = append(slots, Slot{Time: slotTime, Index: i})
		rates[i] = rate
	}

	chosen, ok := ChooseSlot(slots, window)
	if !ok {
		return Slot{}, fmt.Errorf("no open slot in window %s (%d slots scraped)", window, len(slots))
	}

	rate := rates[chosen.Index]
	if err := rate.ScrollIntoView(); err != nil {
		return Slot{}, fmt.Errorf("scroll to slot: %w", err)
	}
	if err := rate.Click(); err != nil {
		return Slot{}, fmt.Errorf("click slot: %w", err)
	}

	p.logger.Info("slot selected", zap.String("time", chosen.Time.Format("15:04")))
	p.shoot(ctx, runlog.ShotSlotSelected)
	return chosen, nil
}

// ConfirmPage handles the continue / agreement / confirm screens.
type ConfirmPage struct {
	base
}

// ContinueToSlots advances from date+players to the tee sheet.
func (p *ConfirmPage) ContinueToSlots(ctx context.Context) error {
	if err := p.clickEnabled(ctx, p.sel.ContinueButton, "continue button"); err != nil {
		return err
	}
	p.shoot(ctx, runlog.ShotContinued)
	return nil
}

// FinalContinue advances from the chosen slot to the agreement screen.
func (p *ConfirmPage) FinalContinue(ctx context.Context) error {
	if err := p.clickEnabled(ctx, p.sel.FinalContinue, "final continue button"); err != nil {
		return err
	}
	p.shoot(ctx, runlog.ShotFinalContinue)
	return nil
}

// AcceptAgreement ticks the terms checkbox unless already ticked.
func (p *ConfirmPage) AcceptAgreement(ctx context.Context) error {
	// The agreement screen renders the checkbox below the fold after
	// an async load; settle the page before looking for it.
	if err := p.driver.WaitReady(ctx); err != nil {
		return fmt.Errorf("agreement screen: %w", err)
	}

	checkbox, err := p.find(ctx, p.sel.AgreeCheckbox, browser.Present)
	if err != nil {
		return fmt.Errorf("agreement checkbox: %w", err)
	}
	checked, err := checkbox.Checked()
	if err != nil {
		return fmt.Errorf("agreement checkbox state: %w", err)
	}
	if !checked {
		if err := checkbox.ScrollIntoView(); err != nil {
			return fmt.Errorf("scroll to checkbox: %w", err)
		}
		if err := checkbox.Click(); err != nil {
			return fmt.Errorf("tick agreement checkbox: %w", err)
		}
	}
	p.shoot(ctx, runlog.ShotAgreementChecked)
	return nil
}

// Confirm submits the reservation and waits for the site to settle.
func (p *ConfirmPage) Confirm(ctx context.Context) error {
	if err := p.clickEnabled(ctx, p.sel.ConfirmBooking, "confirm button"); err != nil {
		return err
	}
	if err := p.driver.WaitReady(ctx); err != nil {
		return fmt.Errorf("confirmation did not settle: %w", err)
	}
	p.shoot(ctx, runlog.ShotBookingConfirmed)
	p.logger.Info("booking confirmed")
	return nil
}

// Pages aggregates the page objects into the Flow the runner drives.
type Pages struct {
	Login   *LoginPage
	Date    *DatePage
	Players *PlayersPage
	Slots   *SlotsPage
	Confirm *ConfirmPage

	base

	url     string
	players int
	window  Window
}

// NewPages wires the page objects to a driver and run.
func NewPages(drv *browser.Driver, run *runlog.Run, sel Selectors, cfg *config.Config) (*Pages, error) {
	window, err := ParseTimeRange(cfg.Booking.TimeRange)
	if err != nil {
		return nil, err
	}

	b := base{
		driver:  rodDriver{drv},
		run:     run,
		sel:     sel,
		timeout: cfg.Retry.ElementTimeout.Std(),
		logger:  run.Logger,
	}
	return &Pages{
		Login:   &LoginPage{base: b, username: cfg.Site.Username, password: cfg.Site.Password},
		Date:    &DatePage{base: b},
		Players: &PlayersPage{base: b},
		Slots:   &SlotsPage{base: b},
		Confirm: &ConfirmPage{base: b},
		base:    b,
		url:     cfg.Site.BookingURL,
		players: cfg.Booking.Players,
		window:  window,
	}, nil
}

// step runs one stage of the flow and captures the page state when it
// fails. A dead 07:00 run leaves visual evidence next to the log.
func (p *Pages) step(ctx context.Context, stage string, fn func(context.Context) error) error {
	err := fn(ctx)
	if err != nil {
		p.shoot(ctx, runlog.ErrorShot(stage))
	}
	return err
}

// Open navigates to the booking widget.
func (p *Pages) Open(ctx context.Context) error {
	return p.step(ctx, "open", func(ctx context.Context) error {
		p.logger.Info("opening booking site", zap.String("url", p.url))
		if err := p.driver.Navigate(ctx, p.url); err != nil {
			return err
		}
		if err := p.driver.WaitReady(ctx); err != nil {
			return err
		}
		p.shoot(ctx, runlog.ShotInitialPage)
		return nil
	})
}

// SignIn runs the login page.
func (p *Pages) SignIn(ctx context.Context) error {
	return p.step(ctx, "login", p.Login.Login)
}

// Refresh reloads the widget between attempts so a half-finished pass
// starts from a clean tee sheet.
func (p *Pages) Refresh(ctx context.Context) error {
	return p.step(ctx, "refresh", func(ctx context.Context) error {
		if err := p.driver.Reload(ctx); err != nil {
			return err
		}
		return p.driver.WaitReady(ctx)
	})
}

// BookOnce runs one full booking pass for the target date.
func (p *Pages) BookOnce(ctx context.Context, target time.Time) error {
	if err := p.step(ctx, "date_selection", func(ctx context.Context) error {
		return p.Date.SelectDate(ctx, target)
	}); err != nil {
		return err
	}
	if err := p.step(ctx, "player_selection", func(ctx context.Context) error {
		return p.Players.Select(ctx, p.players)
	}); err != nil {
		return err
	}
	if err := p.step(ctx, "continue", p.Confirm.ContinueToSlots); err != nil {
		return err
	}
	if err := p.step(ctx, "slot_selection", func(ctx context.Context) error {
		_, err := p.Slots.Choose(ctx, p.window)
		return err
	}); err != nil {
		return err
	}
	if err := p.step(ctx, "final_continue", p.Confirm.FinalContinue); err != nil {
		return err
	}
	if err := p.step(ctx, "agreement", p.Confirm.AcceptAgreement); err != nil {
		return err
	}
	return p.step(ctx, "confirmation", p.Confirm.Confirm)
}
