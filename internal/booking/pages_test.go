package booking

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"teefore/internal/browser"
	"teefore/internal/retry"
	"teefore/internal/runlog"
)

// fakeElement scripts one located element.
type fakeElement struct {
	textFn   func() (string, error)
	clickErr error
	clicked  int
	disabled bool
	classes  string
	checked  bool
	inputs   []string
	children map[string]element
}

func (e *fakeElement) Text() (string, error) {
	if e.textFn != nil {
		return e.textFn()
	}
	return "", nil
}

func (e *fakeElement) Input(text string) error {
	e.inputs = append(e.inputs, text)
	return nil
}

func (e *fakeElement) Click() error {
	e.clicked++
	return e.clickErr
}

func (e *fakeElement) Disabled() (bool, error) { return e.disabled, nil }

func (e *fakeElement) HasClass(name string) (bool, error) {
	for _, c := range strings.Fields(e.classes) {
		if c == name {
			return true, nil
		}
	}
	return false, nil
}

func (e *fakeElement) Checked() (bool, error) { return e.checked, nil }

func (e *fakeElement) ScrollIntoView() error { return nil }

func (e *fakeElement) ElementIn(selector string) (element, error) {
	child, ok := e.children[selector]
	if !ok {
		return nil, browser.ErrNotFound
	}
	return child, nil
}

// fakeDriver dispatches finds to a per-test script and counts the
// screenshots the pages take.
type fakeDriver struct {
	findFn    func(q browser.Query) (element, error)
	findAllFn func(loc browser.Locator) ([]element, error)
	shots     int
}

func (d *fakeDriver) Find(_ context.Context, q browser.Query) (element, error) {
	return d.findFn(q)
}

func (d *fakeDriver) FindAll(_ context.Context, loc browser.Locator) ([]element, error) {
	if d.findAllFn == nil {
		return nil, nil
	}
	return d.findAllFn(loc)
}

func (d *fakeDriver) Navigate(context.Context, string) error { return nil }
func (d *fakeDriver) Reload(context.Context) error           { return nil }
func (d *fakeDriver) WaitReady(context.Context) error        { return nil }

func (d *fakeDriver) Screenshot(context.Context) ([]byte, error) {
	d.shots++
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

func testPages(t *testing.T, d driver) (*Pages, *runlog.Run) {
	t.Helper()
	run, err := runlog.Open(t.TempDir(), time.Now(), false)
	require.NoError(t, err)
	t.Cleanup(run.Close)

	window, err := ParseTimeRange("08:00-11:00")
	require.NoError(t, err)

	b := base{
		driver:  d,
		run:     run,
		sel:     DefaultSelectors(),
		timeout: 50 * time.Millisecond,
		logger:  zap.NewNop(),
	}
	return &Pages{
		Login:   &LoginPage{base: b, username: "golfer@example.com", password: "secret"},
		Date:    &DatePage{base: b},
		Players: &PlayersPage{base: b},
		Slots:   &SlotsPage{base: b},
		Confirm: &ConfirmPage{base: b},
		base:    b,
		url:     "https://example.com/widget",
		players: 4,
		window:  window,
	}, run
}

func firstValue(locs []browser.Locator) string { return locs[0].Value }

func TestSelectDate_WalksToTargetMonth(t *testing.T) {
	sel := DefaultSelectors()
	target := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	next := &fakeElement{}
	titles := []string{"June 2026", "July 2026", "August 2026"}
	title := &fakeElement{textFn: func() (string, error) {
		return titles[next.clicked], nil
	}}
	day := &fakeElement{}

	d := &fakeDriver{findFn: func(q browser.Query) (element, error) {
		switch firstValue(q.Locators) {
		case firstValue(sel.MonthTitle):
			return title, nil
		case firstValue(sel.NextMonth):
			return next, nil
		case firstValue(DayCell(target.Day())):
			return day, nil
		}
		return nil, browser.ErrNotFound
	}}
	p, _ := testPages(t, d)

	require.NoError(t, p.Date.SelectDate(context.Background(), target))
	require.Equal(t, 2, next.clicked)
	require.Equal(t, 1, day.clicked)
}

func TestSelectDate_BoundsMonthHops(t *testing.T) {
	sel := DefaultSelectors()

	next := &fakeElement{}
	title := &fakeElement{textFn: func() (string, error) {
		return "June 2026", nil
	}}

	d := &fakeDriver{findFn: func(q browser.Query) (element, error) {
		switch firstValue(q.Locators) {
		case firstValue(sel.MonthTitle):
			return title, nil
		case firstValue(sel.NextMonth):
			return next, nil
		}
		return nil, browser.ErrNotFound
	}}
	p, _ := testPages(t, d)

	target := time.Date(2028, 1, 5, 0, 0, 0, 0, time.UTC)
	err := p.Date.SelectDate(context.Background(), target)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not reached after 12 hops")
	require.Equal(t, 12, next.clicked)
}

func TestSelectDate_BadMonthTitle(t *testing.T) {
	title := &fakeElement{textFn: func() (string, error) {
		return "Juin 2026", nil
	}}
	d := &fakeDriver{findFn: func(browser.Query) (element, error) {
		return title, nil
	}}
	p, _ := testPages(t, d)

	err := p.Date.SelectDate(context.Background(), time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse month title")
}

func TestSelectDate_DisabledDay(t *testing.T) {
	sel := DefaultSelectors()
	target := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	title := &fakeElement{textFn: func() (string, error) {
		return "August 2026", nil
	}}
	day := &fakeElement{disabled: true}

	d := &fakeDriver{findFn: func(q browser.Query) (element, error) {
		switch firstValue(q.Locators) {
		case firstValue(sel.MonthTitle):
			return title, nil
		case firstValue(DayCell(target.Day())):
			return day, nil
		}
		return nil, browser.ErrNotFound
	}}
	p, _ := testPages(t, d)

	err := p.Date.SelectDate(context.Background(), target)
	require.Error(t, err)
	require.Contains(t, err.Error(), "disabled")
	require.Zero(t, day.clicked)
}

func TestLogin_BadCredentialsAreFatal(t *testing.T) {
	sel := DefaultSelectors()

	email := &fakeElement{}
	password := &fakeElement{}
	other := &fakeElement{}

	d := &fakeDriver{findFn: func(q browser.Query) (element, error) {
		switch firstValue(q.Locators) {
		case firstValue(sel.EmailField):
			return email, nil
		case firstValue(sel.PasswordField):
			return password, nil
		case firstValue(sel.LoginSuccess):
			return nil, browser.ErrNotFound
		}
		return other, nil
	}}
	p, run := testPages(t, d)

	err := p.SignIn(context.Background())
	require.Error(t, err)
	require.True(t, retry.IsFatal(err), "a rejected login must not be retried")
	require.Equal(t, []string{"golfer@example.com"}, email.inputs)
	require.Equal(t, []string{"secret"}, password.inputs)

	require.FileExists(t, filepath.Join(run.Dir, "screenshots", runlog.ShotLoginFailed+".png"))
	require.FileExists(t, filepath.Join(run.Dir, "screenshots", "error_login.png"))
}

func TestBookOnce_SavesErrorScreenshotOnFailedStage(t *testing.T) {
	d := &fakeDriver{findFn: func(browser.Query) (element, error) {
		return nil, browser.ErrNotFound
	}}
	p, run := testPages(t, d)

	err := p.BookOnce(context.Background(), time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	require.FileExists(t, filepath.Join(run.Dir, "screenshots", "error_date_selection.png"))
}
