package booking

import (
	"fmt"

	"teefore/internal/browser"
)

// Selectors holds every locator chain for the Chronogolf widget. The
// widget's markup has drifted across site releases, so each interaction
// point keeps its older addresses as fallbacks.
type Selectors struct {
	MembersTab     []browser.Locator
	EmailField     []browser.Locator
	PasswordField  []browser.Locator
	LoginButton    []browser.Locator
	LoginSuccess   []browser.Locator
	MonthTitle     []browser.Locator
	NextMonth      []browser.Locator
	ContinueButton []browser.Locator
	SlotContainer  browser.Locator
	SlotTime       string
	SlotRate       string
	FinalContinue  []browser.Locator
	AgreeCheckbox  []browser.Locator
	ConfirmBooking []browser.Locator
}

// DefaultSelectors returns the locator table for the current widget.
func DefaultSelectors() Selectors {
	return Selectors{
		MembersTab: []browser.Locator{
			browser.CSS("li.widget-auth-tab--member"),
			browser.CSS("li.booking-widget-login"),
			browser.XPath("//li[contains(@class, 'widget-auth-tab--member')]"),
		},
		EmailField: []browser.Locator{
			browser.CSS("#email"),
			browser.CSS("input[name='email']"),
			browser.CSS("input[type='email']"),
		},
		PasswordField: []browser.Locator{
			browser.CSS("#password"),
			browser.CSS("input[name='password']"),
			browser.CSS("input[type='password']"),
		},
		LoginButton: []browser.Locator{
			browser.CSS("input.fl-button-primary[type='submit'][value='Log in']"),
			browser.CSS("input[type='submit']"),
		},
		LoginSuccess: []browser.Locator{
			browser.CSS("a.widget-auth-tab--logout"),
			browser.CSS("a.widget-link.icon-exit"),
			browser.CSS("[qa-class='widget-auth-tab--logout']"),
		},
		MonthTitle: []browser.Locator{
			browser.CSS("button.btn.btn-default.btn-sm.uib-title strong"),
		},
		NextMonth: []browser.Locator{
			browser.CSS("button.btn.btn-default.btn-sm[ng-click*='move(1)']"),
		},
		ContinueButton: []browser.Locator{
			browser.CSS("button.fl-button-primary[ng-click*='continue']"),
			browser.XPath("//button[contains(@class, 'fl-button-primary') and contains(., 'Continue')]"),
		},
		SlotContainer: browser.CSS("div.widget-teetime"),
		SlotTime:      "div.widget-teetime-tag",
		SlotRate:      "a.widget-teetime-rate",
		FinalContinue: []browser.Locator{
			browser.CSS("button.fl-button.fl-button-primary[ng-click='confirmStep()']"),
			browser.CSS("button.fl-button-block.fl-button-primary"),
			browser.XPath("//button[contains(@class, 'fl-button-primary') and text()='Continue']"),
		},
		AgreeCheckbox: []browser.Locator{
			browser.CSS("input[ng-model='vm.acceptTermsAndConditions'][type='checkbox']"),
			browser.CSS("input.fl-checkbox-input[ng-required='true']"),
			browser.CSS("input[type='checkbox'][required]"),
		},
		ConfirmBooking: []browser.Locator{
			browser.CSS("button.fl-button-primary[type='submit']"),
			browser.CSS("button.fl-button-primary.fl-button-block"),
			browser.XPath("//button[contains(@class, 'fl-button-primary') and contains(text(), 'Confirm')]"),
		},
	}
}

// DayCell returns the locator chain for a calendar day. The datepicker
// renders some themes zero-padded and some not, and grays out-of-month
// days with text-muted.
func DayCell(day int) []browser.Locator {
	padded := fmt.Sprintf("%02d", day)
	plain := fmt.Sprintf("%d", day)
	locs := []browser.Locator{
		browser.XPath(fmt.Sprintf("//span[not(contains(@class, 'text-muted')) and text()='%s']/..", padded)),
	}
	if plain != padded {
		locs = append(locs,
			browser.XPath(fmt.Sprintf("//span[not(contains(@class, 'text-muted')) and text()='%s']/..", plain)))
	}
	return locs
}

// PlayerButton returns the locator chain for the n-player toggle.
func PlayerButton(n int) []browser.Locator {
	return []browser.Locator{
		browser.XPath(fmt.Sprintf("//a[contains(@class, 'toggler-heading') and contains(text(), '%d')]", n)),
		browser.XPath(fmt.Sprintf("//a[contains(@class, 'fl-button') and contains(text(), '%d')]", n)),
		browser.XPath(fmt.Sprintf("//a[contains(@ng-model, 'nbPlayers') and contains(text(), '%d')]", n)),
	}
}
