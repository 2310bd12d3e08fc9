package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// ErrNotFound reports that no locator in a query's chain matched.
var ErrNotFound = errors.New("element not found")

// By selects the locator language.
type By string

const (
	ByCSS   By = "css"
	ByXPath By = "xpath"
)

// Locator is a single way to address an element.
type Locator struct {
	By    By
	Value string
}

// CSS builds a CSS selector locator.
func CSS(v string) Locator { return Locator{By: ByCSS, Value: v} }

// XPath builds an XPath locator.
func XPath(v string) Locator { return Locator{By: ByXPath, Value: v} }

func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.By, l.Value)
}

// Condition is the state an element must reach before Find returns it.
type Condition int

const (
	// Present only requires the element to exist in the DOM.
	Present Condition = iota
	// Visible requires a non-hidden element.
	Visible
	// Clickable requires a visible element that accepts pointer input.
	Clickable
)

// Query is an ordered fallback chain of locators. The widget's markup
// has shifted across site updates, so every interaction point carries
// more than one way to address it.
type Query struct {
	Locators  []Locator
	Condition Condition
	Timeout   time.Duration
}

func (q Query) describe() string {
	parts := make([]string, len(q.Locators))
	for i, l := range q.Locators {
		parts[i] = l.String()
	}
	return strings.Join(parts, ", ")
}

const findPollInterval = 100 * time.Millisecond

// Find walks the fallback chain until one locator yields an element in
// the required state, polling until the query timeout expires. Stale or
// half-rendered elements fail the condition check and the chain moves
// on, so a transient DOM swap costs one poll round, not the whole find.
func (d *Driver) Find(ctx context.Context, q Query) (*Element, error) {
	timeout := q.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	deadline := time.Now().Add(timeout)

	for {
		for _, loc := range q.Locators {
			el, err := d.probe(ctx, loc, q.Condition)
			if err == nil {
				return el, nil
			}
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: tried %s", ErrNotFound, q.describe())
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(findPollInterval):
		}
	}
}

// probe tries one locator once, without sleeping, and verifies the
// condition. rod.Try keeps any panic from a mid-flight DOM mutation
// inside the primitive boundary.
func (d *Driver) probe(ctx context.Context, loc Locator, cond Condition) (*Element, error) {
	var el *rod.Element
	err := rod.Try(func() {
		page := d.page.Context(ctx).Sleeper(rod.NotFoundSleeper)
		var ferr error
		switch loc.By {
		case ByXPath:
			el, ferr = page.ElementX(loc.Value)
		default:
			el, ferr = page.Element(loc.Value)
		}
		if ferr != nil {
			panic(ferr)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("locate %s: %w", loc, err)
	}

	wrapped := &Element{el: el, driver: d}
	switch cond {
	case Visible, Clickable:
		visible, verr := el.Visible()
		if verr != nil || !visible {
			return nil, fmt.Errorf("%s not visible", loc)
		}
		if cond == Clickable {
			if _, ierr := el.Interactable(); ierr != nil {
				return nil, fmt.Errorf("%s not clickable: %w", loc, ierr)
			}
		}
	}
	return wrapped, nil
}

// FindAll returns every element matching the locator. An empty result
// is not an error.
func (d *Driver) FindAll(ctx context.Context, loc Locator) ([]*Element, error) {
	var els rod.Elements
	err := rod.Try(func() {
		page := d.page.Context(ctx).Sleeper(rod.NotFoundSleeper)
		var ferr error
		switch loc.By {
		case ByXPath:
			els, ferr = page.ElementsX(loc.Value)
		default:
			els, ferr = page.Elements(loc.Value)
		}
		if ferr != nil {
			panic(ferr)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("locate all %s: %w", loc, err)
	}

	out := make([]*Element, 0, len(els))
	for _, el := range els {
		out = append(out, &Element{el: el, driver: d})
	}
	return out, nil
}

// Element wraps a rod element with the error-returning surface the
// booking pages use.
type Element struct {
	el     *rod.Element
	driver *Driver
}

// Text returns the element's visible text, trimmed.
func (e *Element) Text() (string, error) {
	text, err := e.el.Text()
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Attribute returns the named attribute, or "" when absent.
func (e *Element) Attribute(name string) (string, error) {
	val, err := e.el.Attribute(name)
	if err != nil {
		return "", fmt.Errorf("read attribute %s: %w", name, err)
	}
	if val == nil {
		return "", nil
	}
	return *val, nil
}

// HasClass reports whether the class attribute contains name.
func (e *Element) HasClass(name string) (bool, error) {
	classes, err := e.Attribute("class")
	if err != nil {
		return false, err
	}
	for _, c := range strings.Fields(classes) {
		if c == name {
			return true, nil
		}
	}
	return false, nil
}

// Disabled reports whether the element carries a disabled attribute or
// a "disabled" class, the two ways the widget marks dead controls.
func (e *Element) Disabled() (bool, error) {
	attr, err := e.el.Attribute("disabled")
	if err != nil {
		return false, fmt.Errorf("read disabled attribute: %w", err)
	}
	if attr != nil {
		return true, nil
	}
	return e.HasClass("disabled")
}

// Input replaces the element's current value with text.
func (e *Element) Input(text string) error {
	if err := e.el.SelectAllText(); err != nil {
		return fmt.Errorf("select text: %w", err)
	}
	if err := e.el.Input(text); err != nil {
		return fmt.Errorf("input text: %w", err)
	}
	return nil
}

// Click performs a real mouse click, falling back to a JS click when
// the pointer event is intercepted by an overlay.
func (e *Element) Click() error {
	if err := e.el.Click(proto.InputMouseButtonLeft, 1); err == nil {
		return nil
	}
	if _, err := e.el.Eval("() => this.click()"); err != nil {
		return fmt.Errorf("click (js fallback): %w", err)
	}
	return nil
}

// ScrollIntoView scrolls the element into the viewport.
func (e *Element) ScrollIntoView() error {
	if err := e.el.ScrollIntoView(); err != nil {
		return fmt.Errorf("scroll into view: %w", err)
	}
	return nil
}

// Checked reports a checkbox's state.
func (e *Element) Checked() (bool, error) {
	prop, err := e.el.Property("checked")
	if err != nil {
		return false, fmt.Errorf("read checked: %w", err)
	}
	return prop.Bool(), nil
}

// Visible reports whether the element is rendered.
func (e *Element) Visible() (bool, error) {
	visible, err := e.el.Visible()
	if err != nil {
		return false, fmt.Errorf("check visibility: %w", err)
	}
	return visible, nil
}

// Parent returns the element's parent node.
func (e *Element) Parent() (*Element, error) {
	parent, err := e.el.Parent()
	if err != nil {
		return nil, fmt.Errorf("parent element: %w", err)
	}
	return &Element{el: parent, driver: e.driver}, nil
}

// ElementIn finds a descendant of this element by CSS selector.
func (e *Element) ElementIn(selector string) (*Element, error) {
	var child *rod.Element
	err := rod.Try(func() {
		c, ferr := e.el.Sleeper(rod.NotFoundSleeper).Element(selector)
		if ferr != nil {
			panic(ferr)
		}
		child = c
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s within element", ErrNotFound, selector)
	}
	return &Element{el: child, driver: e.driver}, nil
}
