package booking

import (
	"context"

	"teefore/internal/browser"
)

// driver is the slice of the browser driver the page objects consume.
type driver interface {
	Find(ctx context.Context, q browser.Query) (element, error)
	FindAll(ctx context.Context, loc browser.Locator) ([]element, error)
	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	WaitReady(ctx context.Context) error
	Screenshot(ctx context.Context) ([]byte, error)
}

// element is the slice of a located element the page objects consume.
type element interface {
	Text() (string, error)
	Input(text string) error
	Click() error
	Disabled() (bool, error)
	HasClass(name string) (bool, error)
	Checked() (bool, error)
	ScrollIntoView() error
	ElementIn(selector string) (element, error)
}

// rodDriver adapts *browser.Driver to the driver seam.
type rodDriver struct {
	*browser.Driver
}

func (d rodDriver) Find(ctx context.Context, q browser.Query) (element, error) {
	el, err := d.Driver.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	return rodElement{el}, nil
}

func (d rodDriver) FindAll(ctx context.Context, loc browser.Locator) ([]element, error) {
	els, err := d.Driver.FindAll(ctx, loc)
	if err != nil {
		return nil, err
	}
	out := make([]element, len(els))
	for i, el := range els {
		out[i] = rodElement{el}
	}
	return out, nil
}

type rodElement struct {
	*browser.Element
}

func (e rodElement) ElementIn(selector string) (element, error) {
	child, err := e.Element.ElementIn(selector)
	if err != nil {
		return nil, err
	}
	return rodElement{child}, nil
}
