package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/pterm/pterm"
)

// DefaultFindTimeout bounds how long Find waits for an element to appear.
const DefaultFindTimeout = 5 * time.Second

// Playwright implements Driver on top of a single playwright page.
type Playwright struct {
	pw          *playwright.Playwright
	browser     playwright.Browser
	page        playwright.Page
	findTimeout time.Duration
	logger      *pterm.Logger

	// afterClose runs once the browser is closed, e.g. to delete a cloud browser.
	afterClose func(ctx context.Context) error

	releaseOnce sync.Once
}

var _ Driver = (*Playwright)(nil)

type handle struct {
	loc Locator
	el  playwright.ElementHandle
}

func (h *handle) Locator() Locator { return h.loc }

func (p *Playwright) unwrap(el Element) (*handle, error) {
	h, ok := el.(*handle)
	if !ok || h == nil || h.el == nil {
		return nil, fmt.Errorf("element %v does not belong to this driver", el)
	}
	return h, nil
}

func (p *Playwright) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.logger.Debug("navigate", p.logger.Args("url", url))
	if _, err := p.page.Goto(url); err != nil {
		return &ActionError{Op: "navigate", Err: err}
	}
	return nil
}

func (p *Playwright) Find(ctx context.Context, loc Locator) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	state := playwright.WaitForSelectorState("attached")
	timeout := float64(p.findTimeout.Milliseconds())
	el, err := p.page.WaitForSelector(loc.Selector(), playwright.PageWaitForSelectorOptions{
		State:   &state,
		Timeout: &timeout,
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			p.logger.Debug("element not found", p.logger.Args("locator", loc.String()))
			return nil, fmt.Errorf("%w: %s", ErrNotFound, loc)
		}
		return nil, &ActionError{Op: "find", Locator: loc, Err: err}
	}
	if el == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, loc)
	}
	return &handle{loc: loc, el: el}, nil
}

func (p *Playwright) Focused(ctx context.Context) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	js, err := p.page.EvaluateHandle("() => document.activeElement")
	if err != nil {
		return nil, &ActionError{Op: "focused", Err: err}
	}
	el := js.AsElement()
	if el == nil {
		return nil, fmt.Errorf("%w: focused element", ErrNotFound)
	}
	return &handle{loc: CSS(":focus"), el: el}, nil
}

func (p *Playwright) Click(ctx context.Context, el Element) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h, err := p.unwrap(el)
	if err != nil {
		return err
	}
	if err := h.el.Click(); err != nil {
		return &ActionError{Op: "click", Locator: h.loc, Err: err}
	}
	return nil
}

func (p *Playwright) Type(ctx context.Context, el Element, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h, err := p.unwrap(el)
	if err != nil {
		return err
	}
	if err := h.el.Type(text); err != nil {
		return &ActionError{Op: "type", Locator: h.loc, Err: err}
	}
	return nil
}

func (p *Playwright) Press(ctx context.Context, el Element, chord string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h, err := p.unwrap(el)
	if err != nil {
		return err
	}
	if err := h.el.Press(chord); err != nil {
		return &ActionError{Op: "press " + chord, Locator: h.loc, Err: err}
	}
	return nil
}

func (p *Playwright) Text(ctx context.Context, el Element) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h, err := p.unwrap(el)
	if err != nil {
		return "", err
	}
	text, err := h.el.InnerText()
	if err != nil {
		return "", &ActionError{Op: "read text", Locator: h.loc, Err: err}
	}
	return text, nil
}

func (p *Playwright) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		res any
		err error
	)
	switch len(args) {
	case 0:
		res, err = p.page.Evaluate(script)
	case 1:
		res, err = p.page.Evaluate(script, args[0])
	default:
		res, err = p.page.Evaluate(script, args)
	}
	if err != nil {
		return nil, &ActionError{Op: "script", Err: err}
	}
	return res, nil
}

// Release closes the browser, runs the backend cleanup, and stops playwright.
// Only the first call does any work.
func (p *Playwright) Release(ctx context.Context) error {
	var err error
	p.releaseOnce.Do(func() {
		p.logger.Debug("releasing browser")
		var errs []error
		if p.browser != nil {
			if err := p.browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close browser: %w", err))
			}
		}
		if p.afterClose != nil {
			if err := p.afterClose(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		if p.pw != nil {
			if err := p.pw.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("stop playwright: %w", err))
			}
		}
		err = errors.Join(errs...)
	})
	return err
}
