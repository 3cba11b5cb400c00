// Package driver is the remote browser control channel used by the session
// controller. It exposes a deliberately small surface: navigate, locate one
// element, act on it, read its text, run a script, and release the connection.
//
// Find is the only operation that reports a missing element. Callers match on
// the outcome with Classify:
//
//	switch driver.Classify(err) {
//	case driver.OK:
//	case driver.NotFound:
//		// clear the persisted value and prompt again
//	case driver.ActionFailed:
//		return err
//	}
package driver

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotFound is returned (wrapped) by Find when no element matches the locator.
var ErrNotFound = errors.New("element not found")

// LocatorKind selects how a Locator value is interpreted.
type LocatorKind string

const (
	ByCSS      LocatorKind = "css"
	ByName     LocatorKind = "name"
	ByLinkText LocatorKind = "linkText"
	ByXPath    LocatorKind = "xpath"
	ByTag      LocatorKind = "tag"
)

// Locator identifies a single remote element.
type Locator struct {
	Kind  LocatorKind
	Value string
}

func CSS(selector string) Locator { return Locator{Kind: ByCSS, Value: selector} }
func Name(name string) Locator { return Locator{Kind: ByName, Value: name} }
func LinkText(text string) Locator { return Locator{Kind: ByLinkText, Value: text} }
func XPath(expr string) Locator { return Locator{Kind: ByXPath, Value: expr} }
func Tag(tag string) Locator { return Locator{Kind: ByTag, Value: tag} }

func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.Kind, l.Value)
}

// Selector renders the locator in playwright selector syntax.
func (l Locator) Selector() string {
	switch l.Kind {
	case ByName:
		return fmt.Sprintf("[name=%s]", strconv.Quote(l.Value))
	case ByLinkText:
		return fmt.Sprintf("a:text-is(%s)", strconv.Quote(l.Value))
	case ByXPath:
		return "xpath=" + l.Value
	default:
		return l.Value
	}
}

// XPathLiteral quotes s as an XPath 1.0 string literal. XPath has no escape
// sequences, so values holding both quote characters are split into concat().
func XPathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, len(parts)*2)
	for i, part := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		if part != "" {
			quoted = append(quoted, `"`+part+`"`)
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// Element is an opaque reference to a remote element returned by Find or Focused.
type Element interface {
	Locator() Locator
}

// Driver is the set of remote operations the controller needs. Every method
// blocks until the remote side answers.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Find(ctx context.Context, loc Locator) (Element, error)
	// Focused returns the element that currently holds keyboard focus.
	Focused(ctx context.Context) (Element, error)
	Click(ctx context.Context, el Element) error
	// Type sends text as individual key strokes.
	Type(ctx context.Context, el Element, text string) error
	// Press sends a single key chord such as "Shift+Insert".
	Press(ctx context.Context, el Element, chord string) error
	Text(ctx context.Context, el Element) (string, error)
	ExecuteScript(ctx context.Context, script string, args ...any) (any, error)
	// Release closes the connection. Calls after the first return nil.
	Release(ctx context.Context) error
}

// ActionError is a remote failure that is not a missing element.
type ActionError struct {
	Op      string
	Locator Locator
	Err     error
}

func (e *ActionError) Error() string {
	if e.Locator.Value == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.Locator, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// Outcome is the tagged result of a driver call.
type Outcome int

const (
	OK Outcome = iota
	NotFound
	ActionFailed
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case NotFound:
		return "not found"
	default:
		return "action failed"
	}
}

// Classify maps an error returned by a Driver to its outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, ErrNotFound):
		return NotFound
	default:
		return ActionFailed
	}
}

// FindAndClick locates an element and clicks it.
func FindAndClick(ctx context.Context, d Driver, loc Locator) error {
	el, err := d.Find(ctx, loc)
	if err != nil {
		return err
	}
	return d.Click(ctx, el)
}

// TextOf locates an element and returns its visible text.
func TextOf(ctx context.Context, d Driver, loc Locator) (string, error) {
	el, err := d.Find(ctx, loc)
	if err != nil {
		return "", err
	}
	return d.Text(ctx, el)
}

// BodyText returns the visible text of the whole page.
func BodyText(ctx context.Context, d Driver) (string, error) {
	return TextOf(ctx, d, Tag("body"))
}
