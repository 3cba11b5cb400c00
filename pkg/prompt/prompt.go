// Package prompt asks the operator questions on the terminal.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

// ErrInterrupted is returned when the operator presses Ctrl+C inside a prompt.
var ErrInterrupted = errors.New("prompt interrupted")

// Kind selects how a question is presented.
type Kind int

const (
	Text Kind = iota
	Secret
	Select
)

// Question is a single prompt.
type Question struct {
	Kind    Kind
	Message string

	// Options lists the choices of a Select question.
	Options []string

	// Validate rejects an answer; the question is asked again in place.
	Validate func(answer string) error

	// Default is returned for a blank answer ("leave blank to keep current").
	// It is applied before validation.
	Default string
}

// Prompter presents a question and returns a validated answer.
type Prompter interface {
	Ask(ctx context.Context, q Question) (string, error)
}

// NonEmpty returns a validator that rejects blank answers with message.
func NonEmpty(message string) func(string) error {
	return func(answer string) error {
		if strings.TrimSpace(answer) == "" {
			return errors.New(message)
		}
		return nil
	}
}

// Terminal is the interactive pterm prompter.
type Terminal struct {
	// OnInterrupt is called when Ctrl+C is pressed inside a prompt. The
	// terminal is in raw mode at that point, so no SIGINT is delivered.
	// When nil, Ask returns ErrInterrupted instead.
	OnInterrupt func()
}

var _ Prompter = (*Terminal)(nil)

// Ask re-prompts until the answer passes validation.
func (t *Terminal) Ask(ctx context.Context, q Question) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		answer, interrupted, err := t.show(q)
		if err != nil {
			return "", err
		}
		if interrupted {
			return "", ErrInterrupted
		}

		answer = Resolve(q, answer)
		if q.Validate != nil {
			if verr := q.Validate(answer); verr != nil {
				pterm.Warning.Println(verr.Error())
				continue
			}
		}
		return answer, nil
	}
}

// Resolve applies the default passthrough to a raw answer.
func Resolve(q Question, answer string) string {
	if q.Kind != Select && answer == "" && q.Default != "" {
		return q.Default
	}
	return answer
}

func (t *Terminal) show(q Question) (answer string, interrupted bool, err error) {
	onInterrupt := func() {
		interrupted = true
		if t.OnInterrupt != nil {
			t.OnInterrupt()
		}
	}

	switch q.Kind {
	case Select:
		if len(q.Options) == 0 {
			return "", false, fmt.Errorf("select question %q has no options", q.Message)
		}
		answer, err = pterm.DefaultInteractiveSelect.
			WithOptions(q.Options).
			WithDefaultText(q.Message).
			WithMaxHeight(len(q.Options)).
			WithOnInterruptFunc(onInterrupt).
			Show()
	case Secret:
		answer, err = pterm.DefaultInteractiveTextInput.
			WithDefaultText(q.Message).
			WithMask("*").
			WithOnInterruptFunc(onInterrupt).
			Show()
	default:
		answer, err = pterm.DefaultInteractiveTextInput.
			WithDefaultText(q.Message).
			WithOnInterruptFunc(onInterrupt).
			Show()
	}
	if err != nil {
		return "", interrupted, fmt.Errorf("prompt %q: %w", q.Message, err)
	}
	return strings.TrimRight(answer, "\r\n"), interrupted, nil
}
