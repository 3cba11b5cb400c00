package controller

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/protex/pbpup/pkg/driver"
	"github.com/protex/pbpup/pkg/profile"
	"github.com/protex/pbpup/pkg/prompt"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects pterm output into a buffer for the test's lifetime.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	pterm.SetDefaultOutput(&buf)
	pterm.Info.Writer = &buf
	pterm.Error.Writer = &buf
	pterm.Success.Writer = &buf
	pterm.Warning.Writer = &buf
	t.Cleanup(func() {
		pterm.SetDefaultOutput(os.Stdout)
		pterm.Info.Writer = os.Stdout
		pterm.Error.Writer = os.Stdout
		pterm.Success.Writer = os.Stdout
		pterm.Warning.Writer = os.Stdout
	})
	return &buf
}

func newStore(t *testing.T) *profile.FileStore {
	t.Helper()
	s, err := profile.NewFileStore(filepath.Join(t.TempDir(), "profiles.yaml"))
	require.NoError(t, err)
	return s
}

type fakeElement struct {
	loc driver.Locator
}

func (e fakeElement) Locator() driver.Locator { return e.loc }

var focusedLocator = driver.CSS(":focus")

// FakeDriver records every call as a short string such as
// "click css=.save-components". Calls listed in FailOn return that error.
type FakeDriver struct {
	// Missing reports whether Find should fail with ErrNotFound.
	Missing func(loc driver.Locator) bool
	// Texts queues the visible text per locator. The last entry repeats.
	Texts  map[driver.Locator][]string
	FailOn map[string]error

	// OnCall observes each call before it completes.
	OnCall func(call string)

	Calls      []string
	Typed      []string
	ScriptArgs []any
	Released   int
}

func (f *FakeDriver) record(call string) error {
	f.Calls = append(f.Calls, call)
	if f.OnCall != nil {
		f.OnCall(call)
	}
	if err := f.FailOn[call]; err != nil {
		return err
	}
	return nil
}

func (f *FakeDriver) Navigate(ctx context.Context, url string) error {
	return f.record("navigate " + url)
}

func (f *FakeDriver) Find(ctx context.Context, loc driver.Locator) (driver.Element, error) {
	if err := f.record("find " + loc.String()); err != nil {
		return nil, err
	}
	if f.Missing != nil && f.Missing(loc) {
		return nil, fmt.Errorf("%s: %w", loc, driver.ErrNotFound)
	}
	return fakeElement{loc: loc}, nil
}

func (f *FakeDriver) Focused(ctx context.Context) (driver.Element, error) {
	if err := f.record("focused"); err != nil {
		return nil, err
	}
	return fakeElement{loc: focusedLocator}, nil
}

func (f *FakeDriver) Click(ctx context.Context, el driver.Element) error {
	return f.record("click " + el.Locator().String())
}

func (f *FakeDriver) Type(ctx context.Context, el driver.Element, text string) error {
	if err := f.record("type " + el.Locator().String()); err != nil {
		return err
	}
	f.Typed = append(f.Typed, text)
	return nil
}

func (f *FakeDriver) Press(ctx context.Context, el driver.Element, chord string) error {
	return f.record("press " + chord)
}

func (f *FakeDriver) Text(ctx context.Context, el driver.Element) (string, error) {
	loc := el.Locator()
	if err := f.record("text " + loc.String()); err != nil {
		return "", err
	}
	queue := f.Texts[loc]
	switch len(queue) {
	case 0:
		return "", nil
	case 1:
		return queue[0], nil
	default:
		f.Texts[loc] = queue[1:]
		return queue[0], nil
	}
}

func (f *FakeDriver) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	if err := f.record("script"); err != nil {
		return nil, err
	}
	f.ScriptArgs = append(f.ScriptArgs, args...)
	return nil, nil
}

func (f *FakeDriver) Release(ctx context.Context) error {
	f.Released++
	return f.record("release")
}

// missing returns a Missing func for a fixed set of locators.
func missing(locs ...driver.Locator) func(driver.Locator) bool {
	return func(loc driver.Locator) bool {
		return lo.Contains(locs, loc)
	}
}

var errNoAnswers = errors.New("fake prompter: no answers left")

// FakePrompter answers questions from a queue. Rejected answers are consumed
// and the question is asked again, as the terminal does.
type FakePrompter struct {
	Answers []string
	Asked   []prompt.Question
	// Rejected counts answers that failed validation.
	Rejected int
	OnAsk    func(q prompt.Question)
}

func (f *FakePrompter) Ask(ctx context.Context, q prompt.Question) (string, error) {
	f.Asked = append(f.Asked, q)
	if f.OnAsk != nil {
		f.OnAsk(q)
	}
	for {
		if len(f.Answers) == 0 {
			return "", errNoAnswers
		}
		answer := prompt.Resolve(q, f.Answers[0])
		f.Answers = f.Answers[1:]
		if q.Kind == prompt.Select && len(q.Options) > 0 && !lo.Contains(q.Options, answer) {
			return "", fmt.Errorf("fake prompter: %q is not an option of %q", answer, q.Message)
		}
		if q.Validate != nil {
			if err := q.Validate(answer); err != nil {
				f.Rejected++
				continue
			}
		}
		return answer, nil
	}
}

// messages returns the message of every question asked so far.
func (f *FakePrompter) messages() []string {
	out := make([]string, 0, len(f.Asked))
	for _, q := range f.Asked {
		out = append(out, q.Message)
	}
	return out
}

// FakeClipboard is an in-memory clipboard.
type FakeClipboard struct {
	Content  string
	ReadErr  error
	WriteErr error
	Reads    int
	Writes   []string
	// OnWrite runs before a write lands.
	OnWrite func(text string)
}

func (f *FakeClipboard) Read() (string, error) {
	f.Reads++
	if f.ReadErr != nil {
		return "", f.ReadErr
	}
	return f.Content, nil
}

func (f *FakeClipboard) Write(text string) error {
	f.Writes = append(f.Writes, text)
	if f.OnWrite != nil {
		f.OnWrite(text)
	}
	if f.WriteErr != nil {
		return f.WriteErr
	}
	f.Content = text
	return nil
}

// FakeRunner returns a fixed build result.
type FakeRunner struct {
	Output   string
	Err      error
	Commands []string
}

func (f *FakeRunner) Run(ctx context.Context, command string) (string, error) {
	f.Commands = append(f.Commands, command)
	return f.Output, f.Err
}

func newController(t *testing.T, d *FakeDriver, p *FakePrompter) *Controller {
	t.Helper()
	return &Controller{
		Driver:    d,
		Prompter:  p,
		Clipboard: &FakeClipboard{},
		Store:     newStore(t),
		Runner:    &FakeRunner{},
	}
}
