package controller

import (
	"context"
	"errors"
	"testing"

	"github.com/protex/pbpup/pkg/driver"
	"github.com/protex/pbpup/pkg/profile"
	"github.com/protex/pbpup/pkg/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProfile(t *testing.T, store profile.Store) *profile.Profile {
	t.Helper()
	p, err := profile.Create(store, "forumA")
	require.NoError(t, err)
	require.NoError(t, p.Set(profile.FieldForumURL, "https://example.com"))
	require.NoError(t, p.Set(profile.FieldUsername, "bob"))
	require.NoError(t, p.Set(profile.FieldPluginName, "Shoutbox"))
	require.NoError(t, p.Set(profile.FieldBuildCommand, "make"))
	return p
}

func TestRun_StoredProfileReachesMenu(t *testing.T) {
	captureOutput(t)
	d := &FakeDriver{
		Missing: missing(pageTitle),
		Texts:   map[driver.Locator][]string{bodyLocator: {"Welcome"}},
	}
	pr := &FakePrompter{Answers: []string{"forumA", "secret", "Exit"}}
	c := newController(t, d, pr)
	seedProfile(t, c.Store)

	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, []string{
		"Select a configuration",
		"Enter your password:",
		"forumA: Shoutbox",
	}, pr.messages())
	assert.Contains(t, d.Calls, "navigate https://example.com")
	assert.Contains(t, d.Calls, "navigate https://example.com/admin/plugins/manage#build-container-tab")
	assert.Contains(t, d.Calls, "click linkText=Shoutbox")
	assert.Contains(t, d.Calls, "click "+componentsTab.String())
	assert.Zero(t, d.Released)
}

func TestRun_ExitBeforeProfile(t *testing.T) {
	d := &FakeDriver{}
	pr := &FakePrompter{Answers: []string{"Exit"}}
	c := newController(t, d, pr)
	seedProfile(t, c.Store)

	assert.ErrorIs(t, c.Run(context.Background()), ErrExit)
	assert.Empty(t, d.Calls)
}

func TestMenu_FailedActionIsReported(t *testing.T) {
	buf := captureOutput(t)
	runner := &FakeRunner{Err: &CommandError{Command: "make", Err: errors.New("exit status 2")}}
	pr := &FakePrompter{Answers: []string{"Run Build", "Exit"}}
	c := newController(t, &FakeDriver{}, pr)
	c.Runner = runner
	p := seedProfile(t, c.Store)

	require.NoError(t, c.Menu(context.Background(), p))
	assert.Contains(t, buf.String(), "Build failed")
	assert.Len(t, pr.Asked, 2)
}

func TestMenu_UpdateFromClipboard(t *testing.T) {
	buf := captureOutput(t)
	d := &FakeDriver{}
	pr := &FakePrompter{Answers: []string{"Update from Clipboard", "Exit"}}
	c := newController(t, d, pr)
	p := seedProfile(t, c.Store)

	require.NoError(t, c.Menu(context.Background(), p))
	assert.Equal(t, injectCalls, d.Calls)
	assert.Contains(t, buf.String(), "Saved")
	assert.Equal(t, menuOptions, pr.Asked[0].Options)
}

func TestMenu_InterruptEndsLoop(t *testing.T) {
	c := newController(t, &FakeDriver{}, &FakePrompter{})
	c.Prompter = interruptingPrompter{}
	p := seedProfile(t, c.Store)

	assert.ErrorIs(t, c.Menu(context.Background(), p), prompt.ErrInterrupted)
}

type interruptingPrompter struct{}

func (interruptingPrompter) Ask(ctx context.Context, q prompt.Question) (string, error) {
	return "", prompt.ErrInterrupted
}
