// Package controller sequences a pbpup session: profile selection, forum
// login, account selection, locating the plugin, and the paste/build menu.
//
// The controller is single-threaded. Each step waits for the remote browser
// or the operator before the next one starts. Persisted values are trusted
// until the forum proves them wrong; then exactly that field is cleared and
// the operator is asked again.
package controller

import (
	"errors"
	"sync"

	"github.com/pterm/pterm"
	"github.com/protex/pbpup/pkg/clipboard"
	"github.com/protex/pbpup/pkg/driver"
	"github.com/protex/pbpup/pkg/profile"
	"github.com/protex/pbpup/pkg/prompt"
)

// ErrExit is returned when the operator chooses Exit before a profile is open.
var ErrExit = errors.New("exit requested")

// Spinner shows text while a remote step runs and returns a function that
// stops it.
type Spinner func(text string) (stop func())

// PtermSpinner is the terminal Spinner. The returned stop may be called
// more than once.
func PtermSpinner(text string) func() {
	s, err := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start(text)
	if err != nil {
		return func() {}
	}
	var once sync.Once
	return func() { once.Do(func() { _ = s.Stop() }) }
}

// Controller holds the collaborators of one session.
type Controller struct {
	Driver    driver.Driver
	Prompter  prompt.Prompter
	Clipboard clipboard.Provider
	Store     profile.Store
	Runner    CommandRunner

	// Teardown receives pending clipboard restores so an interrupt mid-paste
	// still puts the operator's clipboard back. May be nil.
	Teardown *Teardown

	Spinner Spinner
	Logger  *pterm.Logger

	// ClearScreen redraws the banner between steps. May be nil.
	ClearScreen func()
}

var disabledLogger = pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled)

func (c *Controller) log() *pterm.Logger {
	if c.Logger == nil {
		return disabledLogger
	}
	return c.Logger
}

func (c *Controller) spin(text string) func() {
	if c.Spinner == nil {
		return func() {}
	}
	return c.Spinner(text)
}

func (c *Controller) clear() {
	if c.ClearScreen != nil {
		c.ClearScreen()
	}
}

// Forum page markers. They are matched against visible text only.
const (
	captchaMarker       = "Please prove you are human"
	accountChooserTitle = "Select Account"
	managePath          = "/admin/plugins/manage#build-container-tab"
)

var loginFailureMarkers = []string{
	"We could not find a forum account with that username",
	"The username and password fields are required",
	"We're sorry",
}

var (
	loginLink      = driver.CSS(`a[href*="https://login.proboards.com/login"]`)
	passwordField  = driver.Name("password")
	continueButton = driver.Name("continue")
	pageTitle      = driver.CSS("#title")
	componentsTab  = driver.CSS(`a[href='#components-container']`)
	editorSurface  = driver.CSS(".CodeMirror-scroll")
	saveButton     = driver.CSS(".save-components")
)
