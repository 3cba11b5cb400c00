package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/protex/pbpup/pkg/profile"
	"github.com/protex/pbpup/pkg/prompt"
)

const (
	menuPasteClipboard = "Update from Clipboard"
	menuRunBuild       = "Run Build"
	menuChangeBuild    = "Change and Run Build Command"
	menuExit           = "Exit"
)

var menuOptions = []string{menuPasteClipboard, menuRunBuild, menuChangeBuild, menuExit}

// Run drives one session from profile selection to the Exit menu entry. The
// caller owns teardown.
func (c *Controller) Run(ctx context.Context) error {
	c.clear()
	p, err := c.SelectProfile(ctx)
	if err != nil {
		return err
	}
	if err := c.EnsureForum(ctx, p); err != nil {
		return err
	}

	c.clear()
	if err := c.OpenLogin(ctx, p); err != nil {
		return err
	}
	c.clear()
	if err := c.Authenticate(ctx, p); err != nil {
		return err
	}
	if err := c.SelectAccount(ctx, p); err != nil {
		return err
	}
	c.clear()
	pterm.Success.Println("Success!")

	stop := c.spin("Going to plugin build list...")
	err = c.Driver.Navigate(ctx, p.ForumURL()+managePath)
	stop()
	if err != nil {
		return fmt.Errorf("open plugin list: %w", err)
	}
	if err := c.OpenPlugin(ctx, p); err != nil {
		return err
	}

	c.clear()
	return c.Menu(ctx, p)
}

// Menu offers the editing actions until the operator picks Exit. Failed
// actions are reported and the menu is shown again.
func (c *Controller) Menu(ctx context.Context, p *profile.Profile) error {
	for {
		choice, err := c.Prompter.Ask(ctx, prompt.Question{
			Kind:    prompt.Select,
			Message: fmt.Sprintf("%s: %s", p.Name(), p.PluginName()),
			Options: menuOptions,
		})
		if err != nil {
			return err
		}

		switch choice {
		case menuPasteClipboard:
			err = c.PasteClipboard(ctx)
		case menuRunBuild:
			err = c.RunBuild(ctx, p, false)
		case menuChangeBuild:
			err = c.RunBuild(ctx, p, true)
		case menuExit:
			return nil
		default:
			pterm.Warning.Printf("Unknown option %q\n", choice)
			continue
		}

		if err == nil {
			pterm.Success.Println("Saved")
			continue
		}
		if errors.Is(err, prompt.ErrInterrupted) || errors.Is(err, context.Canceled) {
			return err
		}
		c.report(err)
	}
}

func (c *Controller) report(err error) {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		pterm.Error.Println("Build failed:", err)
	} else {
		pterm.Error.Println(err)
	}
	c.log().Error("menu action failed", c.log().Args("error", err.Error()))
}
