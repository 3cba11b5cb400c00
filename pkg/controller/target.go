package controller

import (
	"context"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/protex/pbpup/pkg/driver"
	"github.com/protex/pbpup/pkg/profile"
	"github.com/protex/pbpup/pkg/prompt"
)

// target is a page element identified by a value the operator supplies once
// and the profile remembers.
type target struct {
	field    profile.Field
	question string
	invalid  string
	notFound string
	progress string
	locate   func(value string) driver.Locator
}

var accountTarget = target{
	field:    profile.FieldAccountID,
	question: "User ID :",
	invalid:  "Please enter a user ID",
	notFound: "User not found, please try again",
	progress: "Selecting user...",
	locate: func(id string) driver.Locator {
		return driver.XPath("//input[@value=" + driver.XPathLiteral(id) + "]")
	},
}

var pluginTarget = target{
	field:    profile.FieldPluginName,
	question: "Plugin Name :",
	invalid:  "Please enter a plugin name",
	notFound: "Plugin does not appear to exist, please try again!",
	progress: "Opening plugin edit page...",
	locate:   driver.LinkText,
}

// resolveTarget clicks the element named by the stored field, prompting when
// the field is empty. A value that does not match any element is cleared and
// asked for again. A prompted value is stored only once it has matched, so the
// field stays empty while the operator is still guessing.
func (c *Controller) resolveTarget(ctx context.Context, p *profile.Profile, t target) error {
	for resolved := false; !resolved; {
		value := p.Get(t.field)
		prompted := value == ""
		if prompted {
			answer, err := c.Prompter.Ask(ctx, prompt.Question{
				Message:  t.question,
				Validate: prompt.NonEmpty(t.invalid),
			})
			if err != nil {
				return err
			}
			value = strings.TrimSpace(answer)
		}

		stop := c.spin(t.progress)
		err := driver.FindAndClick(ctx, c.Driver, t.locate(value))
		stop()

		switch driver.Classify(err) {
		case driver.OK:
			if prompted {
				if err := p.Set(t.field, value); err != nil {
					return err
				}
			}
			resolved = true
		case driver.NotFound:
			pterm.Warning.Println(t.notFound)
			c.log().Info("target not found", c.log().Args("field", string(t.field), "value", value))
			if err := p.Clear(t.field); err != nil {
				return err
			}
		default:
			return fmt.Errorf("select %s %q: %w", t.field, value, err)
		}
	}
	return nil
}

// SelectAccount picks the forum account when the login lands on the account
// chooser. Any other page, including one with no title, is left alone.
func (c *Controller) SelectAccount(ctx context.Context, p *profile.Profile) error {
	title, err := driver.TextOf(ctx, c.Driver, pageTitle)
	switch driver.Classify(err) {
	case driver.NotFound:
		return nil
	case driver.ActionFailed:
		return fmt.Errorf("read page title: %w", err)
	}
	if strings.TrimSpace(title) != accountChooserTitle {
		return nil
	}
	return c.resolveTarget(ctx, p, accountTarget)
}

// OpenPlugin opens the plugin's edit page from the plugin list and switches
// to its components tab.
func (c *Controller) OpenPlugin(ctx context.Context, p *profile.Profile) error {
	if err := c.resolveTarget(ctx, p, pluginTarget); err != nil {
		return err
	}
	stop := c.spin("Opening components...")
	defer stop()
	if err := driver.FindAndClick(ctx, c.Driver, componentsTab); err != nil {
		return fmt.Errorf("open components tab: %w", err)
	}
	return nil
}
