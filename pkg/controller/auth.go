package controller

import (
	"context"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/protex/pbpup/pkg/driver"
	"github.com/protex/pbpup/pkg/profile"
	"github.com/protex/pbpup/pkg/prompt"
)

const loginRetryMessage = "There was a problem logging in, please provide your info again."

// setFieldScript assigns the value attribute of the first element with the
// given name. The login form ignores synthetic keystrokes in the email field.
const setFieldScript = `([name, value]) => document.getElementsByName(name)[0].setAttribute('value', value)`

type authState int

const (
	authAwaitUsername authState = iota
	authAwaitPassword
	authSubmit
	authCheckCaptcha
	authCheckResult
	authResolved
)

func (s authState) String() string {
	switch s {
	case authAwaitUsername:
		return "await-username"
	case authAwaitPassword:
		return "await-password"
	case authSubmit:
		return "submit"
	case authCheckCaptcha:
		return "check-captcha"
	case authCheckResult:
		return "check-result"
	default:
		return "resolved"
	}
}

// OpenLogin loads the forum and follows its login link. A forum page without
// the link is reported and the flow continues, since the session may already
// be on the login form.
func (c *Controller) OpenLogin(ctx context.Context, p *profile.Profile) error {
	stop := c.spin("Going to login page...")
	defer stop()

	if err := c.Driver.Navigate(ctx, p.ForumURL()); err != nil {
		return fmt.Errorf("open forum: %w", err)
	}
	err := driver.FindAndClick(ctx, c.Driver, loginLink)
	switch driver.Classify(err) {
	case driver.OK:
		return nil
	case driver.NotFound:
		stop()
		pterm.Warning.Println("Could not find the login link, continuing on the current page")
		c.log().Warn("login link missing", c.log().Args("forum", p.ForumURL()))
		return nil
	default:
		return fmt.Errorf("open login page: %w", err)
	}
}

// Authenticate fills the login form until the forum stops reporting a login
// failure. The username is persisted as soon as it is entered and cleared
// again when the forum rejects the credentials. The password is never stored.
func (c *Controller) Authenticate(ctx context.Context, p *profile.Profile) error {
	var password string
	state := authAwaitUsername

	for state != authResolved {
		c.log().Trace("auth state", c.log().Args("state", state.String()))

		switch state {
		case authAwaitUsername:
			if !p.Has(profile.FieldUsername) {
				username, err := c.Prompter.Ask(ctx, prompt.Question{
					Message:  "Enter your username or email:",
					Validate: prompt.NonEmpty("Please enter a valid username or email"),
				})
				if err != nil {
					return err
				}
				if err := p.Set(profile.FieldUsername, username); err != nil {
					return err
				}
			}
			state = authAwaitPassword

		case authAwaitPassword:
			var err error
			password, err = c.Prompter.Ask(ctx, prompt.Question{
				Kind:     prompt.Secret,
				Message:  "Enter your password:",
				Validate: prompt.NonEmpty("Please enter a valid password"),
			})
			if err != nil {
				return err
			}
			state = authSubmit

		case authSubmit:
			c.clear()
			stop := c.spin("Attempting to log in...")
			err := c.submitCredentials(ctx, p.Username(), password)
			stop()
			password = ""
			if err != nil {
				return err
			}
			state = authCheckCaptcha

		case authCheckCaptcha:
			if err := c.awaitCaptcha(ctx); err != nil {
				return err
			}
			state = authCheckResult

		case authCheckResult:
			failed, err := c.loginFailed(ctx)
			if err != nil {
				return err
			}
			if !failed {
				state = authResolved
				continue
			}
			if err := p.Clear(profile.FieldUsername); err != nil {
				return err
			}
			c.clear()
			pterm.Warning.Println(loginRetryMessage)
			c.log().Info("login rejected", c.log().Args("profile", p.Name()))
			state = authAwaitUsername
		}
	}

	c.log().Info("logged in", c.log().Args("profile", p.Name()))
	return nil
}

func (c *Controller) submitCredentials(ctx context.Context, username, password string) error {
	if _, err := c.Driver.ExecuteScript(ctx, setFieldScript, []string{"email", username}); err != nil {
		return fmt.Errorf("fill username: %w", err)
	}
	field, err := c.Driver.Find(ctx, passwordField)
	if err != nil {
		return fmt.Errorf("find password field: %w", err)
	}
	if err := c.Driver.Type(ctx, field, password); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}
	if err := driver.FindAndClick(ctx, c.Driver, continueButton); err != nil {
		return fmt.Errorf("submit login: %w", err)
	}
	return nil
}

// awaitCaptcha blocks on the operator for as long as the captcha
// challenge is on the page.
func (c *Controller) awaitCaptcha(ctx context.Context) error {
	for {
		text, err := driver.BodyText(ctx, c.Driver)
		if err != nil {
			return fmt.Errorf("read page: %w", err)
		}
		if !strings.Contains(text, captchaMarker) {
			return nil
		}
		c.log().Info("captcha challenge shown")
		if _, err := c.Prompter.Ask(ctx, prompt.Question{
			Message: "Validate captcha and press enter to continue...",
		}); err != nil {
			return err
		}
	}
}

func (c *Controller) loginFailed(ctx context.Context) (bool, error) {
	text, err := driver.BodyText(ctx, c.Driver)
	if err != nil {
		return false, fmt.Errorf("read page: %w", err)
	}
	return lo.ContainsBy(loginFailureMarkers, func(marker string) bool {
		return strings.Contains(text, marker)
	}), nil
}
