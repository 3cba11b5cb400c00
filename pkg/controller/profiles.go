package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/protex/pbpup/pkg/profile"
	"github.com/protex/pbpup/pkg/prompt"
)

const (
	optionNew    = "New"
	optionDelete = "Delete"
	optionExit   = "Exit"
	optionCancel = "Cancel"
)

var reservedNames = []string{optionNew, optionDelete, optionExit, optionCancel}

// SelectProfile lets the operator pick, create, or delete a profile. With no
// saved profiles it goes straight to creation. Choosing Exit returns ErrExit.
func (c *Controller) SelectProfile(ctx context.Context) (*profile.Profile, error) {
	for {
		names := c.Store.ListProfiles()
		if len(names) == 0 {
			return c.createProfile(ctx)
		}

		choice, err := c.Prompter.Ask(ctx, prompt.Question{
			Kind:    prompt.Select,
			Message: "Select a configuration",
			Options: append(names, optionNew, optionDelete, optionExit),
		})
		if err != nil {
			return nil, err
		}

		switch choice {
		case optionExit:
			return nil, ErrExit
		case optionNew:
			return c.createProfile(ctx)
		case optionDelete:
			if err := c.deleteProfile(ctx, names); err != nil {
				return nil, err
			}
		default:
			c.log().Info("profile selected", c.log().Args("profile", choice))
			return profile.Open(c.Store, choice), nil
		}
	}
}

func (c *Controller) createProfile(ctx context.Context) (*profile.Profile, error) {
	existing := c.Store.ListProfiles()
	name, err := c.Prompter.Ask(ctx, prompt.Question{
		Message: "Name for configuration:",
		Validate: func(answer string) error {
			answer = strings.TrimSpace(answer)
			switch {
			case answer == "":
				return errors.New("Please enter a name")
			case lo.Contains(reservedNames, answer):
				return fmt.Errorf("%q is reserved, please choose another name", answer)
			case lo.Contains(existing, answer):
				return fmt.Errorf("A configuration named %q already exists", answer)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	p, err := profile.Create(c.Store, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	if err := c.EnsureForum(ctx, p); err != nil {
		return nil, err
	}
	c.log().Info("profile created", c.log().Args("profile", p.Name(), "forum", p.ForumURL()))
	return p, nil
}

func (c *Controller) deleteProfile(ctx context.Context, names []string) error {
	choice, err := c.Prompter.Ask(ctx, prompt.Question{
		Kind:    prompt.Select,
		Message: "Choose a configuration to delete",
		Options: append(lo.Without(names, reservedNames...), optionCancel),
	})
	if err != nil {
		return err
	}
	if choice == optionCancel {
		return nil
	}
	if err := c.Store.Delete(choice); err != nil {
		return fmt.Errorf("delete configuration %q: %w", choice, err)
	}
	pterm.Success.Printf("Deleted configuration: %s\n", choice)
	return nil
}

// EnsureForum asks for the forum address when the profile has none.
func (c *Controller) EnsureForum(ctx context.Context, p *profile.Profile) error {
	if p.Has(profile.FieldForumURL) {
		return nil
	}
	host, err := c.Prompter.Ask(ctx, prompt.Question{
		Message:  "Url of the forum (exclude https://):",
		Validate: validForumHost,
	})
	if err != nil {
		return err
	}
	return p.Set(profile.FieldForumURL, profile.ForumURLFromHost(host))
}

func validForumHost(answer string) error {
	if profile.ForumHost(answer) == "" {
		return errors.New("Please enter the forum address")
	}
	return nil
}
