package controller

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pterm/pterm"
	"github.com/protex/pbpup/pkg/profile"
	"github.com/protex/pbpup/pkg/prompt"
)

// CommandRunner runs a build command and returns its standard output.
type CommandRunner interface {
	Run(ctx context.Context, command string) (string, error)
}

// CommandError is a build command that could not start or exited non-zero.
type CommandError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("build command %q failed: %v", e.Command, e.Err)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += "\n" + stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ShellRunner runs commands through the platform shell.
type ShellRunner struct{}

var _ CommandRunner = ShellRunner{}

func (ShellRunner) Run(ctx context.Context, command string) (string, error) {
	name, flag := "sh", "-c"
	if runtime.GOOS == "windows" {
		name, flag = "cmd", "/C"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, flag, command)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", &CommandError{Command: command, Stderr: stderr.String(), Err: err}
	}
	if stderr.Len() > 0 {
		pterm.Warning.Println(strings.TrimRight(stderr.String(), "\n"))
	}
	return stdout.String(), nil
}

// RunBuild runs the profile's build command and pastes its output into the
// editor. With replace, or when no command is stored yet, the operator is
// asked for one first; a blank answer keeps the stored command.
func (c *Controller) RunBuild(ctx context.Context, p *profile.Profile, replace bool) error {
	command, err := c.buildCommand(ctx, p, replace)
	if err != nil {
		return err
	}

	c.clear()
	stop := c.spin("Building...")
	out, err := c.Runner.Run(ctx, command)
	stop()
	if err != nil {
		return err
	}
	c.log().Info("build finished", c.log().Args("command", command, "bytes", len(out)))
	pterm.Println(strings.TrimRight(out, "\n"))

	stop = c.spin("Saving build output...")
	defer stop()
	return c.PasteText(ctx, out)
}

func (c *Controller) buildCommand(ctx context.Context, p *profile.Profile, replace bool) (string, error) {
	current := p.BuildCommand()
	if current != "" && !replace {
		return current, nil
	}

	c.clear()
	q := prompt.Question{
		Message: "Enter a shell command (leave blank to keep current):",
		Default: current,
	}
	if current != "" {
		pterm.Info.Printf("Current command: %s\n", current)
	} else {
		q.Validate = prompt.NonEmpty("Please enter a shell command")
	}

	command, err := c.Prompter.Ask(ctx, q)
	if err != nil {
		return "", err
	}
	if command != current {
		if err := p.Set(profile.FieldBuildCommand, command); err != nil {
			return "", err
		}
	}
	return command, nil
}
