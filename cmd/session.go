package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
	"github.com/spf13/cobra"

	"github.com/protex/pbpup/pkg/auth"
	"github.com/protex/pbpup/pkg/clipboard"
	"github.com/protex/pbpup/pkg/config"
	"github.com/protex/pbpup/pkg/controller"
	"github.com/protex/pbpup/pkg/driver"
	"github.com/protex/pbpup/pkg/profile"
	"github.com/protex/pbpup/pkg/prompt"
	"github.com/protex/pbpup/pkg/update"
	"github.com/protex/pbpup/pkg/util"
)

const updateCheckFrequency = 24 * time.Hour

func runSession(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, _ := cmd.Flags().GetString("log-level")
	logDir, _ := cmd.Flags().GetString("log-dir")
	sessionLog, err := util.NewSessionLog(logDir, util.LogLevel(level))
	if err != nil {
		pterm.Warning.Printf("Session log disabled: %v\n", err)
	}
	defer sessionLog.Close()
	logger := sessionLog.Logger
	logger.Info("session started", logger.Args("version", metadata.Version, "backend", string(cfg.Backend)))

	store, err := profile.NewFileStore(cfg.ProfilesPath())
	if err != nil {
		return err
	}

	if clipboard.Unsupported() {
		pterm.Warning.Println("No clipboard utility found (install xclip, xsel or wl-clipboard). Pasting will fail.")
	}

	d, err := startDriver(ctx, cfg, logger)
	if err != nil {
		logger.Error("browser start failed", logger.Args("error", err.Error()))
		return err
	}

	teardown := controller.NewTeardown(d.Release, cfg.ReleaseTimeout, logger)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	quit := func() { quitSession(teardown, sessionLog, sigs) }
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case sig := <-sigs:
			logger.Info("signal received", logger.Args("signal", sig.String()))
			quit()
		case <-done:
		}
	}()

	c := &controller.Controller{
		Driver:      d,
		Prompter:    &prompt.Terminal{OnInterrupt: quit},
		Clipboard:   clipboard.System{},
		Store:       store,
		Runner:      controller.ShellRunner{},
		Teardown:    teardown,
		Spinner:     controller.PtermSpinner,
		Logger:      logger,
		ClearScreen: showBanner,
	}

	err = c.Run(ctx)
	switch {
	case err == nil, errors.Is(err, controller.ErrExit), errors.Is(err, prompt.ErrInterrupted):
	default:
		pterm.Error.Println(err)
		logger.Error("session ended with error", logger.Args("error", err.Error()))
	}

	pterm.Info.Println("Quitting...")
	teardown.Run()
	logger.Info("session ended")

	if !cfg.NoUpdateCheck {
		update.MaybeShowMessage(ctx, metadata.Version, updateCheckFrequency)
	}
	return nil
}

// exit is os.Exit, replaced in tests.
var exit = os.Exit

// quitSession ends the process from an interrupt. Deferred calls in
// runSession do not run past os.Exit, so the log is closed here.
func quitSession(teardown *controller.Teardown, sessionLog *util.SessionLog, sigs chan os.Signal) {
	pterm.Println()
	pterm.Info.Println("Quitting...")
	code := teardown.Run()
	signal.Stop(sigs)
	sessionLog.Info("session ended", sessionLog.Args("reason", "interrupt"))
	_ = sessionLog.Close()
	exit(code)
}

func startDriver(ctx context.Context, cfg config.Config, logger *pterm.Logger) (*driver.Playwright, error) {
	opts := driver.Options{
		Headless:      cfg.Headless,
		FindTimeout:   cfg.FindTimeout,
		KernelTimeout: cfg.KernelTimeout,
		Logger:        logger,
	}

	spinner, _ := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Starting browser...")
	defer func() {
		if spinner != nil {
			_ = spinner.Stop()
		}
	}()

	switch cfg.Backend {
	case config.BackendKernel:
		client, err := auth.KernelClient(cfg.KernelAPIKey)
		if err != nil {
			return nil, err
		}
		svc := client.Browsers
		d, err := driver.StartKernel(ctx, &svc, opts, browser.OpenURL)
		if err != nil {
			return nil, util.CleanedUpSdkError{Op: "start kernel browser", Err: err}
		}
		return d, nil
	default:
		d, err := driver.StartLocal(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to start local browser: %w", err)
		}
		return d, nil
	}
}

// showBanner clears the terminal and draws the title.
func showBanner() {
	pterm.Print("\033[H\033[2J")
	_ = pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("Pb", pterm.FgCyan.ToStyle()),
		putils.LettersFromStringWithStyle("Pup", pterm.FgLightMagenta.ToStyle()),
	).Render()
}
