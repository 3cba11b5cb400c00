package driver

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/onkernel/kernel-go-sdk"
	"github.com/onkernel/kernel-go-sdk/option"
	"github.com/playwright-community/playwright-go"
	"github.com/pterm/pterm"
	"github.com/protex/pbpup/pkg/util"
)

// Options configures how the browser is started.
type Options struct {
	// Headless hides the browser window. The operator usually needs to see it
	// to get through captchas, so the default is a visible window.
	Headless bool

	// FindTimeout bounds Find; zero means DefaultFindTimeout.
	FindTimeout time.Duration

	// KernelTimeout is the idle timeout of a Kernel cloud browser.
	KernelTimeout time.Duration

	Logger *pterm.Logger
}

func (o Options) withDefaults() Options {
	if o.FindTimeout <= 0 {
		o.FindTimeout = DefaultFindTimeout
	}
	if o.KernelTimeout <= 0 {
		o.KernelTimeout = time.Hour
	}
	if o.Logger == nil {
		o.Logger = pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled)
	}
	return o
}

// BrowsersService is the subset of the Kernel SDK browser client that we use.
type BrowsersService interface {
	New(ctx context.Context, body kernel.BrowserNewParams, opts ...option.RequestOption) (*kernel.BrowserNewResponse, error)
	DeleteByID(ctx context.Context, id string, opts ...option.RequestOption) error
}

func runPlaywright(installBrowsers bool) (*playwright.Playwright, error) {
	// Output is discarded so the driver download does not scribble over prompts.
	opts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if installBrowsers {
		if err := playwright.Install(opts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	} else {
		opts.SkipInstallBrowsers = true
	}
	pw, err := playwright.Run(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	return pw, nil
}

// StartLocal launches a Chromium instance on this machine.
func StartLocal(ctx context.Context, opts Options) (*Playwright, error) {
	opts = opts.withDefaults()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := runPlaywright(true)
	if err != nil {
		return nil, err
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	page, err := browser.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	opts.Logger.Debug("local browser started", opts.Logger.Args("headless", opts.Headless))
	return &Playwright{
		pw:          pw,
		browser:     browser,
		page:        page,
		findTimeout: opts.FindTimeout,
		logger:      opts.Logger,
	}, nil
}

// StartKernel provisions a Kernel cloud browser and attaches to it over CDP.
// When the browser has a live view, openURL is called with it so the operator
// can watch the session and solve captchas. Release deletes the cloud browser.
func StartKernel(ctx context.Context, svc BrowsersService, opts Options, openURL func(string) error) (*Playwright, error) {
	opts = opts.withDefaults()

	params := kernel.BrowserNewParams{
		Headless:       kernel.Opt(opts.Headless),
		Stealth:        kernel.Opt(true),
		TimeoutSeconds: kernel.Opt(int64(opts.KernelTimeout.Seconds())),
	}
	remote, err := svc.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create kernel browser: %w", err)
	}
	opts.Logger.Debug("kernel browser created", opts.Logger.Args("session_id", remote.SessionID))

	deleteRemote := func(ctx context.Context) error {
		err := svc.DeleteByID(ctx, remote.SessionID)
		if util.IsNotFound(err) {
			// Already reaped by the Kernel timeout.
			return nil
		}
		if err != nil {
			return fmt.Errorf("delete kernel browser %s: %w", remote.SessionID, err)
		}
		return nil
	}

	pw, err := runPlaywright(false)
	if err != nil {
		_ = deleteRemote(ctx)
		return nil, err
	}

	browser, err := pw.Chromium.ConnectOverCDP(remote.CdpWsURL)
	if err != nil {
		_ = pw.Stop()
		_ = deleteRemote(ctx)
		return nil, fmt.Errorf("failed to connect to kernel browser: %w", err)
	}

	page, err := firstPage(browser)
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		_ = deleteRemote(ctx)
		return nil, err
	}

	if remote.BrowserLiveViewURL != "" {
		pterm.Info.Printf("Live view: %s\n", remote.BrowserLiveViewURL)
		if openURL != nil {
			if err := openURL(remote.BrowserLiveViewURL); err != nil {
				pterm.Warning.Printf("Could not open the live view automatically: %v\n", err)
			}
		}
	}

	return &Playwright{
		pw:          pw,
		browser:     browser,
		page:        page,
		findTimeout: opts.FindTimeout,
		logger:      opts.Logger,
		afterClose:  deleteRemote,
	}, nil
}

// firstPage reuses the default page of a CDP-attached browser when it has one.
func firstPage(browser playwright.Browser) (playwright.Page, error) {
	for _, bc := range browser.Contexts() {
		if pages := bc.Pages(); len(pages) > 0 {
			return pages[0], nil
		}
	}
	contexts := browser.Contexts()
	if len(contexts) > 0 {
		page, err := contexts[0].NewPage()
		if err != nil {
			return nil, fmt.Errorf("failed to create page: %w", err)
		}
		return page, nil
	}
	page, err := browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return page, nil
}
