package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/protex/pbpup/pkg/clipboard"
	"github.com/protex/pbpup/pkg/driver"
)

const (
	selectAllChord = "ControlOrMeta+a"
	pasteChord     = "Shift+Insert"
)

// PasteClipboard replaces the editor content with whatever is on the
// operator's clipboard and saves. The clipboard is not touched.
func (c *Controller) PasteClipboard(ctx context.Context) error {
	c.clear()
	stop := c.spin("Saving from clipboard...")
	defer stop()
	return c.inject(ctx)
}

// PasteText replaces the editor content with text by routing it through the
// clipboard. The operator's clipboard is restored afterwards whether or not
// the save succeeded, and also when the session is torn down mid-paste.
func (c *Controller) PasteText(ctx context.Context, text string) (err error) {
	restore, err := clipboard.Snapshot(c.Clipboard)
	if err != nil {
		return err
	}
	// Registered before the write so an interrupt can never strand the payload.
	cancel := func() {}
	if c.Teardown != nil {
		cancel = c.Teardown.Defer(func() { _ = restore() })
	}
	if err := clipboard.Replace(c.Clipboard, restore, text); err != nil {
		cancel()
		return err
	}
	defer func() {
		rerr := restore()
		cancel()
		if rerr != nil {
			err = errors.Join(err, fmt.Errorf("restore clipboard: %w", rerr))
		}
	}()
	return c.inject(ctx)
}

func (c *Controller) inject(ctx context.Context) error {
	if err := driver.FindAndClick(ctx, c.Driver, editorSurface); err != nil {
		return fmt.Errorf("focus editor: %w", err)
	}
	for _, chord := range []string{selectAllChord, pasteChord} {
		el, err := c.Driver.Focused(ctx)
		if err != nil {
			return fmt.Errorf("find focused editor: %w", err)
		}
		if err := c.Driver.Press(ctx, el, chord); err != nil {
			return fmt.Errorf("press %s: %w", chord, err)
		}
	}
	if err := driver.FindAndClick(ctx, c.Driver, saveButton); err != nil {
		return fmt.Errorf("save components: %w", err)
	}
	c.log().Info("components saved")
	return nil
}
