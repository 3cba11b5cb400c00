// Package clipboard reads and writes the system clipboard and implements the
// scoped swap used to paste generated text without losing the operator's own
// clipboard contents.
package clipboard

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"syscall"

	sysclip "github.com/atotto/clipboard"
)

// Provider is process-wide clipboard access.
type Provider interface {
	Read() (string, error)
	Write(text string) error
}

// ErrEmpty is returned by Read when the clipboard holds no text.
var ErrEmpty = errors.New("clipboard is empty")

// System is the OS clipboard.
type System struct{}

var _ Provider = System{}

var readAll = sysclip.ReadAll

func (System) Read() (string, error) {
	text, err := readAll()
	if err != nil && emptySelection(err) {
		return "", fmt.Errorf("%w: %v", ErrEmpty, err)
	}
	return text, err
}

// emptySelection reports whether a read failed only because there was
// nothing to read. xclip and wl-paste exit non-zero on an empty selection;
// GetClipboardData fails without setting a last error.
func emptySelection(err error) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return true
	}
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == 0
}

func (System) Write(text string) error {
	return sysclip.WriteAll(text)
}

// Unsupported reports whether no clipboard utility is available on this system.
func Unsupported() bool {
	return sysclip.Unsupported
}

// Restore puts a snapshot back. Only the first call writes; later calls
// return the first call's result.
type Restore func() error

// Snapshot captures the current clipboard contents and returns the function
// that puts them back. An empty clipboard is captured as "". Any other read
// failure is returned and nothing is captured.
func Snapshot(p Provider) (Restore, error) {
	snapshot, err := p.Read()
	if err != nil {
		if !errors.Is(err, ErrEmpty) {
			return nil, fmt.Errorf("failed to read clipboard: %w", err)
		}
		snapshot = ""
	}

	var (
		once       sync.Once
		restoreErr error
	)
	restore := func() error {
		once.Do(func() {
			if err := p.Write(snapshot); err != nil {
				restoreErr = fmt.Errorf("failed to restore clipboard: %w", err)
			}
		})
		return restoreErr
	}
	return restore, nil
}

// Replace writes text after a Snapshot. On failure the snapshot is put back,
// since a failed write may still have changed the clipboard.
func Replace(p Provider, restore Restore, text string) error {
	if err := p.Write(text); err != nil {
		_ = restore()
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

// Swap captures the current clipboard contents and replaces them with text.
// If the snapshot cannot be read the clipboard is left untouched and an error
// is returned, so the operator's data is never lost to a failed read.
func Swap(p Provider, text string) (Restore, error) {
	restore, err := Snapshot(p)
	if err != nil {
		return nil, err
	}
	if err := Replace(p, restore, text); err != nil {
		return nil, err
	}
	return restore, nil
}
