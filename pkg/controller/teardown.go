package controller

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pterm/pterm"
)

// DefaultReleaseTimeout bounds how long teardown waits for the browser to close.
const DefaultReleaseTimeout = 10 * time.Second

// Teardown is the single exit path of a session, shared by the Exit menu
// entry, Ctrl+C inside a prompt, and SIGINT/SIGTERM.
type Teardown struct {
	release func(ctx context.Context) error
	timeout time.Duration
	logger  *pterm.Logger

	once sync.Once

	mu         sync.Mutex
	nextID     int
	finalizers map[int]func()
}

// NewTeardown returns a teardown that calls release at most once.
func NewTeardown(release func(ctx context.Context) error, timeout time.Duration, logger *pterm.Logger) *Teardown {
	if timeout <= 0 {
		timeout = DefaultReleaseTimeout
	}
	if logger == nil {
		logger = disabledLogger
	}
	return &Teardown{
		release:    release,
		timeout:    timeout,
		logger:     logger,
		finalizers: map[int]func(){},
	}
}

// Defer registers f to run at teardown before the driver is released. The
// returned cancel removes it again.
func (t *Teardown) Defer(f func()) (cancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finalizers == nil {
		// Teardown already ran.
		return func() {}
	}
	id := t.nextID
	t.nextID++
	t.finalizers[id] = f
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.finalizers, id)
	}
}

// Run tears the session down and returns the process exit code, which is
// always 0. Concurrent and repeated calls wait for the first one to finish
// and do not release again.
func (t *Teardown) Run() int {
	t.once.Do(t.run)
	return 0
}

func (t *Teardown) run() {
	t.mu.Lock()
	ids := make([]int, 0, len(t.finalizers))
	for id := range t.finalizers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	pending := make([]func(), 0, len(ids))
	for _, id := range ids {
		pending = append(pending, t.finalizers[id])
	}
	t.finalizers = nil
	t.mu.Unlock()

	for _, f := range pending {
		f()
	}

	if t.release == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- t.release(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.logger.Warn("release failed", t.logger.Args("error", err.Error()))
		} else {
			t.logger.Debug("browser released")
		}
	case <-ctx.Done():
		t.logger.Warn("release timed out", t.logger.Args("timeout", t.timeout.String()))
	}
}
