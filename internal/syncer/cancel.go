package syncer

import (
	"context"
	"sync"
)

// CancelToken is a process-wide, resettable abort signal. Logout and
// navigation-away cancel it; the orchestrator resets it at the start of every
// run. Suspending calls derive their context from it so an abort unwinds
// them promptly.
type CancelToken struct {
	mu        sync.Mutex
	ch        chan struct{}
	cancelled bool
}

func NewCancelToken() *CancelToken {
	return &CancelToken{ch: make(chan struct{})}
}

// Cancel fires the token. Idempotent.
func (t *CancelToken) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.cancelled {
		close(t.ch)
		t.cancelled = true
	}
}

// Reset re-arms a fired token for the next run.
func (t *CancelToken) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled {
		t.ch = make(chan struct{})
		t.cancelled = false
	}
}

// Cancelled reports whether the token has fired and not been reset.
func (t *CancelToken) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Done returns a channel closed when the token fires. The channel belongs to
// the current arm of the token; after a Reset it must be fetched again.
func (t *CancelToken) Done() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ch
}

// Context derives a context cancelled when either the parent or the token
// fires. The returned CancelFunc releases the watcher goroutine and must be
// called when the run finishes.
func (t *CancelToken) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	done := t.Done()
	go func() {
		select {
		case <-done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
