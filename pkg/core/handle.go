package core

import (
	"context"
	"sync"
)

// OpHandle tracks one asynchronous container operation (Reset, SaveState).
//
// The handle completes exactly once. Operation failures surface through
// Err; cleanup inside the operation continues best-effort even when part of
// it fails.
type OpHandle struct {
	done chan struct{}

	mu  sync.Mutex
	err error
}

// newOpHandle creates an unfinished handle.
func newOpHandle() *OpHandle {
	return &OpHandle{done: make(chan struct{})}
}

// complete finishes the handle with the operation's outcome.
func (h *OpHandle) complete(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
	close(h.done)
}

// Done returns a channel closed when the operation has finished.
func (h *OpHandle) Done() <-chan struct{} {
	return h.done
}

// Err returns the operation's outcome. Only valid after Done is closed.
func (h *OpHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Wait blocks until the operation finishes or ctx is done.
func (h *OpHandle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// completedHandle returns a handle already finished with err.
func completedHandle(err error) *OpHandle {
	h := newOpHandle()
	h.complete(err)
	return h
}
