package engine

import (
	"context"
	"sync"
)

// TrainHandle tracks one asynchronously dispatched training step.
//
// The handle is completed exactly once, either with nil when the parameter
// update was applied, or with an error when the step failed or was cancelled
// before its update started.
type TrainHandle struct {
	done   chan struct{}
	cancel context.CancelFunc

	mu  sync.Mutex
	err error
}

// NewTrainHandle creates a handle whose Cancel invokes the given function.
// Intended for engine implementations; callers only consume handles.
func NewTrainHandle(cancel context.CancelFunc) *TrainHandle {
	return &TrainHandle{
		done:   make(chan struct{}),
		cancel: cancel,
	}
}

// Complete finishes the handle with the outcome of the training step.
// Calling Complete more than once panics, matching the single-completion
// contract of the worker that owns the handle.
func (h *TrainHandle) Complete(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
	close(h.done)
}

// Done returns a channel closed when the training step has finished.
func (h *TrainHandle) Done() <-chan struct{} {
	return h.done
}

// Err returns the outcome of the step. Only valid after Done is closed.
func (h *TrainHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Wait blocks until the step finishes or ctx is done, returning the step's
// outcome or the context error.
func (h *TrainHandle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel requests cooperative cancellation. A step that has not yet begun
// its parameter update completes with ErrTrainingCanceled; an update already
// in progress always runs to completion.
func (h *TrainHandle) Cancel() {
	if h.cancel != nil {
		h.cancel()
	}
}
