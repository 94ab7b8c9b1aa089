package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainHandleCompleteAndWait(t *testing.T) {
	handle := NewTrainHandle(nil)

	go func() {
		time.Sleep(10 * time.Millisecond)
		handle.Complete(nil)
	}()

	require.NoError(t, handle.Wait(context.Background()))
	assert.NoError(t, handle.Err())

	select {
	case <-handle.Done():
	default:
		t.Fatal("Done channel should be closed after completion")
	}
}

func TestTrainHandleCompleteWithError(t *testing.T) {
	handle := NewTrainHandle(nil)
	wantErr := errors.New("update failed")

	handle.Complete(wantErr)

	assert.ErrorIs(t, handle.Wait(context.Background()), wantErr)
	assert.ErrorIs(t, handle.Err(), wantErr)
}

func TestTrainHandleWaitRespectsContext(t *testing.T) {
	handle := NewTrainHandle(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, handle.Wait(ctx), context.DeadlineExceeded)
}

func TestTrainHandleCancelInvokesFunc(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	handle := NewTrainHandle(cancel)

	handle.Cancel()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)

	// Cancel with no function is a no-op.
	NewTrainHandle(nil).Cancel()
}
