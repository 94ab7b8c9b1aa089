// Package engine defines the learning engine contract consumed by the
// container, along with the handle type for asynchronous training steps.
//
// An engine owns the learnable parameters for exactly one container
// instance. All parameter reads and writes are serialized internally; the
// container never sees the parameters except through Snapshot.
package engine

import (
	"context"
	"errors"

	"github.com/localmind-ai/localmind-go/pkg/entity"
)

// Predefined errors for common engine failure scenarios.
var (
	// ErrNotInitialized indicates an operation before Initialize completed.
	ErrNotInitialized = errors.New("engine not initialized")

	// ErrReleased indicates an operation after Release.
	ErrReleased = errors.New("engine released")

	// ErrTrainingCanceled indicates a training step cancelled before its
	// parameter update started. An update is atomic once started.
	ErrTrainingCanceled = errors.New("training step canceled")
)

// Engine maintains learnable parameters and performs feature extraction,
// online training, and inference.
//
// Implementations must be safe for concurrent use: TrainStep executes
// asynchronously relative to Predict and Snapshot, and only the mutual
// exclusion of each individual parameter update is guaranteed, not the
// completion order of concurrently dispatched steps.
type Engine interface {
	// Initialize prepares the engine, restoring state from snapshot when one
	// is given. A structurally invalid snapshot (wrong version or
	// dimensions) falls back to fresh random initialization rather than
	// failing. Calling Initialize on an already initialized engine is a
	// logged no-op, not an error.
	Initialize(ctx context.Context, snapshot *entity.ModelSnapshot) error

	// TrainStep performs one online learning update for the event. The
	// update runs off the caller's path on a bounded worker pool; the
	// returned handle can be awaited or cancelled. TrainStep itself never
	// blocks on the training math.
	TrainStep(ctx context.Context, event *entity.InteractionEvent) (*TrainHandle, error)

	// Predict runs a forward pass over the most recent context event (or a
	// zero vector when the context is empty) and returns the ranked
	// suggestion. Returns ErrNotInitialized before Initialize; otherwise it
	// always produces a best-effort prediction.
	Predict(ctx context.Context, contextEvents []*entity.InteractionEvent, instructions []entity.Instruction) (*entity.Prediction, error)

	// Snapshot serializes the full engine state into a versioned payload.
	// Re-initializing from the result reproduces identical future
	// predictions given identical future input.
	Snapshot(ctx context.Context) (*entity.ModelSnapshot, error)

	// Reset clears history and counters and reinitializes the parameters
	// fresh, keeping the same topology and hyperparameters.
	Reset(ctx context.Context) error

	// Release frees the engine's resources. Safe to call multiple times.
	Release() error
}
