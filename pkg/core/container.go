package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/localmind-ai/localmind-go/pkg/datasource"
	"github.com/localmind-ai/localmind-go/pkg/engine"
	"github.com/localmind-ai/localmind-go/pkg/entity"
	"github.com/localmind-ai/localmind-go/pkg/storage"
)

// pipelineBuffer decouples the subscription callback from the per-event
// pipeline so a slow persistence call cannot stall event delivery.
const pipelineBuffer = 256

// Container orchestrates one user's adaptive-learning runtime: it owns the
// lifecycle state machine, routes events from the data source through
// filtering and persistence into the engine, and answers prediction
// requests.
//
// Containers are created via ContainerBuilder and are safe for concurrent
// use. One exclusive lock guards lifecycle transitions and the container's
// read-modify-write sequences; the engine guards its parameter tensors with
// its own lock, so predictions can proceed while an unrelated save is
// queued.
//
// Example:
//
//	container, _ := core.NewContainerBuilder().
//	    WithUserID("user_001").
//	    WithEngine(eng).
//	    WithStorage(store).
//	    WithDataSource(source).
//	    Build()
//
//	if err := container.Initialize(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer container.Release(ctx)
//
//	prediction, _ := container.GetPrediction(ctx)
type Container struct {
	userID           string
	engine           engine.Engine
	storage          storage.DataStorage
	source           datasource.Source
	log              *zap.Logger
	predictionWindow int
	idNode           *snowflake.Node

	// mu guards the lifecycle state and the container's own
	// read-modify-write sequences (Initialize, Reset, SaveState, Release).
	mu           sync.Mutex
	state        State
	subscription datasource.Subscription
	pipelineCh   chan *entity.InteractionEvent
	pipelineStop chan struct{}
	rootCtx      context.Context
	rootCancel   context.CancelFunc

	// instrMu guards the active instruction set, which is replaced
	// atomically and read on every event and every prediction.
	instrMu      sync.RWMutex
	instructions []entity.Instruction
}

// UserID returns the user this container is scoped to.
func (c *Container) UserID() string {
	return c.userID
}

// State returns the current lifecycle state.
func (c *Container) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Initialize transitions the container from Created to Ready.
//
// Sequentially: initializes storage, attempts to load a prior snapshot for
// the user, initializes the engine with it (or fresh when none exists),
// then subscribes to the data source. The container becomes Ready only
// after the subscription succeeds; on any failure the state reverts to
// Created.
//
// A second concurrent Initialize observes the in-flight state and returns
// ErrAlreadyInitialized without double-subscribing.
func (c *Container) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateCreated:
		// proceed
	case StateReleased:
		return NewContainerError("Initialize", ErrReleased)
	default:
		return NewContainerError("Initialize", ErrAlreadyInitialized)
	}

	c.state = StateInitializing
	if err := c.initializeLocked(ctx); err != nil {
		c.state = StateCreated
		return NewContainerError("Initialize", err)
	}
	c.state = StateReady

	c.log.Info("container ready")
	return nil
}

// initializeLocked performs the initialization sequence. Caller holds c.mu.
func (c *Container) initializeLocked(ctx context.Context) error {
	if err := c.storage.Initialize(ctx); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	// A failed snapshot load is recovered locally: the engine starts fresh
	// rather than the container refusing to come up.
	snapshot, err := c.storage.LoadSnapshot(ctx, c.userID)
	if err != nil {
		c.log.Warn("snapshot load failed, starting fresh", zap.Error(err))
		snapshot = nil
	}

	if err := c.engine.Initialize(ctx, snapshot); err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	c.rootCtx, c.rootCancel = context.WithCancel(context.Background())
	if err := c.subscribeLocked(); err != nil {
		c.rootCancel()
		return fmt.Errorf("subscribe: %w", err)
	}

	return nil
}

// subscribeLocked starts the pipeline goroutine and subscribes to the data
// source. Caller holds c.mu.
func (c *Container) subscribeLocked() error {
	ch := make(chan *entity.InteractionEvent, pipelineBuffer)
	stop := make(chan struct{})

	sub, err := c.source.Subscribe(c.rootCtx, func(event *entity.InteractionEvent) {
		select {
		case ch <- event:
		case <-stop:
		}
	})
	if err != nil {
		close(stop)
		return err
	}

	c.subscription = sub
	c.pipelineCh = ch
	c.pipelineStop = stop
	go c.runPipeline(ch, stop)
	return nil
}

// unsubscribeLocked cancels the subscription and stops the pipeline
// goroutine. Already-dispatched training steps are left to complete.
// Caller holds c.mu.
func (c *Container) unsubscribeLocked() {
	if c.subscription != nil {
		c.subscription.Cancel()
		c.subscription = nil
	}
	if c.pipelineStop != nil {
		close(c.pipelineStop)
		c.pipelineStop = nil
		c.pipelineCh = nil
	}
}

// runPipeline consumes events in arrival order until stopped.
func (c *Container) runPipeline(ch <-chan *entity.InteractionEvent, stop <-chan struct{}) {
	for {
		select {
		case event := <-ch:
			c.processEvent(event)
		case <-stop:
			return
		}
	}
}

// processEvent runs the per-event pipeline: instruction filter, persist,
// then forward to the engine's asynchronous training step. A single event's
// failure is logged and dropped; the subscription never aborts.
func (c *Container) processEvent(event *entity.InteractionEvent) {
	for _, instruction := range c.Instructions() {
		switch rule := instruction.(type) {
		case entity.SuppressKind:
			if rule.Kind == event.Kind {
				c.log.Debug("event suppressed", zap.String("kind", event.Kind))
				return
			}
		case entity.MinConfidence:
			// Applies to predictions, not events.
		}
	}

	event = event.Clone()
	if event.ID == 0 {
		event.ID = c.idNode.Generate().Int64()
	}
	if event.UserID == "" {
		event.UserID = c.userID
	}

	if err := c.storage.SaveEvent(c.rootCtx, event); err != nil {
		c.log.Error("event persistence failed", zap.String("kind", event.Kind), zap.Error(err))
		return
	}

	// Fire and forget: the handle is dropped, the engine bounds and tracks
	// the work itself.
	if _, err := c.engine.TrainStep(c.rootCtx, event); err != nil {
		c.log.Error("training dispatch failed", zap.String("kind", event.Kind), zap.Error(err))
	}
}

// GetPrediction returns the engine's prediction for the most recent window
// of persisted events, or nil when an active MinConfidence instruction
// suppresses it.
//
// Allowed while Ready and while a save is in flight; the engine's own lock
// serializes the forward pass against training updates.
func (c *Container) GetPrediction(ctx context.Context) (*entity.Prediction, error) {
	c.mu.Lock()
	switch c.state {
	case StateReady, StateSaving:
		// proceed
	case StateReleased:
		c.mu.Unlock()
		return nil, NewContainerError("GetPrediction", ErrReleased)
	default:
		c.mu.Unlock()
		return nil, NewContainerError("GetPrediction", fmt.Errorf("%w: %s", ErrInvalidState, c.state))
	}
	c.mu.Unlock()

	recent, err := c.storage.LoadRecentEvents(ctx, c.userID, c.predictionWindow, "")
	if err != nil {
		return nil, NewContainerError("GetPrediction", err)
	}

	// Storage returns newest first; the engine expects chronological order.
	events := make([]*entity.InteractionEvent, len(recent))
	for i, event := range recent {
		events[len(recent)-1-i] = event
	}

	instructions := c.Instructions()
	prediction, err := c.engine.Predict(ctx, events, instructions)
	if err != nil {
		return nil, NewContainerError("GetPrediction", err)
	}

	for _, instruction := range instructions {
		switch rule := instruction.(type) {
		case entity.MinConfidence:
			if prediction.Confidence < rule.Threshold {
				c.log.Debug("prediction below confidence threshold",
					zap.Float64("confidence", prediction.Confidence),
					zap.Float64("threshold", rule.Threshold))
				return nil, nil
			}
		case entity.SuppressKind:
			// Applies to events, not predictions.
		}
	}

	return prediction, nil
}

// Reset clears the container's learned state: it cancels the active
// subscription, resets the engine, deletes all persisted data for the
// user, and re-subscribes to the data source.
//
// The work runs asynchronously under the container's exclusive Resetting
// sub-state; the returned handle carries the outcome. Already-dispatched
// training steps are not cancelled.
func (c *Container) Reset(ctx context.Context) *OpHandle {
	c.mu.Lock()
	if err := c.requireReadyLocked("Reset"); err != nil {
		c.mu.Unlock()
		return completedHandle(err)
	}
	c.state = StateResetting
	c.mu.Unlock()

	handle := newOpHandle()
	go func() {
		err := c.performReset(ctx)

		c.mu.Lock()
		if c.state == StateResetting {
			c.state = StateReady
		}
		c.mu.Unlock()

		handle.complete(NewContainerError("Reset", err))
	}()
	return handle
}

// performReset does the reset sequence. Cleanup continues best-effort: a
// failed step is recorded but later steps still run, so the container ends
// in a consistent, re-subscribed state whenever possible.
func (c *Container) performReset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Released while the reset was queued; nothing left to reset.
	if c.state != StateResetting {
		return ErrReleased
	}

	var firstErr error

	c.unsubscribeLocked()

	if err := c.engine.Reset(ctx); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("engine: %w", err)
	}
	if err := c.storage.DeleteUserData(ctx, c.userID); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("storage: %w", err)
	}
	if err := c.subscribeLocked(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("resubscribe: %w", err)
	}

	if firstErr == nil {
		c.log.Info("container reset")
	}
	return firstErr
}

// SaveState snapshots the engine and persists it for the current user.
//
// The work runs asynchronously under the container's exclusive Saving
// sub-state; the returned handle carries the outcome.
func (c *Container) SaveState(ctx context.Context) *OpHandle {
	c.mu.Lock()
	if err := c.requireReadyLocked("SaveState"); err != nil {
		c.mu.Unlock()
		return completedHandle(err)
	}
	c.state = StateSaving
	c.mu.Unlock()

	handle := newOpHandle()
	go func() {
		err := c.performSave(ctx)

		c.mu.Lock()
		if c.state == StateSaving {
			c.state = StateReady
		}
		c.mu.Unlock()

		handle.complete(NewContainerError("SaveState", err))
	}()
	return handle
}

// performSave does the snapshot-and-persist sequence.
func (c *Container) performSave(ctx context.Context) error {
	snapshot, err := c.engine.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := c.storage.SaveSnapshot(ctx, c.userID, snapshot); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	c.log.Info("container state saved", zap.Int("payload_bytes", len(snapshot.Payload)))
	return nil
}

// UpdateInstructions atomically replaces the active instruction set.
//
// The entire set replaces the previous one; the replacement is visible to
// the very next event and the very next prediction.
func (c *Container) UpdateInstructions(instructions []entity.Instruction) {
	replacement := make([]entity.Instruction, len(instructions))
	copy(replacement, instructions)

	c.instrMu.Lock()
	c.instructions = replacement
	c.instrMu.Unlock()

	c.log.Debug("instructions replaced", zap.Int("count", len(replacement)))
}

// Instructions returns the active instruction set.
func (c *Container) Instructions() []entity.Instruction {
	c.instrMu.RLock()
	defer c.instrMu.RUnlock()
	return c.instructions
}

// Release cancels the subscription, releases the engine and storage, and
// transitions to Released. Idempotent; cleanup continues best-effort and
// the first error is returned.
func (c *Container) Release(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateReleased {
		return nil
	}
	c.state = StateReleased

	c.unsubscribeLocked()
	if c.rootCancel != nil {
		c.rootCancel()
	}

	var firstErr error
	if err := c.engine.Release(); err != nil {
		firstErr = fmt.Errorf("engine: %w", err)
	}
	if err := c.storage.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("storage: %w", err)
	}

	c.log.Info("container released")
	return NewContainerError("Release", firstErr)
}

// requireReadyLocked reports whether a data operation may start.
// Caller holds c.mu.
func (c *Container) requireReadyLocked(op string) error {
	switch c.state {
	case StateReady:
		return nil
	case StateReleased:
		return NewContainerError(op, ErrReleased)
	default:
		return NewContainerError(op, fmt.Errorf("%w: %s", ErrInvalidState, c.state))
	}
}
