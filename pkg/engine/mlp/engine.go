// Package mlp implements the learning engine as a small feed-forward
// network trained online, one example at a time.
//
// The topology is fixed: 4 input features, one hidden layer, 3 output
// units. This is deliberately not a general training framework; there is no
// batching, no accelerator, and no architecture search. What it buys in
// exchange is an auditable numeric core and a lossless, versioned snapshot
// of everything the engine has learned.
package mlp

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/localmind-ai/localmind-go/pkg/engine"
	"github.com/localmind-ai/localmind-go/pkg/entity"
)

const (
	outputSize = 3

	defaultHiddenSize   = 8
	defaultLearningRate = 0.01
	defaultHistoryLimit = 1000
	defaultTrendWindow  = 50
	defaultMaxWorkers   = 4
)

// suggestionLabels names the three output units in index order.
var suggestionLabels = [outputSize]string{
	"primary_action",
	"timing_urgency",
	"preference_alignment",
}

// Config contains configuration for creating an mlp engine.
type Config struct {
	// HiddenSize is the hidden layer width. Default 8.
	HiddenSize int

	// LearningRate is the fixed SGD step size. Default 0.01.
	LearningRate float64

	// HistoryLimit bounds the retained training examples. Default 1000.
	HistoryLimit int

	// TrendWindow bounds the ring of recent prediction confidences. Default 50.
	TrendWindow int

	// MaxWorkers bounds concurrently executing training steps. Default 4.
	MaxWorkers int64

	// Seed seeds the engine's random source. Zero means time-based.
	Seed int64

	// Policy generates training targets. Default HeuristicPolicy.
	Policy TargetPolicy

	// Logger receives engine diagnostics. Default no-op.
	Logger *zap.Logger
}

// trainingExample is one retained online-learning example.
type trainingExample struct {
	features []float64
	target   []float64
	loss     float64
	at       int64
}

// Engine is the feed-forward learning engine.
//
// It carries its own mutex around the parameter tensors: training steps
// execute asynchronously relative to whatever lock the container holds, and
// must not race with Predict or Snapshot. The container's lock and this one
// are never held together from the container's side, which lets predictions
// proceed while an unrelated container operation is queued.
type Engine struct {
	hiddenSize   int
	learningRate float64
	historyLimit int
	trendWindow  int
	policy       TargetPolicy
	log          *zap.Logger

	// sem bounds the training worker pool; wg tracks dispatched steps.
	sem *semaphore.Weighted
	wg  sync.WaitGroup

	// mu guards everything below, including the tensors inside net.
	mu               sync.Mutex
	net              *network
	rng              *rand.Rand
	initialized      bool
	released         bool
	trainingSteps    int64
	interactionCount int64
	lastLoss         float64
	history          []trainingExample
	confidences      []float64
	confidenceNext   int
	confidenceCount  int
}

// NewEngine creates an engine with the given configuration. The engine is
// inert until Initialize is called.
func NewEngine(cfg Config) *Engine {
	if cfg.HiddenSize <= 0 {
		cfg.HiddenSize = defaultHiddenSize
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = defaultLearningRate
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if cfg.TrendWindow <= 0 {
		cfg.TrendWindow = defaultTrendWindow
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = defaultMaxWorkers
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Policy == nil {
		cfg.Policy = HeuristicPolicy{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Engine{
		hiddenSize:   cfg.HiddenSize,
		learningRate: cfg.LearningRate,
		historyLimit: cfg.HistoryLimit,
		trendWindow:  cfg.TrendWindow,
		policy:       cfg.Policy,
		log:          cfg.Logger,
		sem:          semaphore.NewWeighted(cfg.MaxWorkers),
		rng:          rand.New(rand.NewSource(cfg.Seed)),
		confidences:  make([]float64, cfg.TrendWindow),
	}
}

// Initialize prepares the engine's parameters.
//
// With a snapshot, the tensors and counters are restored byte-for-byte. A
// structurally invalid snapshot is logged and replaced by fresh random
// initialization: on-device availability beats strictness here, since the
// alternative is a container that can never start. A second Initialize on
// an already initialized engine is a logged no-op because restart races are
// expected in the container's pipeline.
func (e *Engine) Initialize(ctx context.Context, snapshot *entity.ModelSnapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.released {
		return engine.ErrReleased
	}
	if e.initialized {
		e.log.Info("engine already initialized, ignoring repeated Initialize")
		return nil
	}

	if snapshot != nil {
		net, steps, interactions, err := decodeSnapshot(snapshot, inputSize, e.hiddenSize, outputSize)
		if err == nil {
			e.net = net
			e.trainingSteps = steps
			e.interactionCount = interactions
			e.initialized = true
			e.log.Info("engine restored from snapshot",
				zap.Int64("training_steps", steps),
				zap.Int64("interaction_count", interactions))
			return nil
		}
		if !errors.Is(err, ErrSnapshotMismatch) {
			return err
		}
		e.log.Warn("snapshot restoration failed, initializing fresh", zap.Error(err))
	}

	e.net = newNetwork(inputSize, e.hiddenSize, outputSize, e.learningRate, e.rng)
	e.initialized = true
	e.log.Info("engine initialized fresh",
		zap.Int("hidden_size", e.hiddenSize),
		zap.Float64("learning_rate", e.learningRate))
	return nil
}

// TrainStep dispatches one online learning update for the event.
//
// The update runs on the bounded worker pool; the caller gets a handle back
// immediately and is never blocked on the math. Cancelling the handle is
// cooperative: it is honored up to the moment the parameter update begins,
// after which the update always completes (no torn writes).
func (e *Engine) TrainStep(ctx context.Context, event *entity.InteractionEvent) (*engine.TrainHandle, error) {
	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return nil, engine.ErrReleased
	}
	if !e.initialized {
		e.mu.Unlock()
		return nil, engine.ErrNotInitialized
	}
	e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The step outlives the caller's context deliberately: cancelling an
	// event subscription must not cancel training already dispatched.
	stepCtx, cancel := context.WithCancel(context.Background())
	handle := engine.NewTrainHandle(cancel)
	features := extractFeatures(event)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer cancel()

		if err := e.sem.Acquire(stepCtx, 1); err != nil {
			handle.Complete(engine.ErrTrainingCanceled)
			return
		}
		defer e.sem.Release(1)

		// Last cancellation point before the atomic update.
		select {
		case <-stepCtx.Done():
			handle.Complete(engine.ErrTrainingCanceled)
			return
		default:
		}

		handle.Complete(e.applyUpdate(event, features))
	}()

	return handle, nil
}

// applyUpdate performs the locked forward/backward pass and bookkeeping.
func (e *Engine) applyUpdate(event *entity.InteractionEvent, features []float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.released {
		return engine.ErrReleased
	}
	if !e.initialized {
		return engine.ErrNotInitialized
	}

	target := e.policy.Target(event, e.rng)
	loss := e.net.train(features, target)

	e.trainingSteps++
	e.interactionCount++
	e.lastLoss = loss

	e.history = append(e.history, trainingExample{
		features: features,
		target:   target,
		loss:     loss,
		at:       event.OccurredAt,
	})
	if len(e.history) > e.historyLimit {
		e.history = e.history[len(e.history)-e.historyLimit:]
	}

	e.log.Debug("training step applied",
		zap.String("kind", event.Kind),
		zap.Float64("loss", loss),
		zap.Int64("training_steps", e.trainingSteps))
	return nil
}

// Predict runs a forward pass over the most recent usable context event.
//
// The three output units are ranked by value; the top becomes the
// suggestion and the rest its alternatives. SuppressKind instructions
// exclude matching events from context selection; confidence thresholds are
// the container's concern, so the engine never withholds a prediction once
// initialized.
func (e *Engine) Predict(ctx context.Context, contextEvents []*entity.InteractionEvent, instructions []entity.Instruction) (*entity.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.released {
		return nil, engine.ErrReleased
	}
	if !e.initialized {
		return nil, engine.ErrNotInitialized
	}

	input := make([]float64, inputSize)
	if latest := latestUsableEvent(contextEvents, instructions); latest != nil {
		input = extractFeatures(latest)
	}

	_, output := e.net.forward(input)

	// Rank the output units by value, highest first.
	order := [outputSize]int{0, 1, 2}
	for i := 0; i < outputSize-1; i++ {
		for j := i + 1; j < outputSize; j++ {
			if output[order[j]] > output[order[i]] {
				order[i], order[j] = order[j], order[i]
			}
		}
	}

	alternatives := make([]string, 0, outputSize-1)
	for _, idx := range order[1:] {
		alternatives = append(alternatives, suggestionLabels[idx])
	}

	confidence := output[order[0]]
	e.recordConfidence(confidence)

	return &entity.Prediction{
		Suggestion:   suggestionLabels[order[0]],
		Confidence:   confidence,
		Category:     "behavioral",
		Alternatives: alternatives,
		Metadata: map[string]string{
			"model":          "mlp",
			"training_steps": strconv.FormatInt(e.trainingSteps, 10),
			"context_size":   strconv.Itoa(len(contextEvents)),
		},
	}, nil
}

// latestUsableEvent returns the most recent context event not excluded by a
// suppression instruction, or nil when none qualifies.
func latestUsableEvent(events []*entity.InteractionEvent, instructions []entity.Instruction) *entity.InteractionEvent {
	for i := len(events) - 1; i >= 0; i-- {
		event := events[i]
		suppressed := false
		for _, instruction := range instructions {
			switch rule := instruction.(type) {
			case entity.SuppressKind:
				if rule.Kind == event.Kind {
					suppressed = true
				}
			case entity.MinConfidence:
				// Confidence filtering happens in the container.
			}
		}
		if !suppressed {
			return event
		}
	}
	return nil
}

// recordConfidence pushes one confidence value onto the trend ring.
// Caller holds e.mu.
func (e *Engine) recordConfidence(confidence float64) {
	e.confidences[e.confidenceNext] = confidence
	e.confidenceNext = (e.confidenceNext + 1) % e.trendWindow
	if e.confidenceCount < e.trendWindow {
		e.confidenceCount++
	}
}

// Snapshot serializes the engine's full state into a versioned payload.
func (e *Engine) Snapshot(ctx context.Context) (*entity.ModelSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.released {
		return nil, engine.ErrReleased
	}
	if !e.initialized {
		return nil, engine.ErrNotInitialized
	}

	return encodeSnapshot(e.net, e.trainingSteps, e.interactionCount)
}

// Reset clears history and counters and reinitializes the parameters fresh,
// keeping the same topology and hyperparameters.
func (e *Engine) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.released {
		return engine.ErrReleased
	}

	e.net = newNetwork(inputSize, e.hiddenSize, outputSize, e.learningRate, e.rng)
	e.initialized = true
	e.trainingSteps = 0
	e.interactionCount = 0
	e.lastLoss = 0
	e.history = nil
	e.confidences = make([]float64, e.trendWindow)
	e.confidenceNext = 0
	e.confidenceCount = 0

	e.log.Info("engine reset")
	return nil
}

// Release frees the engine's resources, waiting for dispatched training
// steps to finish. Safe to call multiple times.
func (e *Engine) Release() error {
	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return nil
	}
	e.released = true
	e.mu.Unlock()

	e.wg.Wait()
	e.log.Info("engine released")
	return nil
}

// Trend returns the recorded prediction confidences, oldest first.
func (e *Engine) Trend() []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	trend := make([]float64, 0, e.confidenceCount)
	start := e.confidenceNext - e.confidenceCount
	for i := 0; i < e.confidenceCount; i++ {
		idx := (start + i + e.trendWindow) % e.trendWindow
		trend = append(trend, e.confidences[idx])
	}
	return trend
}

// Stats returns engine diagnostics.
func (e *Engine) Stats() map[string]interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()

	return map[string]interface{}{
		"input_size":        inputSize,
		"hidden_size":       e.hiddenSize,
		"output_size":       outputSize,
		"learning_rate":     e.learningRate,
		"training_steps":    e.trainingSteps,
		"interaction_count": e.interactionCount,
		"last_loss":         e.lastLoss,
		"history_size":      len(e.history),
		"initialized":       e.initialized,
	}
}

// TrainingSteps returns the number of applied parameter updates.
func (e *Engine) TrainingSteps() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.trainingSteps
}

// InteractionCount returns the number of interactions learned from.
func (e *Engine) InteractionCount() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.interactionCount
}

var _ engine.Engine = (*Engine)(nil)
