package core

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/localmind-ai/localmind-go/pkg/datasource"
	"github.com/localmind-ai/localmind-go/pkg/engine"
	"github.com/localmind-ai/localmind-go/pkg/storage"
)

// defaultPredictionWindow is how many recent events feed a prediction.
const defaultPredictionWindow = 10

// ContainerBuilder assembles a Container from explicit dependencies.
//
// There is no process-wide default container: every dependency is passed
// in, and a missing required dependency fails at Build time rather than
// surfacing later as a nil-pointer panic mid-operation.
//
// Example:
//
//	container, err := core.NewContainerBuilder().
//	    WithUserID("user_001").
//	    WithEngine(mlp.NewEngine(mlp.Config{})).
//	    WithStorage(store).
//	    WithDataSource(source).
//	    Build()
type ContainerBuilder struct {
	userID           string
	engine           engine.Engine
	storage          storage.DataStorage
	source           datasource.Source
	logger           *zap.Logger
	predictionWindow int
}

// NewContainerBuilder creates an empty builder.
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{}
}

// WithUserID sets the user this container is scoped to. Required.
func (b *ContainerBuilder) WithUserID(userID string) *ContainerBuilder {
	b.userID = userID
	return b
}

// WithEngine sets the learning engine. Required.
func (b *ContainerBuilder) WithEngine(eng engine.Engine) *ContainerBuilder {
	b.engine = eng
	return b
}

// WithStorage sets the storage collaborator. Required.
func (b *ContainerBuilder) WithStorage(store storage.DataStorage) *ContainerBuilder {
	b.storage = store
	return b
}

// WithDataSource sets the data-source collaborator. Required.
func (b *ContainerBuilder) WithDataSource(source datasource.Source) *ContainerBuilder {
	b.source = source
	return b
}

// WithLogger sets the container's logger. Optional; defaults to no-op.
func (b *ContainerBuilder) WithLogger(log *zap.Logger) *ContainerBuilder {
	b.logger = log
	return b
}

// WithPredictionWindow sets how many recent events feed a prediction.
// Optional; defaults to 10.
func (b *ContainerBuilder) WithPredictionWindow(window int) *ContainerBuilder {
	b.predictionWindow = window
	return b
}

// Build validates the dependencies and creates the container in the
// Created state. A missing required dependency is a construction-time
// failure, never a deferred one.
func (b *ContainerBuilder) Build() (*Container, error) {
	if b.userID == "" {
		return nil, NewContainerError("Build", fmt.Errorf("%w: user ID", ErrMissingDependency))
	}
	if b.engine == nil {
		return nil, NewContainerError("Build", fmt.Errorf("%w: engine", ErrMissingDependency))
	}
	if b.storage == nil {
		return nil, NewContainerError("Build", fmt.Errorf("%w: storage", ErrMissingDependency))
	}
	if b.source == nil {
		return nil, NewContainerError("Build", fmt.Errorf("%w: data source", ErrMissingDependency))
	}
	if b.predictionWindow <= 0 {
		b.predictionWindow = defaultPredictionWindow
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, NewContainerError("Build", err)
	}

	return &Container{
		userID:           b.userID,
		engine:           b.engine,
		storage:          b.storage,
		source:           b.source,
		log:              b.logger.With(zap.String("user_id", b.userID)),
		predictionWindow: b.predictionWindow,
		idNode:           node,
		state:            StateCreated,
	}, nil
}
