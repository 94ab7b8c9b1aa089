// Package storage provides interfaces and types for localmind storage backends.
//
// It defines the DataStorage interface that all backends must satisfy. A
// backend persists two things per user: the engine's serialized state
// (snapshots) and the raw interaction history that feeds prediction context.
package storage

import (
	"context"

	"github.com/localmind-ai/localmind-go/pkg/entity"
)

// DataStorage defines the persistence contract consumed by the container.
//
// All methods may block on I/O and must be safe for concurrent invocation.
// Backends are expected to scope every read and write by user ID so that one
// container instance never observes another user's data.
type DataStorage interface {
	// Initialize prepares the backend for use (creates tables, verifies the
	// connection). It must be called before any other method.
	Initialize(ctx context.Context) error

	// SaveSnapshot persists the engine state for a user, replacing any
	// previously stored snapshot.
	SaveSnapshot(ctx context.Context, userID string, snapshot *entity.ModelSnapshot) error

	// LoadSnapshot returns the stored snapshot for a user, or (nil, nil)
	// if none has been saved.
	LoadSnapshot(ctx context.Context, userID string) (*entity.ModelSnapshot, error)

	// SaveEvent persists one interaction event.
	SaveEvent(ctx context.Context, event *entity.InteractionEvent) error

	// LoadRecentEvents returns up to limit events for a user, newest first.
	// If kindFilter is non-empty, only events of that kind are returned.
	LoadRecentEvents(ctx context.Context, userID string, limit int, kindFilter string) ([]*entity.InteractionEvent, error)

	// DeleteUserData removes the snapshot and all events for a user.
	DeleteUserData(ctx context.Context, userID string) error

	// Close releases the backend's resources.
	Close() error
}
