// Package datasource provides the interface for live interaction event
// sources, along with an in-process implementation.
package datasource

import (
	"context"

	"github.com/localmind-ai/localmind-go/pkg/entity"
)

// Handler receives one interaction event. It must not retain the event
// beyond the call unless it clones it.
type Handler func(event *entity.InteractionEvent)

// Source emits a live sequence of interaction events.
//
// Implementations must deliver events to each subscriber in emission order
// and must stop delivering after the subscription is cancelled.
type Source interface {
	// Subscribe registers a handler for all future events. Delivery stops
	// when the returned subscription is cancelled or ctx is done.
	Subscribe(ctx context.Context, handler Handler) (Subscription, error)
}

// Subscription is a handle on an active event subscription.
type Subscription interface {
	// Cancel stops event delivery. Safe to call multiple times.
	Cancel()
}
