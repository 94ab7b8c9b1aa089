package datasource

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/localmind-ai/localmind-go/pkg/entity"
)

// defaultSubscriberBuffer is the per-subscriber queue depth. A slow handler
// backpressures Emit once its queue fills rather than dropping events.
const defaultSubscriberBuffer = 128

// Emitter is an in-process Source fed by the host application.
//
// Each subscriber gets its own buffered queue drained by a dedicated
// goroutine, so events reach every subscriber in emission order and one slow
// subscriber cannot reorder delivery for another.
//
// Example:
//
//	source := datasource.NewEmitter()
//	defer source.Close()
//
//	sub, _ := source.Subscribe(ctx, func(e *entity.InteractionEvent) { ... })
//	source.Emit(&entity.InteractionEvent{Kind: "click", UserID: "user_001"})
//	sub.Cancel()
type Emitter struct {
	mu          sync.Mutex
	subscribers map[string]*emitterSubscription
	closed      bool
}

// NewEmitter creates a new in-process event source.
func NewEmitter() *Emitter {
	return &Emitter{
		subscribers: make(map[string]*emitterSubscription),
	}
}

// Subscribe registers a handler for all future events.
func (e *Emitter) Subscribe(ctx context.Context, handler Handler) (Subscription, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrSourceClosed
	}

	sub := &emitterSubscription{
		id:      uuid.NewString(),
		emitter: e,
		queue:   make(chan *entity.InteractionEvent, defaultSubscriberBuffer),
		done:    make(chan struct{}),
	}
	e.subscribers[sub.id] = sub

	go sub.run(ctx, handler)

	return sub, nil
}

// Emit delivers an event to every active subscriber.
//
// Blocks while any subscriber queue is full; returns immediately after the
// event is enqueued everywhere. Emitting on a closed emitter is a no-op.
func (e *Emitter) Emit(event *entity.InteractionEvent) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	subs := make([]*emitterSubscription, 0, len(e.subscribers))
	for _, sub := range e.subscribers {
		subs = append(subs, sub)
	}
	e.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub.queue <- event:
		case <-sub.done:
		}
	}
}

// Close cancels all subscriptions and stops accepting events.
func (e *Emitter) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	subs := make([]*emitterSubscription, 0, len(e.subscribers))
	for _, sub := range e.subscribers {
		subs = append(subs, sub)
	}
	e.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
}

// remove detaches a subscription from the emitter's registry.
func (e *Emitter) remove(id string) {
	e.mu.Lock()
	delete(e.subscribers, id)
	e.mu.Unlock()
}

// emitterSubscription drains one subscriber queue in order.
type emitterSubscription struct {
	id       string
	emitter  *Emitter
	queue    chan *entity.InteractionEvent
	done     chan struct{}
	cancelMu sync.Mutex
	canceled bool
}

// run delivers queued events to the handler until cancelled.
func (s *emitterSubscription) run(ctx context.Context, handler Handler) {
	for {
		select {
		case event := <-s.queue:
			handler(event)
		case <-s.done:
			return
		case <-ctx.Done():
			s.Cancel()
			return
		}
	}
}

// Cancel stops event delivery. Safe to call multiple times.
func (s *emitterSubscription) Cancel() {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()

	if s.canceled {
		return
	}
	s.canceled = true
	close(s.done)
	s.emitter.remove(s.id)
}
