package datasource

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localmind-ai/localmind-go/pkg/entity"
)

// collector is a handler that records delivered events.
type collector struct {
	mu     sync.Mutex
	events []*entity.InteractionEvent
}

func (c *collector) handle(event *entity.InteractionEvent) {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func (c *collector) kinds() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	kinds := make([]string, 0, len(c.events))
	for _, event := range c.events {
		kinds = append(kinds, event.Kind)
	}
	return kinds
}

func TestEmitterDeliversInOrder(t *testing.T) {
	emitter := NewEmitter()
	defer emitter.Close()

	c := &collector{}
	sub, err := emitter.Subscribe(context.Background(), c.handle)
	require.NoError(t, err)
	defer sub.Cancel()

	kinds := []string{"a", "b", "c", "d", "e"}
	for _, kind := range kinds {
		emitter.Emit(&entity.InteractionEvent{Kind: kind, UserID: "u"})
	}

	assert.Eventually(t, func() bool { return c.count() == len(kinds) },
		2*time.Second, 10*time.Millisecond)
	assert.Equal(t, kinds, c.kinds())
}

func TestEmitterFanOut(t *testing.T) {
	emitter := NewEmitter()
	defer emitter.Close()

	first := &collector{}
	second := &collector{}

	subA, err := emitter.Subscribe(context.Background(), first.handle)
	require.NoError(t, err)
	defer subA.Cancel()
	subB, err := emitter.Subscribe(context.Background(), second.handle)
	require.NoError(t, err)
	defer subB.Cancel()

	for i := 0; i < 10; i++ {
		emitter.Emit(&entity.InteractionEvent{Kind: "scroll", UserID: "u"})
	}

	assert.Eventually(t, func() bool {
		return first.count() == 10 && second.count() == 10
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCancelStopsDelivery(t *testing.T) {
	emitter := NewEmitter()
	defer emitter.Close()

	c := &collector{}
	sub, err := emitter.Subscribe(context.Background(), c.handle)
	require.NoError(t, err)

	emitter.Emit(&entity.InteractionEvent{Kind: "a", UserID: "u"})
	assert.Eventually(t, func() bool { return c.count() == 1 },
		2*time.Second, 10*time.Millisecond)

	sub.Cancel()
	emitter.Emit(&entity.InteractionEvent{Kind: "b", UserID: "u"})

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, c.count())
}

func TestCancelIdempotent(t *testing.T) {
	emitter := NewEmitter()
	defer emitter.Close()

	sub, err := emitter.Subscribe(context.Background(), func(*entity.InteractionEvent) {})
	require.NoError(t, err)

	sub.Cancel()
	sub.Cancel()
}

func TestContextCancellationCancelsSubscription(t *testing.T) {
	emitter := NewEmitter()
	defer emitter.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := &collector{}
	_, err := emitter.Subscribe(ctx, c.handle)
	require.NoError(t, err)

	cancel()
	time.Sleep(50 * time.Millisecond)

	emitter.Emit(&entity.InteractionEvent{Kind: "a", UserID: "u"})
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, c.count())
}

func TestSubscribeAfterCloseFails(t *testing.T) {
	emitter := NewEmitter()
	emitter.Close()

	sub, err := emitter.Subscribe(context.Background(), func(*entity.InteractionEvent) {})
	assert.ErrorIs(t, err, ErrSourceClosed)
	assert.Nil(t, sub)
}

func TestEmitAfterCloseIsNoOp(t *testing.T) {
	emitter := NewEmitter()

	c := &collector{}
	_, err := emitter.Subscribe(context.Background(), c.handle)
	require.NoError(t, err)

	emitter.Close()
	emitter.Emit(&entity.InteractionEvent{Kind: "a", UserID: "u"})

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, c.count())
}

func TestCloseIdempotent(t *testing.T) {
	emitter := NewEmitter()
	emitter.Close()
	emitter.Close()
}
