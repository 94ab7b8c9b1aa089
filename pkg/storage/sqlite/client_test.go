package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localmind-ai/localmind-go/pkg/entity"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(&Config{
		DBPath: filepath.Join(t.TempDir(), "localmind_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Initialize(context.Background()))
	return client
}

func TestSnapshotSaveAndLoad(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	snapshot := &entity.ModelSnapshot{
		Payload: []byte{0x53, 0x4E, 0x4D, 0x4C, 1, 2, 3},
		Version: 1,
	}
	require.NoError(t, client.SaveSnapshot(ctx, "user-1", snapshot))

	loaded, err := client.LoadSnapshot(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.True(t, snapshot.Equal(loaded))
}

func TestLoadSnapshotAbsent(t *testing.T) {
	client := newTestClient(t)

	loaded, err := client.LoadSnapshot(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSaveSnapshotUpsert(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	first := &entity.ModelSnapshot{Payload: []byte("v1"), Version: 1}
	second := &entity.ModelSnapshot{Payload: []byte("v2"), Version: 1}

	require.NoError(t, client.SaveSnapshot(ctx, "user-1", first))
	require.NoError(t, client.SaveSnapshot(ctx, "user-1", second))

	loaded, err := client.LoadSnapshot(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, []byte("v2"), loaded.Payload)
}

func TestSnapshotsIsolatedPerUser(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.SaveSnapshot(ctx, "alice", &entity.ModelSnapshot{Payload: []byte("a"), Version: 1}))
	require.NoError(t, client.SaveSnapshot(ctx, "bob", &entity.ModelSnapshot{Payload: []byte("b"), Version: 1}))

	alice, err := client.LoadSnapshot(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), alice.Payload)

	bob, err := client.LoadSnapshot(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), bob.Payload)
}

func TestLoadRecentEventsOrderAndLimit(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, client.SaveEvent(ctx, &entity.InteractionEvent{
			ID:         int64(i),
			Kind:       "button_click",
			UserID:     "user-1",
			OccurredAt: int64(i * 1000),
		}))
	}

	events, err := client.LoadRecentEvents(ctx, "user-1", 3, "")
	require.NoError(t, err)
	require.Len(t, events, 3)

	// Newest first.
	assert.Equal(t, int64(5000), events[0].OccurredAt)
	assert.Equal(t, int64(4000), events[1].OccurredAt)
	assert.Equal(t, int64(3000), events[2].OccurredAt)
}

func TestLoadRecentEventsKindFilter(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.SaveEvent(ctx, &entity.InteractionEvent{
		ID: 1, Kind: "button_click", UserID: "user-1", OccurredAt: 1000,
	}))
	require.NoError(t, client.SaveEvent(ctx, &entity.InteractionEvent{
		ID: 2, Kind: "scroll", UserID: "user-1", OccurredAt: 2000,
	}))

	events, err := client.LoadRecentEvents(ctx, "user-1", 10, "scroll")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "scroll", events[0].Kind)
}

func TestLoadRecentEventsUserIsolation(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.SaveEvent(ctx, &entity.InteractionEvent{
		ID: 1, Kind: "scroll", UserID: "alice", OccurredAt: 1000,
	}))
	require.NoError(t, client.SaveEvent(ctx, &entity.InteractionEvent{
		ID: 2, Kind: "scroll", UserID: "bob", OccurredAt: 2000,
	}))

	events, err := client.LoadRecentEvents(ctx, "alice", 10, "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "alice", events[0].UserID)
}

func TestEventAttributesRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.SaveEvent(ctx, &entity.InteractionEvent{
		ID:     7,
		Kind:   "menu_select",
		UserID: "user-1",
		Attributes: map[string]interface{}{
			"item":  "settings",
			"depth": float64(2),
		},
		OccurredAt: 1000,
	}))

	events, err := client.LoadRecentEvents(ctx, "user-1", 1, "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "settings", events[0].Attributes["item"])
	assert.Equal(t, float64(2), events[0].Attributes["depth"])
}

func TestEventNilAttributes(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.SaveEvent(ctx, &entity.InteractionEvent{
		ID: 9, Kind: "dismiss", UserID: "user-1", OccurredAt: 1000,
	}))

	events, err := client.LoadRecentEvents(ctx, "user-1", 1, "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].Attributes)
}

func TestDeleteUserData(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.SaveSnapshot(ctx, "user-1", &entity.ModelSnapshot{Payload: []byte("x"), Version: 1}))
	require.NoError(t, client.SaveEvent(ctx, &entity.InteractionEvent{
		ID: 1, Kind: "scroll", UserID: "user-1", OccurredAt: 1000,
	}))
	require.NoError(t, client.SaveEvent(ctx, &entity.InteractionEvent{
		ID: 2, Kind: "scroll", UserID: "other", OccurredAt: 2000,
	}))

	require.NoError(t, client.DeleteUserData(ctx, "user-1"))

	snapshot, err := client.LoadSnapshot(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, snapshot)

	events, err := client.LoadRecentEvents(ctx, "user-1", 10, "")
	require.NoError(t, err)
	assert.Empty(t, events)

	// Other users are untouched.
	others, err := client.LoadRecentEvents(ctx, "other", 10, "")
	require.NoError(t, err)
	assert.Len(t, others, 1)
}

func TestInitializeIdempotent(t *testing.T) {
	client := newTestClient(t)

	require.NoError(t, client.Initialize(context.Background()))
	require.NoError(t, client.Initialize(context.Background()))
}
