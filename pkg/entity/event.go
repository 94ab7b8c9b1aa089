// Package entity defines the value types shared by the container, the
// learning engine, and the storage and data-source collaborators.
//
// All types in this package are plain data carriers with no behavior beyond
// copying and comparison. They are treated as immutable once constructed:
// producers hand them off and never mutate them afterwards.
package entity

// InteractionEvent is one timestamped, typed interaction record.
//
// Events are produced by a data source, filtered and persisted by the
// container, and consumed by the learning engine as training input.
//
// Example:
//
//	event := &entity.InteractionEvent{
//	    Kind:       "button_click",
//	    Attributes: map[string]interface{}{"target": "save"},
//	    OccurredAt: time.Now().UnixMilli(),
//	    UserID:     "user_001",
//	}
type InteractionEvent struct {
	// ID is the unique identifier of the event.
	// Assigned by the container when the event is persisted; zero until then.
	ID int64 `json:"id"`

	// Kind is the type of interaction (e.g., "button_click", "scroll").
	Kind string `json:"kind"`

	// Attributes contains additional structured detail about the interaction.
	Attributes map[string]interface{} `json:"attributes,omitempty"`

	// OccurredAt is when the interaction happened, in Unix milliseconds.
	OccurredAt int64 `json:"occurred_at"`

	// UserID identifies the user who produced this interaction.
	UserID string `json:"user_id"`
}

// Clone returns a deep copy of the event.
//
// The container clones events before handing them across goroutine
// boundaries so that no two components ever share a mutable Attributes map.
func (e *InteractionEvent) Clone() *InteractionEvent {
	if e == nil {
		return nil
	}
	clone := &InteractionEvent{
		ID:         e.ID,
		Kind:       e.Kind,
		OccurredAt: e.OccurredAt,
		UserID:     e.UserID,
	}
	if e.Attributes != nil {
		clone.Attributes = make(map[string]interface{}, len(e.Attributes))
		for k, v := range e.Attributes {
			clone.Attributes[k] = v
		}
	}
	return clone
}
