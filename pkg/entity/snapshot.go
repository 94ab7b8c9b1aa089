package entity

import "bytes"

// ModelSnapshot is a versioned, opaque serialized form of engine parameters.
//
// The payload layout is an internal contract between one engine
// implementation and itself across restarts; the container and storage treat
// it as an opaque byte sequence.
type ModelSnapshot struct {
	// Payload is the serialized engine state.
	Payload []byte `json:"payload"`

	// Version is the serialization format version of the payload.
	Version int32 `json:"version"`
}

// Equal reports whether two snapshots carry the same version and
// byte-identical payloads.
//
// Equality is defined by value, not reference, because snapshots are
// compared and cached across process restarts.
func (s *ModelSnapshot) Equal(other *ModelSnapshot) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.Version == other.Version && bytes.Equal(s.Payload, other.Payload)
}

// Clone returns a deep copy of the snapshot.
func (s *ModelSnapshot) Clone() *ModelSnapshot {
	if s == nil {
		return nil
	}
	payload := make([]byte, len(s.Payload))
	copy(payload, s.Payload)
	return &ModelSnapshot{Payload: payload, Version: s.Version}
}
