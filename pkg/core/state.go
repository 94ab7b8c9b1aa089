package core

// State is the container's lifecycle state.
//
// The transitions are:
//
//	Created -> Initializing -> Ready -> Released
//
// Saving and Resetting are exclusive sub-states of Ready: the container
// enters them for the duration of the operation and returns to Ready when
// it completes, whether or not it succeeded. Released is terminal.
type State int

const (
	// StateCreated is the state of a freshly built container.
	StateCreated State = iota

	// StateInitializing covers storage setup, snapshot restoration, and
	// data-source subscription.
	StateInitializing

	// StateReady accepts data operations.
	StateReady

	// StateSaving covers an in-flight SaveState.
	StateSaving

	// StateResetting covers an in-flight Reset.
	StateResetting

	// StateReleased is terminal; no operation succeeds afterwards except a
	// no-op Release.
	StateReleased
)

// String returns the state name for logs and errors.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateSaving:
		return "saving"
	case StateResetting:
		return "resetting"
	case StateReleased:
		return "released"
	default:
		return "unknown"
	}
}
