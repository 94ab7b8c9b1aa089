package entity

// Instruction is a user-supplied rule that alters filtering or prediction
// behavior. It is a closed sum type: the only implementations are the
// variants defined in this package, and every consumption site handles all
// of them exhaustively via a type switch.
//
// The container holds the active instruction set and consults it on every
// incoming event and every prediction request. The set is always replaced
// wholesale; there is no incremental merge.
type Instruction interface {
	// isInstruction limits implementations to this package.
	isInstruction()
}

// SuppressKind drops every incoming event of the given kind before it
// reaches storage or the engine.
type SuppressKind struct {
	// Kind is the event kind to suppress.
	Kind string
}

func (SuppressKind) isInstruction() {}

// MinConfidence suppresses predictions whose confidence falls below the
// threshold. Applied by the container, not the engine.
type MinConfidence struct {
	// Threshold is the minimum confidence, in [0, 1].
	Threshold float64
}

func (MinConfidence) isInstruction() {}
