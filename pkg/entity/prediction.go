package entity

// Prediction is the engine's best-effort behavioral suggestion for a user.
//
// Predictions are produced fresh per request and never persisted by the
// core. The top-ranked output unit becomes Suggestion/Confidence; the
// remaining units are reported as Alternatives in rank order.
type Prediction struct {
	// Suggestion is the top-ranked suggestion label.
	Suggestion string `json:"suggestion"`

	// Confidence is the engine's confidence in the suggestion, in [0, 1].
	Confidence float64 `json:"confidence"`

	// Category groups the suggestion (e.g., "behavioral").
	Category string `json:"category"`

	// Alternatives lists the remaining suggestion labels, highest ranked first.
	Alternatives []string `json:"alternatives"`

	// Metadata carries auxiliary detail about how the prediction was made.
	Metadata map[string]string `json:"metadata,omitempty"`
}
