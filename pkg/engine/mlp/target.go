package mlp

import (
	"math/rand"

	"github.com/localmind-ai/localmind-go/pkg/entity"
)

// TargetPolicy produces the supervised target vector for one training
// example. There is no external label signal: the policy is a heuristic
// stand-in for whatever the host considers a good outcome, which is why it
// is pluggable rather than hard-coded.
//
// The rng parameter is the engine's seeded source; policies that use
// randomness must draw from it so that fixed-seed runs stay reproducible.
type TargetPolicy interface {
	// Target returns a vector of outputSize values in [0, 1].
	Target(event *entity.InteractionEvent, rng *rand.Rand) []float64
}

// kindBaselines maps well-known interaction kinds to their heuristic
// confidence and preference-alignment targets. Unknown kinds fall back to
// the neutral row.
var kindBaselines = map[string][2]float64{
	"button_click": {0.9, 0.8},
	"menu_select":  {0.8, 0.7},
	"text_input":   {0.7, 0.6},
	"scroll":       {0.4, 0.5},
	"hover":        {0.3, 0.4},
	"dismiss":      {0.1, 0.2},
}

// neutralBaseline is the target row for kinds the table does not know.
var neutralBaseline = [2]float64{0.5, 0.5}

// HeuristicPolicy is the default target policy: a lookup table keyed on the
// event kind for the confidence and preference components, plus bounded
// randomness on the timing component. It approximates engagement
// likelihood, not any ground-truth label.
type HeuristicPolicy struct{}

// Target implements TargetPolicy.
func (HeuristicPolicy) Target(event *entity.InteractionEvent, rng *rand.Rand) []float64 {
	baseline, ok := kindBaselines[event.Kind]
	if !ok {
		baseline = neutralBaseline
	}

	// Timing target centers on 0.5 with bounded jitter of ±0.2.
	timing := 0.5 + (rng.Float64()-0.5)*0.4

	return []float64{baseline[0], timing, baseline[1]}
}
