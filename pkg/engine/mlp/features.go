package mlp

import (
	"hash/fnv"
	"time"

	"github.com/localmind-ai/localmind-go/pkg/entity"
)

// inputSize is the fixed feature vector width. The extraction is
// intentionally simple so the engine stays auditable end to end.
const inputSize = 4

// extractFeatures converts an event to the fixed 4-dimensional input:
//
//	[0] hash of the event kind, normalized to [-1, 1]
//	[1] time of day of the event, normalized to [0, 1]
//	[2] hash of the owning user, normalized to [-1, 1]
//	[3] 0.5 when the event carries attributes, 0.0 otherwise
func extractFeatures(event *entity.InteractionEvent) []float64 {
	features := make([]float64, inputSize)

	features[0] = normalizedHash(event.Kind)

	t := time.UnixMilli(event.OccurredAt).UTC()
	secondOfDay := t.Hour()*3600 + t.Minute()*60 + t.Second()
	features[1] = float64(secondOfDay) / 86400.0

	features[2] = normalizedHash(event.UserID)

	if len(event.Attributes) > 0 {
		features[3] = 0.5
	}

	return features
}

// normalizedHash maps a string to a stable value in [-1, 1] via FNV-1a.
func normalizedHash(s string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return float64(h.Sum32())/float64(1<<31) - 1.0
}
