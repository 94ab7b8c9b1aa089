package mlp

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localmind-ai/localmind-go/pkg/entity"
)

func TestExtractFeaturesRanges(t *testing.T) {
	event := &entity.InteractionEvent{
		Kind:       "button_click",
		UserID:     "user-42",
		OccurredAt: 1735689600000, // 2025-01-01T00:00:00Z
		Attributes: map[string]interface{}{"target": "save"},
	}

	features := extractFeatures(event)
	require.Len(t, features, inputSize)

	assert.GreaterOrEqual(t, features[0], -1.0)
	assert.LessOrEqual(t, features[0], 1.0)
	assert.GreaterOrEqual(t, features[1], 0.0)
	assert.Less(t, features[1], 1.0)
	assert.GreaterOrEqual(t, features[2], -1.0)
	assert.LessOrEqual(t, features[2], 1.0)
	assert.Equal(t, 0.5, features[3])
}

func TestExtractFeaturesDeterministic(t *testing.T) {
	event := &entity.InteractionEvent{Kind: "scroll", UserID: "u", OccurredAt: 1000}

	assert.Equal(t, extractFeatures(event), extractFeatures(event))
}

func TestExtractFeaturesNoAttributes(t *testing.T) {
	event := &entity.InteractionEvent{Kind: "scroll", UserID: "u", OccurredAt: 0}

	features := extractFeatures(event)
	assert.Equal(t, 0.0, features[3])
	// Midnight UTC sits at the start of the day.
	assert.Equal(t, 0.0, features[1])
}

func TestExtractFeaturesTimeOfDay(t *testing.T) {
	noon := &entity.InteractionEvent{Kind: "a", UserID: "u", OccurredAt: 43200000}

	features := extractFeatures(noon)
	assert.InDelta(t, 0.5, features[1], 1e-9)
}

func TestNormalizedHashDistinguishesKinds(t *testing.T) {
	assert.NotEqual(t, normalizedHash("button_click"), normalizedHash("dismiss"))
	assert.Equal(t, normalizedHash("hover"), normalizedHash("hover"))
}

func TestHeuristicPolicyKnownKinds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	policy := HeuristicPolicy{}

	target := policy.Target(&entity.InteractionEvent{Kind: "button_click"}, rng)
	require.Len(t, target, outputSize)
	assert.Equal(t, 0.9, target[0])
	assert.Equal(t, 0.8, target[2])
	assert.GreaterOrEqual(t, target[1], 0.3)
	assert.LessOrEqual(t, target[1], 0.7)
}

func TestHeuristicPolicyUnknownKindIsNeutral(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	policy := HeuristicPolicy{}

	target := policy.Target(&entity.InteractionEvent{Kind: "something_else"}, rng)
	assert.Equal(t, 0.5, target[0])
	assert.Equal(t, 0.5, target[2])
}

func TestHeuristicPolicyReproducibleWithSeed(t *testing.T) {
	policy := HeuristicPolicy{}
	event := &entity.InteractionEvent{Kind: "scroll"}

	a := policy.Target(event, rand.New(rand.NewSource(7)))
	b := policy.Target(event, rand.New(rand.NewSource(7)))
	assert.Equal(t, a, b)
}
