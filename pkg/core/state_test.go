package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/localmind-ai/localmind-go/pkg/core"
)

func TestStateString(t *testing.T) {
	assert.Equal(t, "created", core.StateCreated.String())
	assert.Equal(t, "initializing", core.StateInitializing.String())
	assert.Equal(t, "ready", core.StateReady.String())
	assert.Equal(t, "saving", core.StateSaving.String())
	assert.Equal(t, "resetting", core.StateResetting.String())
	assert.Equal(t, "released", core.StateReleased.String())
	assert.Equal(t, "unknown", core.State(99).String())
}
