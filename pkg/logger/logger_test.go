package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewDefaults(t *testing.T) {
	log := New(Config{})
	require.NotNil(t, log)

	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNewDebugLevel(t *testing.T) {
	log := New(Config{LogLevel: "debug", Component: "engine"})
	require.NotNil(t, log)

	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestGetLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, getLogLevel("debug").Level())
	assert.Equal(t, zapcore.InfoLevel, getLogLevel("info").Level())
	assert.Equal(t, zapcore.WarnLevel, getLogLevel("warn").Level())
	assert.Equal(t, zapcore.ErrorLevel, getLogLevel("error").Level())
	assert.Equal(t, zapcore.InfoLevel, getLogLevel("unknown").Level())
}
