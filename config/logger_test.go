package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerLevels(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":         zapcore.InfoLevel,
		"DEBUG":    zapcore.DebugLevel,
		"INFO":     zapcore.InfoLevel,
		"WARNING":  zapcore.WarnLevel,
		"error":    zapcore.ErrorLevel,
		"CRITICAL": zapcore.FatalLevel,
	}
	for name, want := range cases {
		logger, err := NewLogger(name, false)
		require.NoError(t, err, name)
		assert.True(t, logger.Core().Enabled(want), name)
		if want > zapcore.DebugLevel {
			assert.False(t, logger.Core().Enabled(want-1), name)
		}
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger("verbose", true)
	assert.Error(t, err)
}
