package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		for _, dev := range []bool{false, true} {
			logger, err := New(level, dev)
			require.NoError(t, err, level)
			want, _ := zapcore.ParseLevel(level)
			assert.True(t, logger.Core().Enabled(want), level)
			if want > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(want-1), level)
			}
		}
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("loud", false)
	assert.ErrorContains(t, err, "invalid log level")
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	logger, err := New("info", false)
	require.NoError(t, err)
	assert.Same(t, logger, OrNop(logger))
}
