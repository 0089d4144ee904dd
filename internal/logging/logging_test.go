package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	tests := []struct {
		mode, level string
		want        zap.AtomicLevel
	}{
		{"production", "", zap.NewAtomicLevelAt(zap.InfoLevel)},
		{"development", "debug", zap.NewAtomicLevelAt(zap.DebugLevel)},
		{"prod", "warn", zap.NewAtomicLevelAt(zap.WarnLevel)},
	}

	for _, tt := range tests {
		t.Run(tt.mode+"/"+tt.level, func(t *testing.T) {
			logger, err := New(tt.mode, tt.level)
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.want.Level()))
			assert.False(t, logger.Core().Enabled(tt.want.Level()-1))
		})
	}

	_, err := New("production", "loud")
	assert.Error(t, err)
}
