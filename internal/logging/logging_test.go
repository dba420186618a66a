package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestContextRoundTrip(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	ctx := WithLogger(context.Background(), logger)
	FromContext(ctx).Info("deploying", zap.String("stack", "foundation"))

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "deploying", entries[0].Message)
		assert.Equal(t, "foundation", entries[0].ContextMap()["stack"])
	}
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	assert.Same(t, zap.L(), FromContext(context.Background()))
}

func TestNewVerbose(t *testing.T) {
	logger, err := New(true)
	assert.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = New(false)
	assert.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}
