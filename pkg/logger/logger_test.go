package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestInitReplacesGlobal(t *testing.T) {
	t.Cleanup(func() { Set(nil) })

	require.NoError(t, Init(Config{Level: "debug", Encoding: "console", Development: true}))
	first := Get()
	require.NoError(t, Init(Config{Level: "warn"}))
	assert.NotSame(t, first, Get())
	assert.False(t, Get().Core().Enabled(zapcore.InfoLevel))
}

func TestFromContextAddsRunFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := ContextWith(context.Background(), StrategyKey, "bytes")
	ctx = ContextWith(ctx, SourceKey, "uspop.csv")

	FromContext(ctx, base).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "bytes", fields["strategy"])
	assert.Equal(t, "uspop.csv", fields["source"])
	assert.NotContains(t, fields, "run_id")
}
