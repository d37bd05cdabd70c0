package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), LogsConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.Shutdown(context.Background()))

	core := NewZapOTELCore("stocksync", lp, zapcore.InfoLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
}

func TestNewZapOTELCore_NilProvider(t *testing.T) {
	core := NewZapOTELCore("stocksync", nil, zapcore.DebugLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := newLevelFilterCore(inner, zapcore.WarnLevel)

	log := zap.New(core)
	log.Info("dropped")
	log.With(zap.String("platform", "ozon")).Warn("kept")
	log.Error("also kept")

	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, "kept", entries[0].Message)
	assert.Equal(t, "ozon", entries[0].ContextMap()["platform"])
	assert.Equal(t, "also kept", entries[1].Message)
}

func TestNewBridgedLogger_WritesToBothCores(t *testing.T) {
	base, baseLogs := observer.New(zapcore.InfoLevel)
	second, secondLogs := observer.New(zapcore.InfoLevel)

	log := NewBridgedLogger(base, newLevelFilterCore(second, zapcore.ErrorLevel))
	log.Info("info")
	log.Error("error")

	assert.Equal(t, 2, baseLogs.Len())
	require.Equal(t, 1, secondLogs.Len())
	assert.Equal(t, "error", secondLogs.All()[0].Message)
}
