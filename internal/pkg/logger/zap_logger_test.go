package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerAttachesModuleAndError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core))

	l.Error("PIPELINE", "pass failed", map[string]interface{}{
		"session_id": "s1",
		"error":      errors.New("boom"),
	})
	l.Info("PIPELINE", "no details", nil)

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "PIPELINE", ctx["module"])
		assert.Equal(t, "boom", ctx["error_ref"])
		assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	}
}

func TestNopLoggerIsSilent(t *testing.T) {
	l := NewNop()
	l.Warn("X", "ignored", nil)
	assert.NoError(t, l.Sync())
}
