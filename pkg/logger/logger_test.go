package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := Log
	Log = zap.New(core)
	t.Cleanup(func() { Log = prev })
	return logs
}

func TestInitialize_InvalidLevel(t *testing.T) {
	err := Initialize(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestInitialize_ProductionCreatesLogDir(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	dir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, Initialize(Config{Level: "info", LogDir: dir, Environment: "production", ServiceName: "escrow"}))
	assert.DirExists(t, dir)
}

func TestLogHTTPRequest_LevelByStatus(t *testing.T) {
	logs := observe(t)

	LogHTTPRequest("GET", "/api/v1/platform", 200, 0.01)
	LogHTTPRequest("POST", "/api/v1/sessions", 409, 0.01)
	LogHTTPRequest("POST", "/api/v1/sessions/end", 500, 0.01)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, int64(409), entries[1].ContextMap()["status"])
}

func TestLogAPICall(t *testing.T) {
	logs := observe(t)

	LogAPICall("object_storage", "put", "success", 0.2)
	LogAPICall("object_storage", "put", "error", 0.2)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "object_storage", entries[1].ContextMap()["dependency"])
}
