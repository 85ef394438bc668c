package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"causalbridge/internal/config"
)

func TestInitialize_WritesToConsole(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf bytes.Buffer
	Initialize(config.LoggerConfig{
		Level:       "debug",
		Format:      "json",
		ServiceName: "test-service",
	}, zapcore.AddSync(&buf))

	log := GetLogger()
	require.NotNil(t, log)
	log.Info("hello from test", zap.String("component", "logger"))

	out := buf.String()
	assert.Contains(t, out, "hello from test")
	assert.Contains(t, out, "test-service")
}

func TestInitialize_RunsOnce(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var first, second bytes.Buffer
	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "a"}, zapcore.AddSync(&first))
	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "b"}, zapcore.AddSync(&second))

	GetLogger().Info("routed to the first writer")

	assert.NotEmpty(t, first.String())
	assert.Empty(t, second.String())
}

func TestInitialize_BadLevelFallsBackToInfo(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf bytes.Buffer
	Initialize(config.LoggerConfig{Level: "chatty", Format: "json", ServiceName: "x"}, zapcore.AddSync(&buf))

	GetLogger().Debug("below the fallback level")
	GetLogger().Info("at the fallback level")

	out := buf.String()
	assert.NotContains(t, out, "below the fallback level")
	assert.Contains(t, out, "at the fallback level")
}
