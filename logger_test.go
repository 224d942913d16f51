package mqtt

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStdLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStdLogger(&buf, LogLevelWarn)

	logger.Debug("hidden", nil)
	logger.Info("hidden", nil)
	logger.Warn("shown", LogFields{LogFieldTopic: "a/b"})
	logger.Error("shown too", nil)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown")
	assert.Contains(t, out, "[ERROR] shown too")
	assert.Contains(t, out, "a/b")
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "NONE", LogLevelNone.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestNoOpLogger(t *testing.T) {
	logger := NewNoOpLogger()
	assert.NotPanics(t, func() {
		logger.Debug("a", nil)
		logger.Info("b", LogFields{"k": "v"})
		logger.Warn("c", nil)
		logger.Error("d", nil)
	})
}
