package internal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelError, ParseLogLevel("error"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel("WARN"))
	assert.Equal(t, LogLevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, LogLevelTrace, ParseLogLevel("trace"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel(""))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("verbose"))
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LogLevelWarn)
	l.entry.Logger.SetOutput(&buf)

	l.Info("hidden %d", 1)
	assert.Empty(t, buf.String())

	l.WithFields(map[string]interface{}{"model": "price_predictor"}).Warn("shown %d", 2)
	assert.Contains(t, buf.String(), "shown 2")
	assert.Contains(t, buf.String(), "price_predictor")
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LogLevelInfo)
	l.SetFormat("json")
	l.entry.Logger.SetOutput(&buf)

	l.Info("trained")
	assert.Contains(t, buf.String(), `"msg":"trained"`)
}
