package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter("debug", "json", &buf)
	defer Initialize("info", "text")

	ExternalServiceResult("MockPay", "hold", errors.New("declined"), "amount", "189.00")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "MockPay", entry["service"])
	assert.Equal(t, "declined", entry["error"])
	assert.Equal(t, "189.00", entry["amount"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter("info", "text", &buf)
	defer Initialize("info", "text")

	DatabaseCall("select", "SELECT 1")
	assert.Empty(t, buf.String())

	WithComponent("booking").Info("confirmed")
	assert.Contains(t, buf.String(), "component=booking")
}
