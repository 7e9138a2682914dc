package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"DEBUG":   zerolog.DebugLevel,
		"debug":   zerolog.DebugLevel,
		"WARNING": zerolog.WarnLevel,
		"warn":    zerolog.WarnLevel,
		"ERROR":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestLoggerWritesModuleAndMessage(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter(&buf, "coingecko", "INFO", nil)

	l.Info("fetched %d prices", 3)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "coingecko", line["module"])
	assert.Equal(t, "fetched 3 prices", line["message"])
	assert.Equal(t, "info", line["level"])
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter(&buf, "x", "WARNING", nil)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warning("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "shown")
}

func TestWithAndNamed(t *testing.T) {
	var buf bytes.Buffer
	base := NewLoggerWithWriter(&buf, "server", "DEBUG", nil)

	base.Named("dashboard").With("user_id", "u1").Error("boom")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "dashboard", line["module"])
	assert.Equal(t, "u1", line["user_id"])
	assert.Equal(t, "error", line["level"])
}
