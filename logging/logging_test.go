package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  zerolog.Level
	}{
		{name: "debug", level: "debug", want: zerolog.DebugLevel},
		{name: "upper case", level: "WARN", want: zerolog.WarnLevel},
		{name: "empty", level: "", want: zerolog.InfoLevel},
		{name: "invalid", level: "chatty", want: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(Config{Level: tt.level, Format: FormatJSON, Out: &bytes.Buffer{}})
			assert.Equal(t, tt.want, l.GetLevel())
		})
	}
}

func TestComponentJSON(t *testing.T) {
	var buf bytes.Buffer
	l := Component(New(Config{Level: "info", Format: FormatJSON, Out: &buf}), "cache")

	l.Info().Str("key", "cms-content").Msg("invalidated")
	l.Debug().Msg("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "cache", line["component"])
	assert.Equal(t, "cms-content", line["key"])
	assert.Equal(t, "invalidated", line["message"])
	assert.Contains(t, line, "time")
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Format: FormatConsole, Out: &buf}).Info().Msg("mounted")
	assert.Contains(t, buf.String(), "mounted")
	assert.NotContains(t, buf.String(), `"message"`)
}
