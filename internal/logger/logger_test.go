package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuffered(level slog.Level) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return New(&Config{Level: level, Format: "json", Writer: buf}), buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, slog.LevelInfo, config.Level)
	assert.Equal(t, "text", config.Format)
	assert.False(t, config.AddSource)
}

func TestNewNilConfig(t *testing.T) {
	l := New(nil)
	require.NotNil(t, l)
	assert.NotNil(t, l.Logger)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		err  bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScopedLoggers(t *testing.T) {
	l, buf := newBuffered(slog.LevelDebug)

	l.Component("backtesting").Strategy("oscillator").Symbol("BTC-USD").Info("run started")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "backtesting", entries[0]["component"])
	assert.Equal(t, "oscillator", entries[0]["strategy"])
	assert.Equal(t, "BTC-USD", entries[0]["symbol"])
}

func TestWithError(t *testing.T) {
	l, buf := newBuffered(slog.LevelInfo)
	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("boom")).Info("failed")
	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0]["error"])
}

func TestTradeAndOrderEvents(t *testing.T) {
	l, buf := newBuffered(slog.LevelInfo)

	l.Order(map[string]any{"event": "placed"})
	l.Trade(map[string]any{"exit_reason": "TP", "pnl_pct": "1.5"})
	l.Risk(map[string]any{"event": "halted"})

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2, "order events log at debug")
	assert.Equal(t, "trade", entries[0]["msg"])
	assert.Equal(t, "TP", entries[0]["exit_reason"])
	assert.Equal(t, "risk_event", entries[1]["msg"])
	assert.Equal(t, "WARN", entries[1]["level"])
}

func TestWithFieldsSortedKeys(t *testing.T) {
	args := fieldArgs(map[string]any{"b": 2, "a": 1, "c": 3})
	assert.Equal(t, []any{"a", 1, "b", 2, "c", 3}, args)
}

func TestGlobalLogger(t *testing.T) {
	original := Default()
	require.NotNil(t, original)
	defer SetDefault(original)

	custom, buf := newBuffered(slog.LevelDebug)
	SetDefault(custom)
	assert.Same(t, custom, Default())

	SetDefault(nil)
	assert.Same(t, custom, Default())

	Debug("debug message", "key", "value")
	WithField("k", "v").Info("info message")
	Component("sweep").Warn("warn message")
	WithFields(map[string]any{"x": 1}).Error("error message")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 4)
	assert.Equal(t, "sweep", entries[2]["component"])
}
