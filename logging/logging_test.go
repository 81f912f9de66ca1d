package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 5, 1, 6, 30, 0, 0, time.UTC)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_ConsoleAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var console bytes.Buffer

	logger, closeFn, err := New(Config{Level: "info", Dir: dir, Console: &console}, day)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("pipeline finished", "selected", 3)
	require.NoError(t, closeFn())

	assert.Contains(t, console.String(), "pipeline finished")
	assert.NotContains(t, console.String(), "hidden")

	data, err := os.ReadFile(filepath.Join(dir, "briefing_2024-05-01.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "selected=3")
}

func TestNew_JSON(t *testing.T) {
	var console bytes.Buffer
	logger, closeFn, err := New(Config{Level: "debug", Format: "json", Console: &console}, day)
	require.NoError(t, err)
	defer closeFn()

	logger.Debug("stage", "name", "fetch")

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(console.String())), &rec))
	assert.Equal(t, "stage", rec["msg"])
	assert.Equal(t, "fetch", rec["name"])
}
