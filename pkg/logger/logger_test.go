package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	l := NewLogger(Options{})
	require.NotNil(t, l)

	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.Info("Test info message", "TEST")
	l.Warn("Test warning message", "TEST")
	l.Debug("hidden", "TEST")
	l.Success("Test success message", "TEST")

	out := buf.String()
	assert.Contains(t, out, "[TEST]: Test info message")
	assert.Contains(t, out, "SUCCESS")
	assert.NotContains(t, out, "hidden", "debug is off by default")
	l.Close()
}

func TestDebugOption(t *testing.T) {
	l := NewLogger(Options{Debug: true})
	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.Debug("visible", "TEST")
	assert.Contains(t, buf.String(), "visible")
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelCritical, "CRITICAL"},
		{LevelError, "ERROR"},
		{LevelWarn, "WARN"},
		{LevelSuccess, "SUCCESS"},
		{LevelInfo, "INFO"},
		{LevelDebug, "DEBUG"},
		{LevelSystem, "SYSTEM"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.String())
			assert.NotEmpty(t, tt.level.Color())
		})
	}
}

func TestLogLevelDiscordColor(t *testing.T) {
	assert.Equal(t, 0xFF0000, LevelCritical.DiscordColor())
	assert.Equal(t, 0xFF0000, LevelError.DiscordColor())
	assert.Equal(t, 0xFFFF00, LevelWarn.DiscordColor())
	assert.Equal(t, 0x808080, LevelSystem.DiscordColor())
}

func TestLogFiles(t *testing.T) {
	dir := t.TempDir()

	l := NewLogger(Options{Dir: dir})
	l.SetOutput(&bytes.Buffer{})
	l.Info("all good", "TEST")
	l.Error("broken", "TEST")
	l.Close()

	combined, err := os.ReadFile(filepath.Join(dir, "combined.log"))
	require.NoError(t, err)
	errs, err := os.ReadFile(filepath.Join(dir, "error.log"))
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(string(combined), "\n"))
	assert.NotContains(t, string(combined), "\033[", "files carry no colors")
	assert.Contains(t, string(errs), "broken")
	assert.NotContains(t, string(errs), "all good")
}

func TestGlobalLoggerInit(t *testing.T) {
	logger = nil
	once = sync.Once{}

	l := Init(Options{})
	require.NotNil(t, l)
	assert.Same(t, l, Init(Options{Debug: true}), "Init only runs once")
	assert.Same(t, l, Get())
}
