package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lautenbacher.net/ledfade/config"
)

type failingWriter struct{}

func (fw *failingWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// captureStderr runs f with os.Stderr redirected into a pipe and
// returns everything written to it.
func captureStderr(t *testing.T, f func()) string {
	t.Helper()
	oldStderr := os.Stderr
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = w

	var wg sync.WaitGroup
	var buf bytes.Buffer
	wg.Add(1)
	go func() {
		defer wg.Done()
		buf.ReadFrom(r)
	}()

	f()

	w.Close()
	wg.Wait()
	os.Stderr = oldStderr
	return buf.String()
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, parseLevel("INFO"))
	assert.Equal(t, slog.LevelWarn, parseLevel("Warn"))
	assert.Equal(t, slog.LevelError, parseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestTUIMode(t *testing.T) {
	require.NoError(t, Init(true, config.LogConfig{Level: "DEBUG", Format: "text"}))

	slog.Info("Initial log")

	var tuiPane bytes.Buffer
	require.NoError(t, SetOutput(&tuiPane))
	assert.Contains(t, tuiPane.String(), "Initial log", "buffered log should be flushed on SetOutput")

	slog.Info("Live log")
	assert.Contains(t, tuiPane.String(), "Live log")

	BufferOutput()
	slog.Info("Buffered log")
	assert.NotContains(t, tuiPane.String(), "Buffered log")

	out := captureStderr(t, func() {
		assert.NoError(t, Close())
	})
	assert.Contains(t, out, "Buffered log", "Close should flush the buffer to stderr")
}

func TestLevelFiltering(t *testing.T) {
	require.NoError(t, Init(true, config.LogConfig{Level: "WARN", Format: "text"}))

	slog.Info("dropped")
	slog.Warn("kept")

	var pane bytes.Buffer
	require.NoError(t, SetOutput(&pane))
	assert.NotContains(t, pane.String(), "dropped")
	assert.Contains(t, pane.String(), "kept")
	assert.NoError(t, Close())
}

func TestHWMode_FileLogging(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	out := captureStderr(t, func() {
		require.NoError(t, Init(false, config.LogConfig{Level: "INFO", Format: "json", File: logFile}))
		slog.Info("HW log", "key", "value")
		require.NoError(t, Close())
	})
	assert.Contains(t, out, "HW log", "unbuffered output should go to stderr")

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(content), `"msg":"HW log"`) && strings.Contains(string(content), `"key":"value"`),
		"expected JSON log in file, got: %s", string(content))
}

func TestInit_BadLogFile(t *testing.T) {
	err := Init(false, config.LogConfig{File: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "can't open log file")
}

func TestWriteErrorPropagation(t *testing.T) {
	require.NoError(t, Init(false, config.LogConfig{}))

	writer.target = &failingWriter{}
	n, err := writer.Write([]byte("This should fail"))
	assert.Error(t, err)
	assert.Equal(t, len("This should fail"), n)
	assert.NoError(t, Close())
}
