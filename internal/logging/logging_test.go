package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesFileAndConsole(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "mirror.log")
	var console bytes.Buffer

	logger, closer, err := New(Options{
		File:       logFile,
		MaxSizeMB:  1,
		MaxBackups: 5,
		Level:      slog.LevelInfo,
		Console:    &console,
	})
	require.NoError(t, err)

	logger.Info("synchronization completed", "copied", 3)
	logger.Debug("hidden")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "synchronization completed")
	assert.Contains(t, string(data), "copied=3")
	assert.NotContains(t, string(data), "hidden")

	assert.Contains(t, console.String(), "synchronization completed")
	assert.NotContains(t, console.String(), "\x1b[", "non-terminal console must not be coloured")
}

func TestNew_NonTerminalFileIsNotConsole(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stdout")
	require.NoError(t, err)
	defer f.Close()

	_, _, err = New(Options{Console: f})
	assert.Error(t, err, "a regular file is not a terminal, leaving no output")

	logFile := filepath.Join(t.TempDir(), "mirror.log")
	logger, closer, err := New(Options{File: logFile, MaxSizeMB: 1, Console: f})
	require.NoError(t, err)
	logger.Info("only in file")
	require.NoError(t, closer.Close())

	stat, err := f.Stat()
	require.NoError(t, err)
	assert.Zero(t, stat.Size())
}

type recordingHandler struct {
	level   slog.Level
	records []slog.Record
	err     error
}

func (h *recordingHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= h.level }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.records = append(h.records, r)
	return h.err
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *recordingHandler) WithGroup(string) slog.Handler { return h }

func TestMultiHandler(t *testing.T) {
	debug := &recordingHandler{level: slog.LevelDebug, err: errors.New("disk full")}
	errorsOnly := &recordingHandler{level: slog.LevelError}

	logger := slog.New(NewMultiHandler(debug, nil, errorsOnly))
	logger.Debug("debug")
	logger.Error("error")

	assert.Len(t, debug.records, 2)
	assert.Len(t, errorsOnly.records, 1)

	h := NewMultiHandler(errorsOnly)
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}
