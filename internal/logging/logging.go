// Package logging builds the slog logger shared by the CLI, the Driver and
// the Reconciler: a colourised console handler when stdout is a terminal and
// a size-rotated plain text log file.
package logging

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/openmined/syftmirror/internal/utils"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

type Options struct {
	// File is the log file path. Empty disables file logging.
	File       string
	MaxSizeMB  int
	MaxBackups int
	Level      slog.Level

	// Console receives human readable output. An *os.File is only used when
	// it is a terminal; any other writer is always used.
	Console io.Writer
}

// New returns the logger and a closer for the log file.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	var fileHandler slog.Handler
	var closer io.Closer = nopCloser{}

	if strings.TrimSpace(opts.File) != "" {
		if err := utils.EnsureParent(opts.File); err != nil {
			return nil, nil, err
		}
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			LocalTime:  true,
		}
		fileHandler = slog.NewTextHandler(rotator, &slog.HandlerOptions{
			Level: opts.Level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey && len(groups) == 0 {
					a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339))
				}
				return a
			},
		})
		closer = rotator
	}

	var consoleHandler slog.Handler
	if w, color := consoleWriter(opts.Console); w != nil {
		consoleHandler = tint.NewHandler(w, &tint.Options{
			Level:      opts.Level,
			TimeFormat: consoleTimeFormat,
			NoColor:    !color,
		})
	}

	if fileHandler == nil && consoleHandler == nil {
		return nil, nil, errors.New("no log output configured")
	}

	return slog.New(NewMultiHandler(consoleHandler, fileHandler)), closer, nil
}

// consoleWriter decides whether w gets console output and whether it can
// take colour.
func consoleWriter(w io.Writer) (io.Writer, bool) {
	if w == nil {
		return nil, false
	}
	f, ok := w.(*os.File)
	if !ok {
		return w, false
	}
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return f, true
	}
	return nil, false
}

// NewNop returns a logger that drops everything.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
