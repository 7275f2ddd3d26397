package cmd

import (
	"io"
	"log/slog"
)

// newLogger returns a text logger for diagnostics. Only warnings are shown
// unless --verbose or --debug is set.
func newLogger(w io.Writer, verbose, debug bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case debug:
		level = slog.LevelDebug
	case verbose:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
