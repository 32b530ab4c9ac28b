// Package logging provides the shared debug logger. Logging is off by
// default; SetFileOutput directs debug output to a file for post-run
// inspection. User-facing output never goes through here.
package logging

import (
	"io"
	"log/slog"
	"os"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// SetFileOutput routes debug logging to the named file, creating or
// appending as needed.
func SetFileOutput(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	return nil
}

// SetOutput routes debug logging to an arbitrary writer (used by tests).
func SetOutput(w io.Writer) {
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}
