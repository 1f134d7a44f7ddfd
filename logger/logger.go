// Package logger is a thin veneer over log/slog. Callers log structured
// key/value pairs and must never pass raw tokens or plaintext passwords;
// identifiers and digests are the loggable currency.
package logger

import (
	"log/slog"
	"os"
)

// Logger embeds *slog.Logger, so the full slog API is available directly.
type Logger struct {
	*slog.Logger
}

// New returns a Logger emitting text records on stdout. The level follows
// slog's numbering, -4 for debug through 8 for error, with 0 (info) as the
// usual production setting.
func New(level int) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.Level(level)})),
	}
}

// Fatal logs at error level and terminates the process. Reserved for
// startup failures; nothing on a request path calls it.
func (l *Logger) Fatal(msg string, args ...any) {
	l.Logger.Error(msg, args...)
	os.Exit(1)
}
