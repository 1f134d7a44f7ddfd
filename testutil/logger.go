package testutil

import (
	"io"
	"log/slog"

	"github.com/firelater/authcore/logger"
)

// MakeNoopLogger returns a Logger whose output goes to io.Discard,
// keeping test output free of log noise.
func MakeNoopLogger() *logger.Logger {
	return &logger.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))}
}
