package testutil

import (
	"io"
	"log/slog"
)

// NopLogger returns a logger that discards all output.
// Debug is enabled so debug-only attributes are still built under test.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
