package logger

import (
	"log/slog"
	"os"
)

// New returns a structured JSON logger writing to stdout. Services receive
// it through functional options so tests can swap in a silent logger.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
