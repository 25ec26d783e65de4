package logger

import (
	"log/slog"
	"os"
)

// New returns the application logger. Text output to stdout keeps local
// development readable; the handler can be swapped without touching callers.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
