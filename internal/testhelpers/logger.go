package testhelpers

import (
	"io"
	"log/slog"

	"github.com/myrjola/liftlog/internal/logging"
)

// NewLogger creates a debug logger writing to logSink such as the writer from NewWriter.
func NewLogger(logSink io.Writer) *slog.Logger {
	return logging.NewLogger(logSink, slog.LevelDebug)
}
