package observability

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide JSON logger. The trace handler stamps
// trace_id/span_id onto records logged with a request context.
func NewLogger(env string) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(NewTraceHandler(handler))
}
