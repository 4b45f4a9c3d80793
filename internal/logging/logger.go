package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup initializes the global slog logger with JSON output to stdout. Extra
// handlers (for example a PGHandler) receive the same records. Records logged
// with a context from WithRequestID carry request_id.
func Setup(extra ...slog.Handler) *slog.Logger {
	return setup(os.Stdout, extra...)
}

func setup(w io.Writer, extra ...slog.Handler) *slog.Logger {
	var handler slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	if len(extra) > 0 {
		handler = NewMultiHandler(append([]slog.Handler{handler}, extra...)...)
	}
	logger := slog.New(NewContextHandler(handler))
	slog.SetDefault(logger)
	return logger
}
