package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

func InitLogger() {
	slog.SetDefault(New(os.Stdout, slog.LevelInfo))
}

// New builds the JSON logger used across the service, tagging records with the
// request id carried in the context.
func New(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(&RequestIDHandler{Handler: handler})
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
