package app

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger builds the process logger: JSON unless format is "text", at the
// named level (info when unknown).
func NewLogger(level, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	lv := new(slog.LevelVar)
	switch level {
	case "debug":
		lv.Set(slog.LevelDebug)
	case "warn":
		lv.Set(slog.LevelWarn)
	case "error":
		lv.Set(slog.LevelError)
	default:
		lv.Set(slog.LevelInfo)
	}
	var handler slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lv})
	if format == "text" {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv})
	}
	return slog.New(handler)
}
