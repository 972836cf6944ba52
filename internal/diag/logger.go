// Package diag configures structured logging and classifies errors into the
// short codes attached to error log lines.
package diag

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger returns a slog logger writing to w at the named level
// (debug|info|warn|error, default info). format "json" selects the JSON
// handler; anything else selects text.
func NewLogger(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var h slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Err returns the attributes logged with a failure: the error and its code.
func Err(err error) slog.Attr {
	return slog.Group("err", slog.String("msg", errString(err)), slog.String("code", string(Classify(err))))
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
