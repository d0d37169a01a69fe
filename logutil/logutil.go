// Package logutil builds the slog loggers used by the nestdrop command.
package logutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
)

// LevelTrace is below slog.LevelDebug, for per-iteration training detail.
const LevelTrace slog.Level = -8

// NewLogger returns a text logger writing to w at the given level. The trace level prints as
// TRACE, and source locations are trimmed to the file name.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				if l, ok := attr.Value.Any().(slog.Level); ok && l == LevelTrace {
					attr.Value = slog.StringValue("TRACE")
				}
			case slog.SourceKey:
				if source, ok := attr.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			}
			return attr
		},
	}))
}

// Trace logs at LevelTrace
func Trace(l *slog.Logger, msg string, args ...any) {
	l.Log(context.TODO(), LevelTrace, msg, args...)
}
