package logger

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// WithLogger returns a new context with the given logger.
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored in ctx, or the default logger.
func FromContext(ctx context.Context) Logger {
	if value, ok := ctx.Value(contextKey{}).(Logger); ok {
		return value
	}
	return defaultLogger
}

// WithValues returns a context whose logger carries the given attributes.
func WithValues(ctx context.Context, keyvals ...any) context.Context {
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "MISSING_VALUE")
	}
	return WithLogger(ctx, FromContext(ctx).With(keyvals...))
}

// logFromContext keeps the source location pointing at the caller of the
// package-level helper.
func logFromContext(ctx context.Context, level slog.Level, msg string, tags ...any) {
	l := FromContext(ctx)
	if al, ok := l.(*appLogger); ok {
		// runtime.Callers, logSkip, logFromContext, the helper
		al.logSkip(4, level, msg, tags...)
		return
	}
	switch level {
	case slog.LevelDebug:
		l.Debug(msg, tags...)
	case slog.LevelWarn:
		l.Warn(msg, tags...)
	case slog.LevelError:
		l.Error(msg, tags...)
	default:
		l.Info(msg, tags...)
	}
}

// Debug logs a message with debug level.
func Debug(ctx context.Context, msg string, tags ...any) {
	logFromContext(ctx, slog.LevelDebug, msg, tags...)
}

// Info logs a message with info level.
func Info(ctx context.Context, msg string, tags ...any) {
	logFromContext(ctx, slog.LevelInfo, msg, tags...)
}

// Warn logs a message with warn level.
func Warn(ctx context.Context, msg string, tags ...any) {
	logFromContext(ctx, slog.LevelWarn, msg, tags...)
}

// Error logs a message with error level.
func Error(ctx context.Context, msg string, tags ...any) {
	logFromContext(ctx, slog.LevelError, msg, tags...)
}
