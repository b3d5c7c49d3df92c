// Package logging carries a request-scoped slog logger through context. The
// HTTP middleware attaches a logger enriched with request attributes; the
// coordination handler retrieves it for parse-level debug logging without
// taking a logger dependency of its own.
package logging

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// ContextWithLogger returns a derived context that carries the provided logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts the logger attached to the context, or nil when the
// request path never attached one.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(contextKey{}).(*slog.Logger)
	return logger
}
