// Package logging defines a minimal structured-logging interface used across
// taskboard, with log/slog and zap backends.
package logging

import (
	"context"
	"fmt"
	"os"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "grpc server started", "addr", addr)
type Logger interface {
	// Debug logs diagnostic detail that is off in production.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Backend names accepted by New.
const (
	BackendZap  = "zap"
	BackendSlog = "slog"
)

// Options select and tune a logging backend.
type Options struct {
	Backend string
	Level   string
	Pretty  bool
	Service string
}

// New builds a Logger for the requested backend. The slog backend writes JSON
// (or text when Pretty is set) to stdout.
func New(o Options) (Logger, error) {
	switch o.Backend {
	case BackendZap, "":
		return NewZapLogger(o)
	case BackendSlog:
		return NewSlogLoggerTo(os.Stdout, o), nil
	default:
		return nil, fmt.Errorf("unknown log backend %q", o.Backend)
	}
}
