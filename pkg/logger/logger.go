// Package logger provides a structured, levelled logger built on log/slog.
//
// WithCtx returns the request-scoped logger installed by the Logger
// middleware, so every line written while serving a request carries its
// request_id:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("order placed", "order_id", order.ID)
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

var L *slog.Logger

func init() {
	L = New("local", os.Stdout)
	slog.SetDefault(L)
}

// New builds the base handler for env: JSON at INFO for production, text at
// DEBUG everywhere else.
func New(env string, w io.Writer) *slog.Logger {
	return slog.New(newHandler(env, w))
}

func newHandler(env string, w io.Writer) slog.Handler {
	switch env {
	case "production", "prod":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}

// Setup replaces the global logger for env and, when mongoURI is set, tees
// every record into MongoDB. The returned func flushes and disconnects the
// sink; it is never nil.
func Setup(env, mongoURI string) (func(), error) {
	base := newHandler(env, os.Stdout)
	closer := func() {}

	if mongoURI != "" {
		mh, err := NewMongoHandler(mongoURI, "stockroom", "logs")
		if err != nil {
			L = slog.New(base)
			slog.SetDefault(L)
			return closer, err
		}
		base = NewMultiHandler(base, mh)
		closer = mh.Close
	}

	L = slog.New(base)
	slog.SetDefault(L)
	return closer, nil
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

type ctxKey struct{}

// WithCtx returns the logger stored in ctx by InjectLogger, or the base
// logger when none is present.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// ─────────────────────────────────────────────
// Short-hand helpers (use base logger)
// ─────────────────────────────────────────────

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }
