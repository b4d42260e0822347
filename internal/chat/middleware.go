package chat

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/sundayezeilo/engagebot/internal/idgen"
)

// contextKey is the type for context keys to avoid collisions.
type contextKey string

const requestIDContextKey contextKey = "request_id"

// Middleware wraps a Handler.
type Middleware func(Handler) Handler

// Chain applies middleware so the first one listed is outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(final Handler) Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// RequestID tags each update's context with a fresh id for log correlation.
func RequestID(next Handler) Handler {
	return HandlerFunc(func(ctx context.Context, w Responder, u *Update) error {
		ctx = WithRequestID(ctx, idgen.Default.NewID())
		return next.ServeUpdate(ctx, w, u)
	})
}

// GetRequestID extracts the request ID from context.
// Returns empty string if not found.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDContextKey).(string); ok {
		return id
	}
	return ""
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// Logger logs one line per update. Failed updates are logged at error level
// and the error is passed through.
func Logger(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, w Responder, u *Update) error {
			start := time.Now()
			err := next.ServeUpdate(ctx, w, u)

			attrs := []any{
				"request_id", GetRequestID(ctx),
				"update_id", u.ID,
				"kind", u.Kind.String(),
				"command", u.Command,
				"caller", u.From.Handle(),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err != nil {
				logger.ErrorContext(ctx, "update failed", append(attrs, "error", err.Error())...)
				return err
			}
			logger.InfoContext(ctx, "update handled", attrs...)
			return nil
		})
	}
}

// Recovery turns a panic inside a handler into an error, so one bad update
// cannot stop the poller.
func Recovery(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, w Responder, u *Update) (err error) {
			defer func() {
				if p := recover(); p != nil {
					logger.ErrorContext(ctx, "panic recovered",
						"request_id", GetRequestID(ctx),
						"update_id", u.ID,
						"error", p,
						"stack", string(debug.Stack()),
					)
					err = fmt.Errorf("panic while handling update %d: %v", u.ID, p)
				}
			}()

			return next.ServeUpdate(ctx, w, u)
		})
	}
}
