package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/EvieePy/Audra/core"
	"github.com/EvieePy/Audra/core/http"
)

// ErrorBoundary is the outermost application node. It translates routing
// conditions and unexpected faults into responses when no response has
// started yet, and otherwise returns the error to the transport, since
// nothing can be written after the start message went out. Client
// disconnects pass through silently. Non-HTTP scopes bypass the boundary.
type ErrorBoundary struct {
	Base
	Logger *slog.Logger
}

// NewErrorBoundary creates the boundary node. A nil logger falls back to
// slog.Default.
func NewErrorBoundary(logger *slog.Logger) *ErrorBoundary {
	return &ErrorBoundary{Logger: logger}
}

func (m *ErrorBoundary) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

// Serve runs the rest of the chain under the fault boundary.
func (m *ErrorBoundary) Serve(ctx context.Context, scope *core.Scope, ch core.Channel) error {
	if scope.Kind != core.KindHTTP {
		return m.Next().Serve(ctx, scope, ch)
	}

	started := false
	wrapped := &sendInterceptor{
		Channel: ch,
		send: func(ctx context.Context, msg core.Message) error {
			if msg.Type == core.MessageResponseStart {
				started = true
			}
			return ch.Send(ctx, msg)
		},
	}

	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("handler panic: %v", rec)
			}
		}()
		return m.Next().Serve(ctx, scope, wrapped)
	}()

	if err == nil {
		return nil
	}
	if errors.Is(err, http.ErrClientDisconnected) {
		return nil
	}
	if started {
		// The start message is already on the wire; the transport decides.
		return err
	}

	var herr *http.Error
	if errors.As(err, &herr) {
		return herr.Response().Write(ctx, ch)
	}

	m.logger().ErrorContext(ctx, "unhandled error in request flow",
		slog.String("method", scope.Method),
		slog.String("path", scope.Path),
		slog.Any("error", err),
	)
	return http.InternalServerError().Response().Write(ctx, ch)
}
