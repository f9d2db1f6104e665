package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/EvieePy/Audra/core"
)

// AccessLog writes one structured line per completed HTTP exchange. The
// response status is observed through a send interceptor, so the node works
// regardless of which downstream node produced the response.
type AccessLog struct {
	Base
	Logger *slog.Logger
}

// NewAccessLog creates the node. A nil logger falls back to slog.Default.
func NewAccessLog(logger *slog.Logger) *AccessLog {
	return &AccessLog{Logger: logger}
}

func (m *AccessLog) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

// Serve times the exchange and logs it.
func (m *AccessLog) Serve(ctx context.Context, scope *core.Scope, ch core.Channel) error {
	if scope.Kind != core.KindHTTP {
		return m.Next().Serve(ctx, scope, ch)
	}

	start := time.Now()
	status := 0
	wrapped := &sendInterceptor{
		Channel: ch,
		send: func(ctx context.Context, msg core.Message) error {
			if msg.Type == core.MessageResponseStart {
				status = msg.Status
			}
			return ch.Send(ctx, msg)
		},
	}

	err := m.Next().Serve(ctx, scope, wrapped)

	attrs := []any{
		slog.String("method", scope.Method),
		slog.String("path", scope.Path),
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
	}
	if id := scope.Header(DefaultRequestIDHeader); id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	m.logger().InfoContext(ctx, "request", attrs...)

	return err
}
