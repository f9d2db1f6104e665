package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/EvieePy/Audra/core"
)

// DefaultRequestIDHeader is the header RequestID reads and writes.
const DefaultRequestIDHeader = "x-request-id"

// RequestID accepts a well-formed inbound request id or generates a fresh
// UUID, makes it visible to downstream nodes via the request headers and
// stamps it onto the response start message.
type RequestID struct {
	Base
	Header string
}

// NewRequestID creates the node with the default header name.
func NewRequestID() *RequestID {
	return &RequestID{Header: DefaultRequestIDHeader}
}

// Serve attaches the request id to the exchange.
func (m *RequestID) Serve(ctx context.Context, scope *core.Scope, ch core.Channel) error {
	if scope.Kind != core.KindHTTP {
		return m.Next().Serve(ctx, scope, ch)
	}

	id := scope.Header(m.Header)
	if !validRequestID(id) {
		id = uuid.NewString()
		scope.Headers = append(scope.Headers, [2]string{m.Header, id})
	}

	wrapped := &sendInterceptor{
		Channel: ch,
		send: func(ctx context.Context, msg core.Message) error {
			if msg.Type == core.MessageResponseStart {
				msg.Headers = append(msg.Headers, [2]string{m.Header, id})
			}
			return ch.Send(ctx, msg)
		},
	}
	return m.Next().Serve(ctx, scope, wrapped)
}

// validRequestID bounds the length and charset of client-supplied ids so
// hostile values never reach logs or response headers verbatim.
func validRequestID(id string) bool {
	if len(id) < 8 || len(id) > 128 {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}
