package middleware

import (
	"context"
	"strings"

	"github.com/EvieePy/Audra/core"
	"github.com/EvieePy/Audra/core/http"
)

// CORS answers preflight requests and stamps the allow-origin header onto
// responses. OPTIONS requests short-circuit with 204 and never reach the
// router.
type CORS struct {
	Base
	AllowOrigin  string
	AllowMethods []string
	AllowHeaders []string
}

// NewCORS creates the node with permissive defaults.
func NewCORS() *CORS {
	return &CORS{
		AllowOrigin:  "*",
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"content-type", "authorization"},
	}
}

// Serve handles preflight or forwards with the origin header attached.
func (m *CORS) Serve(ctx context.Context, scope *core.Scope, ch core.Channel) error {
	if scope.Kind != core.KindHTTP {
		return m.Next().Serve(ctx, scope, ch)
	}

	if scope.Method == "OPTIONS" {
		resp := http.Empty()
		resp.Headers.Set("access-control-allow-origin", m.AllowOrigin)
		resp.Headers.Set("access-control-allow-methods", strings.Join(m.AllowMethods, ", "))
		resp.Headers.Set("access-control-allow-headers", strings.Join(m.AllowHeaders, ", "))
		return resp.Write(ctx, ch)
	}

	wrapped := &sendInterceptor{
		Channel: ch,
		send: func(ctx context.Context, msg core.Message) error {
			if msg.Type == core.MessageResponseStart {
				msg.Headers = append(msg.Headers, [2]string{"access-control-allow-origin", m.AllowOrigin})
			}
			return ch.Send(ctx, msg)
		},
	}
	return m.Next().Serve(ctx, scope, wrapped)
}
