package core

import "context"

// Handler is the unit of composition: applications, routers, routes and
// middleware all serve one channel exchange. An error return is handed to
// the enclosing node; the outermost boundary decides policy.
type Handler interface {
	Serve(ctx context.Context, scope *Scope, ch Channel) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, scope *Scope, ch Channel) error

// Serve calls f.
func (f HandlerFunc) Serve(ctx context.Context, scope *Scope, ch Channel) error {
	return f(ctx, scope, ch)
}
