package http

import (
	"context"
	"encoding/json"

	"github.com/EvieePy/Audra/core"
)

// Request gives handlers access to one HTTP exchange: the scope, the request
// headers and a lazily-read body. The body is pulled from the channel in
// chunks on first use and memoized; a disconnect message received mid-read
// surfaces as ErrClientDisconnected immediately.
type Request struct {
	scope   *core.Scope
	ch      core.Channel
	headers *Headers

	fetched bool
	body    []byte
}

// NewRequest wraps one http-kind channel exchange.
func NewRequest(scope *core.Scope, ch core.Channel) *Request {
	return &Request{
		scope:   scope,
		ch:      ch,
		headers: NewHeaders(scope.Headers),
	}
}

// Scope returns the underlying channel descriptor.
func (r *Request) Scope() *core.Scope { return r.scope }

// Method returns the request method.
func (r *Request) Method() string { return r.scope.Method }

// Path returns the request path.
func (r *Request) Path() string { return r.scope.Path }

// RawQuery returns the raw query string.
func (r *Request) RawQuery() string { return r.scope.RawQuery }

// Headers returns the request headers.
func (r *Request) Headers() *Headers { return r.headers }

// State returns the store shared with the lifecycle handlers. May be nil when
// the host supplied none.
func (r *Request) State() *core.State { return r.scope.State }

// Param returns a converted path parameter by name.
func (r *Request) Param(name string) (any, bool) {
	v, ok := r.scope.Params[name]
	return v, ok
}

// Body reads and memoizes the whole request body.
func (r *Request) Body(ctx context.Context) ([]byte, error) {
	if r.fetched {
		return r.body, nil
	}
	err := r.stream(ctx, func(chunk []byte) error {
		r.body = append(r.body, chunk...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.fetched = true
	return r.body, nil
}

// Text reads the body as a string.
func (r *Request) Text(ctx context.Context) (string, error) {
	body, err := r.Body(ctx)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// JSON reads the body and unmarshals it into v.
func (r *Request) JSON(ctx context.Context, v any) error {
	body, err := r.Body(ctx)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// Stream passes body chunks to fn as they arrive, without memoizing. Once the
// body has been fully read, the memoized copy is replayed as a single chunk.
func (r *Request) Stream(ctx context.Context, fn func(chunk []byte) error) error {
	if r.fetched {
		if len(r.body) == 0 {
			return nil
		}
		return fn(r.body)
	}
	return r.stream(ctx, fn)
}

func (r *Request) stream(ctx context.Context, fn func(chunk []byte) error) error {
	for {
		msg, err := r.ch.Receive(ctx)
		if err != nil {
			return err
		}

		switch msg.Type {
		case core.MessageHTTPDisconnect:
			return ErrClientDisconnected
		case core.MessageHTTPRequest:
			if len(msg.Body) > 0 {
				if err := fn(msg.Body); err != nil {
					return err
				}
			}
			if !msg.More {
				return nil
			}
		default:
			// Unknown message kinds on the request channel are skipped.
		}
	}
}
