package http

import (
	"context"
	"fmt"
)

// Endpoint is the user-facing terminal handler shape. The returned value is
// interpreted structurally by Adapt; a returned error propagates up the
// middleware chain to the error boundary.
type Endpoint func(ctx context.Context, req *Request) (any, error)

// Adapt maps an endpoint return value onto a concrete response:
//
//	nil, "" or empty []byte  -> 204 empty response
//	*Response                -> sent as-is
//	string or []byte         -> 200 plain-text response
//	anything else            -> server fault (500-class condition)
//
// The mapping is a single structural type switch over the value.
func Adapt(v any) (*Response, error) {
	switch v := v.(type) {
	case nil:
		return Empty(), nil
	case *Response:
		return v, nil
	case string:
		if v == "" {
			return Empty(), nil
		}
		return Text(v), nil
	case []byte:
		if len(v) == 0 {
			return Empty(), nil
		}
		return NewResponse(200, v), nil
	default:
		return nil, InternalServerError().WithDetail(
			fmt.Sprintf("endpoint returned unsupported type %T", v))
	}
}
