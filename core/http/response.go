package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/EvieePy/Audra/core"
)

// Response is a fully-materialized HTTP response. Write emits it on a channel
// as exactly one response-start message followed by exactly one response-body
// message; that order and cardinality is the wire contract.
type Response struct {
	Status  int
	Headers *Headers
	Body    []byte
}

// NewResponse builds a response with the given status and body.
func NewResponse(status int, body []byte) *Response {
	return &Response{Status: status, Headers: NewHeaders(nil), Body: body}
}

// Text builds a 200 plain-text response.
func Text(body string) *Response {
	resp := NewResponse(http.StatusOK, []byte(body))
	resp.Headers.Set("content-type", "text/plain; charset=utf-8")
	return resp
}

// HTML builds a 200 HTML response.
func HTML(body string) *Response {
	resp := NewResponse(http.StatusOK, []byte(body))
	resp.Headers.Set("content-type", "text/html; charset=utf-8")
	return resp
}

// JSON builds a 200 response by marshalling v.
func JSON(v any) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	resp := NewResponse(http.StatusOK, body)
	resp.Headers.Set("content-type", "application/json; charset=utf-8")
	return resp, nil
}

// Empty builds a 204 response with no body.
func Empty() *Response {
	return NewResponse(http.StatusNoContent, nil)
}

// Redirect builds a redirect to url. A zero status defaults to 307.
func Redirect(url string, status int) *Response {
	if status == 0 {
		status = http.StatusTemporaryRedirect
	}
	resp := NewResponse(status, nil)
	resp.Headers.Set("location", url)
	return resp
}

// bodyAllowed reports whether the status permits a message body.
func bodyAllowed(status int) bool {
	switch {
	case status >= 100 && status < 200:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}

// Write emits the response on the channel: one start message with status and
// headers, then one body message. content-length is filled in when absent and
// the status permits a body; content-type defaults to plain text for
// non-empty bodies.
func (r *Response) Write(ctx context.Context, ch core.Channel) error {
	headers := r.Headers
	if headers == nil {
		headers = NewHeaders(nil)
	}
	if bodyAllowed(r.Status) && !headers.Has("content-length") {
		headers.Set("content-length", strconv.Itoa(len(r.Body)))
	}
	if len(r.Body) > 0 && !headers.Has("content-type") {
		headers.Set("content-type", "text/plain; charset=utf-8")
	}

	start := core.Message{
		Type:    core.MessageResponseStart,
		Status:  r.Status,
		Headers: headers.Raw(),
	}
	if err := ch.Send(ctx, start); err != nil {
		return err
	}

	return ch.Send(ctx, core.Message{Type: core.MessageResponseBody, Body: r.Body})
}
