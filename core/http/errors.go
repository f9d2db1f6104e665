package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrClientDisconnected reports that the client dropped the connection while
// the request body was being read. It is a request-scoped condition, not a
// framework fault.
var ErrClientDisconnected = errors.New("client disconnected")

// Error is a routing or handler outcome with an HTTP status attached. Values
// of this type are expected, recoverable conditions: the error boundary
// translates them into responses rather than treating them as faults.
type Error struct {
	Status  int
	Detail  string
	headers [][2]string
}

// NewError creates an Error for the given status. The detail defaults to the
// standard status text.
func NewError(status int) *Error {
	return &Error{Status: status, Detail: http.StatusText(status)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Detail)
}

// WithDetail replaces the detail text.
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// WithHeader attaches a header to the translated response.
func (e *Error) WithHeader(name, value string) *Error {
	e.headers = append(e.headers, [2]string{foldName(name), value})
	return e
}

// Headers returns the headers attached to this condition.
func (e *Error) Headers() [][2]string {
	return e.headers
}

// Response renders the condition as a plain-text response.
func (e *Error) Response() *Response {
	resp := Text(e.Detail)
	resp.Status = e.Status
	for _, kv := range e.headers {
		resp.Headers.Set(kv[0], kv[1])
	}
	return resp
}

// MethodNotAllowed builds a 405 condition carrying the Allow header for the
// given method list.
func MethodNotAllowed(allow []string) *Error {
	return NewError(http.StatusMethodNotAllowed).WithHeader("allow", strings.Join(allow, ", "))
}

// 3xx redirections.
func MultipleChoices() *Error   { return NewError(http.StatusMultipleChoices) }
func MovedPermanently() *Error  { return NewError(http.StatusMovedPermanently) }
func Found() *Error             { return NewError(http.StatusFound) }
func SeeOther() *Error          { return NewError(http.StatusSeeOther) }
func NotModified() *Error       { return NewError(http.StatusNotModified) }
func TemporaryRedirect() *Error { return NewError(http.StatusTemporaryRedirect) }
func PermanentRedirect() *Error { return NewError(http.StatusPermanentRedirect) }

// 4xx client errors.
func BadRequest() *Error                  { return NewError(http.StatusBadRequest) }
func Unauthorized() *Error                { return NewError(http.StatusUnauthorized) }
func PaymentRequired() *Error             { return NewError(http.StatusPaymentRequired) }
func Forbidden() *Error                   { return NewError(http.StatusForbidden) }
func NotFound() *Error                    { return NewError(http.StatusNotFound) }
func NotAcceptable() *Error               { return NewError(http.StatusNotAcceptable) }
func ProxyAuthRequired() *Error           { return NewError(http.StatusProxyAuthRequired) }
func RequestTimeout() *Error              { return NewError(http.StatusRequestTimeout) }
func Conflict() *Error                    { return NewError(http.StatusConflict) }
func Gone() *Error                        { return NewError(http.StatusGone) }
func LengthRequired() *Error              { return NewError(http.StatusLengthRequired) }
func PreconditionFailed() *Error          { return NewError(http.StatusPreconditionFailed) }
func ContentTooLarge() *Error             { return NewError(http.StatusRequestEntityTooLarge) }
func URITooLong() *Error                  { return NewError(http.StatusRequestURITooLong) }
func UnsupportedMediaType() *Error        { return NewError(http.StatusUnsupportedMediaType) }
func RangeNotSatisfiable() *Error         { return NewError(http.StatusRequestedRangeNotSatisfiable) }
func ExpectationFailed() *Error           { return NewError(http.StatusExpectationFailed) }
func Teapot() *Error                      { return NewError(http.StatusTeapot) }
func MisdirectedRequest() *Error          { return NewError(http.StatusMisdirectedRequest) }
func UnprocessableContent() *Error        { return NewError(http.StatusUnprocessableEntity) }
func Locked() *Error                      { return NewError(http.StatusLocked) }
func FailedDependency() *Error            { return NewError(http.StatusFailedDependency) }
func TooEarly() *Error                    { return NewError(http.StatusTooEarly) }
func UpgradeRequired() *Error             { return NewError(http.StatusUpgradeRequired) }
func PreconditionRequired() *Error        { return NewError(http.StatusPreconditionRequired) }
func TooManyRequests() *Error             { return NewError(http.StatusTooManyRequests) }
func RequestHeaderFieldsTooLarge() *Error { return NewError(http.StatusRequestHeaderFieldsTooLarge) }
func UnavailableForLegalReasons() *Error  { return NewError(http.StatusUnavailableForLegalReasons) }

// 5xx server errors.
func InternalServerError() *Error   { return NewError(http.StatusInternalServerError) }
func NotImplemented() *Error        { return NewError(http.StatusNotImplemented) }
func BadGateway() *Error            { return NewError(http.StatusBadGateway) }
func ServiceUnavailable() *Error    { return NewError(http.StatusServiceUnavailable) }
func GatewayTimeout() *Error        { return NewError(http.StatusGatewayTimeout) }
func VersionNotSupported() *Error   { return NewError(http.StatusHTTPVersionNotSupported) }
func VariantAlsoNegotiates() *Error { return NewError(http.StatusVariantAlsoNegotiates) }
func InsufficientStorage() *Error   { return NewError(http.StatusInsufficientStorage) }
func LoopDetected() *Error          { return NewError(http.StatusLoopDetected) }
func NotExtended() *Error           { return NewError(http.StatusNotExtended) }
func NetworkAuthenticationRequired() *Error {
	return NewError(http.StatusNetworkAuthenticationRequired)
}
