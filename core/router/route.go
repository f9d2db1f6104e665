package router

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/EvieePy/Audra/core"
	"github.com/EvieePy/Audra/core/http"
	"github.com/EvieePy/Audra/core/middleware"
)

// MatchResult is the three-valued outcome of testing a request against a
// route.
type MatchResult int

const (
	// MatchNone: the path does not match the route structurally.
	MatchNone MatchResult = iota
	// MatchMethodMismatch: the path matches but the method is not allowed.
	MatchMethodMismatch
	// MatchFull: path and method both match.
	MatchFull
)

// RouteOption configures a route at construction.
type RouteOption func(*Route)

// WithMethods sets the allowed methods. Case-insensitive; GET implies HEAD.
// The default when no methods are given is GET.
func WithMethods(methods ...string) RouteOption {
	return func(r *Route) { r.rawMethods = append(r.rawMethods, methods...) }
}

// WithMiddleware appends route-private middleware, outermost first.
func WithMiddleware(nodes ...middleware.Node) RouteOption {
	return func(r *Route) { r.middleware = append(r.middleware, nodes...) }
}

// WithConverter binds a route-local converter for tag, overriding the
// router-level default of the same tag.
func WithConverter(tag string, conv Converter) RouteOption {
	return func(r *Route) { r.converters[tag] = conv }
}

// Route owns one compiled path template, its allowed method set, its private
// middleware and its terminal endpoint. The middleware chain in front of the
// endpoint is built lazily, exactly once, on first invocation.
type Route struct {
	path       string
	template   *Template
	methods    map[string]struct{}
	allow      []string
	middleware []middleware.Node
	endpoint   http.Endpoint
	converters map[string]Converter

	rawMethods []string
	attached   bool

	buildOnce sync.Once
	entry     core.Handler
	buildErr  error
}

// NewRoute compiles path into a route descriptor for endpoint. Malformed
// templates are rejected here; the template is recompiled with the router's
// converter defaults merged in when the route is attached.
func NewRoute(path string, endpoint http.Endpoint, opts ...RouteOption) (*Route, error) {
	r := &Route{
		path:       path,
		endpoint:   endpoint,
		converters: make(map[string]Converter),
	}
	for _, opt := range opts {
		opt(r)
	}

	if len(r.rawMethods) == 0 {
		r.rawMethods = []string{"GET"}
	}
	r.methods = make(map[string]struct{}, len(r.rawMethods)+1)
	for _, m := range r.rawMethods {
		r.addMethod(m)
	}
	r.allow = make([]string, 0, len(r.methods))
	for m := range r.methods {
		r.allow = append(r.allow, m)
	}
	sort.Strings(r.allow)

	if err := r.recompile(nil); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Route) addMethod(method string) {
	method = strings.ToUpper(method)
	r.methods[method] = struct{}{}
	if method == "GET" {
		r.methods["HEAD"] = struct{}{}
	}
}

// recompile replaces the compiled template wholesale with the converter
// layering base < router defaults < route-local. Only called before the
// route is attached.
func (r *Route) recompile(routerConverters map[string]Converter) error {
	merged := BaseConverters()
	for tag, conv := range routerConverters {
		merged[tag] = conv
	}
	for tag, conv := range r.converters {
		merged[tag] = conv
	}

	tpl, err := compileTemplate(r.path, merged)
	if err != nil {
		return err
	}
	r.template = tpl
	return nil
}

// Path returns the raw template string.
func (r *Route) Path() string { return r.path }

// Template returns the compiled template.
func (r *Route) Template() *Template { return r.template }

// Allow returns the allowed methods, sorted.
func (r *Route) Allow() []string { return r.allow }

// Allows reports whether method is in the route's method set.
func (r *Route) Allows(method string) bool {
	_, ok := r.methods[strings.ToUpper(method)]
	return ok
}

// Match tests path and method against the route. Parameter conversion runs
// only on a full structural match; a converter failure yields MatchFull with
// a malformed-parameter condition attached.
func (r *Route) Match(ctx context.Context, path, method string) (MatchResult, map[string]any, error) {
	raw, ok := r.template.Match(path)
	if !ok {
		return MatchNone, nil, nil
	}
	if !r.Allows(method) {
		return MatchMethodMismatch, nil, nil
	}

	params := make(map[string]any, len(raw))
	for _, p := range r.template.params {
		v, err := p.conv.Convert(ctx, raw[p.name])
		if err != nil {
			cond := http.BadRequest().WithDetail(
				fmt.Sprintf("malformed value for path parameter %q", p.name))
			return MatchFull, nil, cond
		}
		params[p.name] = v
	}
	return MatchFull, params, nil
}

// EnsureChain builds the route's private middleware chain in front of the
// terminal endpoint and returns the entry point. The build is single-flight:
// concurrent first callers block on one build, load hooks run exactly once
// and a failed build is latched so later invocations see the same fault.
func (r *Route) EnsureChain(ctx context.Context) (core.Handler, error) {
	r.buildOnce.Do(func() {
		r.entry, r.buildErr = middleware.Build(ctx, r.middleware, r.terminal(), "route "+r.path)
	})
	return r.entry, r.buildErr
}

// Invoke dispatches one matched exchange through the route's chain. A method
// the route does not allow is rejected with a 405 condition carrying this
// route's Allow list, even when called directly.
func (r *Route) Invoke(ctx context.Context, scope *core.Scope, ch core.Channel) error {
	if !r.Allows(scope.Method) {
		return http.MethodNotAllowed(r.allow)
	}
	entry, err := r.EnsureChain(ctx)
	if err != nil {
		return err
	}
	return entry.Serve(ctx, scope, ch)
}

// terminal adapts the endpoint into the chain's final handler: the returned
// value is interpreted structurally and written as exactly one response.
func (r *Route) terminal() core.Handler {
	return core.HandlerFunc(func(ctx context.Context, scope *core.Scope, ch core.Channel) error {
		req := http.NewRequest(scope, ch)
		v, err := r.endpoint(ctx, req)
		if err != nil {
			return err
		}
		resp, err := http.Adapt(v)
		if err != nil {
			return err
		}
		return resp.Write(ctx, ch)
	})
}
