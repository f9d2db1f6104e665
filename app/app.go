// Package app ties the router, the middleware stack and the lifecycle
// coordinator together into one application handler.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/EvieePy/Audra/core"
	"github.com/EvieePy/Audra/core/http"
	"github.com/EvieePy/Audra/core/middleware"
	"github.com/EvieePy/Audra/core/router"
)

// StateFunc is the plain lifecycle handler shape: it receives the shared
// state by reference.
type StateFunc = func(ctx context.Context, state *core.State) error

// AppStateFunc is the self-injected lifecycle handler shape: it additionally
// receives the application.
type AppStateFunc = func(ctx context.Context, app *App, state *core.State) error

// lifecycleHandler is the uniform registry entry both shapes adapt into.
type lifecycleHandler struct {
	name string
	fn   AppStateFunc
}

// Option configures an App at construction.
type Option func(*App)

// WithMiddleware appends user middleware to the application stack. The error
// boundary always sits in front of it.
func WithMiddleware(nodes ...middleware.Node) Option {
	return func(a *App) { a.middleware = append(a.middleware, nodes...) }
}

// WithRouter replaces the default router.
func WithRouter(r *router.Router) Option {
	return func(a *App) { a.router = r }
}

// WithLogger sets the application logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// WithBuildOnStartup controls whether the internal startup handler builds
// the middleware stack during the lifespan handshake. When disabled the
// stack is built by the first HTTP flow instead. Enabled by default.
func WithBuildOnStartup(enabled bool) Option {
	return func(a *App) { a.buildOnStartup = enabled }
}

// App dispatches channels by kind: lifespan channels run the lifecycle
// coordinator, HTTP channels run the lazily-built middleware stack in front
// of the router, websocket channels are not handled.
type App struct {
	logger         *slog.Logger
	router         *router.Router
	middleware     []middleware.Node
	buildOnStartup bool

	startup  []lifecycleHandler
	shutdown []lifecycleHandler

	stackOnce sync.Once
	stack     core.Handler
	stackErr  error
}

// New creates an application. The internal startup handler that triggers
// stack construction is always the first entry of the startup sequence.
func New(opts ...Option) *App {
	a := &App{
		router:         router.New(),
		buildOnStartup: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}

	internal := lifecycleHandler{
		name: "audra.build-stack",
		fn: func(ctx context.Context, app *App, _ *core.State) error {
			if !app.buildOnStartup {
				return nil
			}
			_, err := app.ensureStack(ctx)
			return err
		},
	}
	a.startup = append([]lifecycleHandler{internal}, a.startup...)
	return a
}

// Router returns the application router.
func (a *App) Router() *router.Router { return a.router }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// OnStartup registers a startup handler. Two shapes are accepted:
//
//	func(ctx context.Context, state *core.State) error
//	func(ctx context.Context, app *App, state *core.State) error
//
// Handlers run in registration order during the startup handshake.
func (a *App) OnStartup(name string, fn any) error {
	h, err := adaptLifecycle(name, fn)
	if err != nil {
		return err
	}
	a.startup = append(a.startup, h)
	return nil
}

// OnShutdown registers a shutdown handler; same shapes as OnStartup.
func (a *App) OnShutdown(name string, fn any) error {
	h, err := adaptLifecycle(name, fn)
	if err != nil {
		return err
	}
	a.shutdown = append(a.shutdown, h)
	return nil
}

func adaptLifecycle(name string, fn any) (lifecycleHandler, error) {
	switch fn := fn.(type) {
	case func(ctx context.Context, state *core.State) error:
		return lifecycleHandler{name: name, fn: func(ctx context.Context, _ *App, state *core.State) error {
			return fn(ctx, state)
		}}, nil
	case func(ctx context.Context, app *App, state *core.State) error:
		return lifecycleHandler{name: name, fn: fn}, nil
	default:
		return lifecycleHandler{}, fmt.Errorf("unsupported lifecycle handler shape %T for %q", fn, name)
	}
}

// Route registers a route on the application router and returns its
// descriptor.
func (a *App) Route(path string, endpoint http.Endpoint, opts ...router.RouteOption) (*router.Route, error) {
	r, err := router.NewRoute(path, endpoint, opts...)
	if err != nil {
		return nil, err
	}
	if err := a.router.Add(r); err != nil {
		return nil, err
	}
	return r, nil
}

// GET registers a GET (and implicitly HEAD) route.
func (a *App) GET(path string, endpoint http.Endpoint, opts ...router.RouteOption) (*router.Route, error) {
	return a.route("GET", path, endpoint, opts)
}

// POST registers a POST route.
func (a *App) POST(path string, endpoint http.Endpoint, opts ...router.RouteOption) (*router.Route, error) {
	return a.route("POST", path, endpoint, opts)
}

// PUT registers a PUT route.
func (a *App) PUT(path string, endpoint http.Endpoint, opts ...router.RouteOption) (*router.Route, error) {
	return a.route("PUT", path, endpoint, opts)
}

// PATCH registers a PATCH route.
func (a *App) PATCH(path string, endpoint http.Endpoint, opts ...router.RouteOption) (*router.Route, error) {
	return a.route("PATCH", path, endpoint, opts)
}

// DELETE registers a DELETE route.
func (a *App) DELETE(path string, endpoint http.Endpoint, opts ...router.RouteOption) (*router.Route, error) {
	return a.route("DELETE", path, endpoint, opts)
}

// HEAD registers a HEAD-only route.
func (a *App) HEAD(path string, endpoint http.Endpoint, opts ...router.RouteOption) (*router.Route, error) {
	return a.route("HEAD", path, endpoint, opts)
}

// OPTIONS registers an OPTIONS route.
func (a *App) OPTIONS(path string, endpoint http.Endpoint, opts ...router.RouteOption) (*router.Route, error) {
	return a.route("OPTIONS", path, endpoint, opts)
}

func (a *App) route(method, path string, endpoint http.Endpoint, opts []router.RouteOption) (*router.Route, error) {
	opts = append([]router.RouteOption{router.WithMethods(method)}, opts...)
	return a.Route(path, endpoint, opts...)
}

// ensureStack builds the whole-application chain: the error boundary, then
// user middleware, in front of the router terminal. Single-flight: the first
// caller builds, everyone observes the same entry point, and a failed build
// is latched.
func (a *App) ensureStack(ctx context.Context) (core.Handler, error) {
	a.stackOnce.Do(func() {
		nodes := make([]middleware.Node, 0, len(a.middleware)+1)
		nodes = append(nodes, middleware.NewErrorBoundary(a.logger))
		nodes = append(nodes, a.middleware...)
		a.stack, a.stackErr = middleware.Build(ctx, nodes, a.router, "application")
	})
	return a.stack, a.stackErr
}

// Serve dispatches one channel by kind.
func (a *App) Serve(ctx context.Context, scope *core.Scope, ch core.Channel) error {
	switch scope.Kind {
	case core.KindLifespan:
		return a.lifespan(ctx, scope, ch)
	case core.KindHTTP:
		stack, err := a.ensureStack(ctx)
		if err != nil {
			return err
		}
		return stack.Serve(ctx, scope, ch)
	default:
		// Websocket channels are not handled.
		return nil
	}
}
