// Package router maps request paths and methods onto registered routes and
// extracts typed path parameters. Registration order is the resolution
// priority: the first structurally matching route wins.
package router

import (
	"context"
	"fmt"

	"github.com/EvieePy/Audra/core"
	"github.com/EvieePy/Audra/core/http"
)

// Router is an ordered collection of routes sharing one converter registry.
// It is the terminal node of the application middleware chain.
type Router struct {
	routes     []*Route
	converters *Registry
}

// New creates an empty router with the base converter set.
func New() *Router {
	return &Router{converters: NewRegistry()}
}

// Converters returns the router-level converter registry. Entries act as
// defaults for every route added afterwards; route-local converters win per
// tag.
func (rt *Router) Converters() *Registry { return rt.converters }

// Add attaches a route. A route belongs to exactly one router: attaching the
// same descriptor a second time is a construction fault. The route's
// template is recompiled with the router's converter defaults merged in.
func (rt *Router) Add(r *Route) error {
	if r.attached {
		return fmt.Errorf("route %q is already attached to a router", r.path)
	}
	if err := r.recompile(rt.converters.Snapshot()); err != nil {
		return err
	}
	r.attached = true
	rt.routes = append(rt.routes, r)
	return nil
}

// Routes returns the attached routes in registration order.
func (rt *Router) Routes() []*Route { return rt.routes }

// Resolve walks the routes in registration order and returns the first full
// match with its converted parameters. When nothing matches fully but some
// route matched structurally with the wrong method, the 405 condition
// carries the Allow list of the first such route only, not the union across
// all partial matches; that tie-break is the documented contract.
func (rt *Router) Resolve(ctx context.Context, path, method string) (*Route, map[string]any, error) {
	var mismatch *Route

	for _, r := range rt.routes {
		result, params, err := r.Match(ctx, path, method)
		switch result {
		case MatchFull:
			if err != nil {
				return nil, nil, err
			}
			return r, params, nil
		case MatchMethodMismatch:
			if mismatch == nil {
				mismatch = r
			}
		}
	}

	if mismatch != nil {
		return nil, nil, http.MethodNotAllowed(mismatch.Allow())
	}
	return nil, nil, http.NotFound()
}

// Serve resolves and invokes. Non-HTTP channel kinds are a no-op; resolution
// conditions propagate as typed errors for the fault boundary to translate.
func (rt *Router) Serve(ctx context.Context, scope *core.Scope, ch core.Channel) error {
	if scope.Kind != core.KindHTTP {
		return nil
	}

	route, params, err := rt.Resolve(ctx, core.RoutePath(scope), scope.Method)
	if err != nil {
		return err
	}
	scope.Params = params
	return route.Invoke(ctx, scope, ch)
}
