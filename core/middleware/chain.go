// Package middleware provides the chain node contract and the shared
// chain-assembly algorithm used by both the whole-application stack and the
// per-route stacks.
package middleware

import (
	"context"
	"fmt"

	"github.com/EvieePy/Audra/core"
)

// Node is one link of a middleware chain. A node serves a channel exchange
// and forwards to its successor; the successor is wired exactly once during
// chain assembly and is immutable afterwards. Embed Base to satisfy the
// bookkeeping half of the contract.
type Node interface {
	core.Handler
	SetNext(next core.Handler)
	Next() core.Handler
}

// Loader is implemented by stateful nodes that need one-time asynchronous
// initialization. OnLoad runs at most once per node, during the first chain
// build that includes it.
type Loader interface {
	OnLoad(ctx context.Context) error
}

// Base carries a node's successor reference and one-shot load flag. It is
// meant to be embedded by node implementations.
type Base struct {
	next   core.Handler
	loaded bool
}

// SetNext wires the successor. Panics when called twice: chains are assembled
// once and node instances must not be shared between chains.
func (b *Base) SetNext(next core.Handler) {
	if b.next != nil {
		panic("middleware: successor already set")
	}
	b.next = next
}

// Next returns the successor handler.
func (b *Base) Next() core.Handler { return b.next }

func (b *Base) hasLoaded() bool { return b.loaded }
func (b *Base) markLoaded()     { b.loaded = true }

type loadTracker interface {
	hasLoaded() bool
	markLoaded()
}

// LoadError reports a failed load hook during chain assembly, tagged with the
// failing node and the owning route or application.
type LoadError struct {
	Node  string
	Owner string
	Err   error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("middleware %s failed to load for %s: %v", e.Node, e.Owner, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error { return e.Err }

// Build assembles a chain in front of terminal and returns its entry point.
// The node list is walked back to front: the last-declared node ends up
// closest to the terminal, so the first-declared node observes the request
// first. Unloaded load hooks run exactly once during the walk; a hook failure
// aborts the build and the partially-linked chain is never returned. Callers
// own single-flight discipline around Build (the route and application guard
// it with a once-primitive).
func Build(ctx context.Context, nodes []Node, terminal core.Handler, owner string) (core.Handler, error) {
	prev := terminal
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]

		if loader, ok := n.(Loader); ok {
			tracker, tracked := n.(loadTracker)
			if !tracked || !tracker.hasLoaded() {
				if err := loader.OnLoad(ctx); err != nil {
					return nil, &LoadError{Node: fmt.Sprintf("%T", n), Owner: owner, Err: err}
				}
				if tracked {
					tracker.markLoaded()
				}
			}
		}

		n.SetNext(prev)
		prev = n
	}
	return prev, nil
}

// Func adapts a function to the Node interface. The function receives the
// node's successor and decides whether and when to forward.
type Func struct {
	Base
	fn func(ctx context.Context, scope *core.Scope, ch core.Channel, next core.Handler) error
}

// NewFunc wraps fn as a chain node.
func NewFunc(fn func(ctx context.Context, scope *core.Scope, ch core.Channel, next core.Handler) error) *Func {
	return &Func{fn: fn}
}

// Serve calls the wrapped function.
func (m *Func) Serve(ctx context.Context, scope *core.Scope, ch core.Channel) error {
	return m.fn(ctx, scope, ch, m.Next())
}

// sendInterceptor wraps a channel to observe or rewrite outbound messages.
type sendInterceptor struct {
	core.Channel
	send func(ctx context.Context, msg core.Message) error
}

func (c *sendInterceptor) Send(ctx context.Context, msg core.Message) error {
	return c.send(ctx, msg)
}
