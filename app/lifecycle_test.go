package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvieePy/Audra/core"
)

// scriptChannel replays a fixed receive sequence and records every send.
type scriptChannel struct {
	recv     []core.Message
	received int
	sent     []core.Message
}

func (c *scriptChannel) Receive(ctx context.Context) (core.Message, error) {
	if len(c.recv) == 0 {
		return core.Message{}, core.ErrChannelClosed
	}
	msg := c.recv[0]
	c.recv = c.recv[1:]
	c.received++
	return msg, nil
}

func (c *scriptChannel) Send(ctx context.Context, msg core.Message) error {
	c.sent = append(c.sent, msg)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func lifespanScope() *core.Scope {
	return &core.Scope{Kind: core.KindLifespan, State: core.NewState()}
}

func TestLifecycleHandshakeSucceeds(t *testing.T) {
	t.Parallel()

	a := New(WithLogger(quietLogger()))
	var order []string
	require.NoError(t, a.OnStartup("first", func(ctx context.Context, state *core.State) error {
		order = append(order, "first")
		state.Set("ready", true)
		return nil
	}))
	require.NoError(t, a.OnStartup("second", func(ctx context.Context, state *core.State) error {
		order = append(order, "second")
		return nil
	}))
	require.NoError(t, a.OnShutdown("teardown", func(ctx context.Context, state *core.State) error {
		order = append(order, "teardown")
		return nil
	}))

	scope := lifespanScope()
	ch := &scriptChannel{recv: []core.Message{
		{Type: core.MessageStartup},
		{Type: core.MessageShutdown},
	}}

	require.NoError(t, a.Serve(context.Background(), scope, ch))

	require.Len(t, ch.sent, 2)
	assert.Equal(t, core.MessageStartupComplete, ch.sent[0].Type)
	assert.Equal(t, core.MessageShutdownComplete, ch.sent[1].Type)
	assert.Equal(t, []string{"first", "second", "teardown"}, order)

	ready, ok := scope.State.Get("ready")
	require.True(t, ok, "startup handlers mutate the shared state")
	assert.Equal(t, true, ready)
}

func TestLifecycleStartupFailureHaltsLoop(t *testing.T) {
	t.Parallel()

	a := New(WithLogger(quietLogger()))
	require.NoError(t, a.OnStartup("db", func(ctx context.Context, state *core.State) error {
		return errors.New("connection refused")
	}))

	shutdownRan := false
	require.NoError(t, a.OnShutdown("teardown", func(ctx context.Context, state *core.State) error {
		shutdownRan = true
		return nil
	}))

	ch := &scriptChannel{recv: []core.Message{
		{Type: core.MessageStartup},
		{Type: core.MessageShutdown},
	}}

	// A handler fault halts the loop without faulting the coordinator.
	require.NoError(t, a.Serve(context.Background(), lifespanScope(), ch))

	require.Len(t, ch.sent, 1, "exactly one failed message, no complete")
	assert.Equal(t, core.MessageStartupFailed, ch.sent[0].Type)
	assert.Contains(t, ch.sent[0].Reason, `startup handler "db"`)
	assert.Contains(t, ch.sent[0].Reason, "connection refused")

	assert.Equal(t, 1, ch.received, "the queued shutdown message is never consumed")
	assert.False(t, shutdownRan)
}

func TestLifecycleShutdownFailure(t *testing.T) {
	t.Parallel()

	a := New(WithLogger(quietLogger()))
	require.NoError(t, a.OnShutdown("flush", func(ctx context.Context, state *core.State) error {
		return errors.New("disk full")
	}))

	ch := &scriptChannel{recv: []core.Message{
		{Type: core.MessageStartup},
		{Type: core.MessageShutdown},
	}}

	require.NoError(t, a.Serve(context.Background(), lifespanScope(), ch))

	require.Len(t, ch.sent, 2)
	assert.Equal(t, core.MessageStartupComplete, ch.sent[0].Type)
	assert.Equal(t, core.MessageShutdownFailed, ch.sent[1].Type)
	assert.Contains(t, ch.sent[1].Reason, `shutdown handler "flush"`)
}

func TestLifecycleProtocolViolation(t *testing.T) {
	t.Parallel()

	a := New(WithLogger(quietLogger()))
	ch := &scriptChannel{recv: []core.Message{{Type: core.MessageHTTPRequest}}}

	err := a.Serve(context.Background(), lifespanScope(), ch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "protocol violation")
	assert.Contains(t, err.Error(), "http.request")
	assert.Empty(t, ch.sent)
}

func TestLifecycleHandlerShapes(t *testing.T) {
	t.Parallel()

	a := New(WithLogger(quietLogger()))

	var gotApp *App
	require.NoError(t, a.OnStartup("plain", func(ctx context.Context, state *core.State) error {
		return nil
	}))
	require.NoError(t, a.OnStartup("injected", func(ctx context.Context, app *App, state *core.State) error {
		gotApp = app
		return nil
	}))

	err := a.OnStartup("bad", func() {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported lifecycle handler shape")

	ch := &scriptChannel{recv: []core.Message{{Type: core.MessageStartup}}}
	require.NoError(t, a.Serve(context.Background(), lifespanScope(), ch))
	assert.Same(t, a, gotApp, "the injected shape receives the application")
}

func TestLifecycleStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "awaiting-startup", StateAwaitingStartup.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "shutdown-complete", StateShutdownComplete.String())
	assert.Equal(t, "unknown", LifecycleState(99).String())
}
