package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvieePy/Audra/core"
	"github.com/EvieePy/Audra/core/http"
	"github.com/EvieePy/Audra/core/middleware"
)

// countingLoader counts load hook invocations so single-flight stack builds
// are observable.
type countingLoader struct {
	middleware.Base
	loads   atomic.Int32
	loadErr error
}

func (m *countingLoader) OnLoad(ctx context.Context) error {
	m.loads.Add(1)
	return m.loadErr
}

func (m *countingLoader) Serve(ctx context.Context, scope *core.Scope, ch core.Channel) error {
	return m.Next().Serve(ctx, scope, ch)
}

func httpScope(method, path string) *core.Scope {
	return &core.Scope{Kind: core.KindHTTP, Method: method, Path: path, State: core.NewState()}
}

func TestAppServesRegisteredRoute(t *testing.T) {
	t.Parallel()

	a := New(WithLogger(quietLogger()))
	_, err := a.GET("/items/{id:int}", func(ctx context.Context, req *http.Request) (any, error) {
		id, _ := req.Param("id")
		assert.Equal(t, 42, id)
		return "found", nil
	})
	require.NoError(t, err)

	ch := &scriptChannel{}
	require.NoError(t, a.Serve(context.Background(), httpScope("GET", "/items/42"), ch))

	require.Len(t, ch.sent, 2)
	assert.Equal(t, core.MessageResponseStart, ch.sent[0].Type)
	assert.Equal(t, 200, ch.sent[0].Status)
	assert.Equal(t, []byte("found"), ch.sent[1].Body)
}

func TestAppNotFoundIsTranslated(t *testing.T) {
	t.Parallel()

	a := New(WithLogger(quietLogger()))
	_, err := a.GET("/known", func(ctx context.Context, req *http.Request) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)

	ch := &scriptChannel{}
	require.NoError(t, a.Serve(context.Background(), httpScope("GET", "/unknown"), ch))

	require.Len(t, ch.sent, 2)
	assert.Equal(t, 404, ch.sent[0].Status)
}

func TestAppMethodNotAllowed(t *testing.T) {
	t.Parallel()

	a := New(WithLogger(quietLogger()))
	_, err := a.GET("/only-get", func(ctx context.Context, req *http.Request) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)

	ch := &scriptChannel{}
	require.NoError(t, a.Serve(context.Background(), httpScope("DELETE", "/only-get"), ch))

	require.Len(t, ch.sent, 2)
	assert.Equal(t, 405, ch.sent[0].Status)

	var allow string
	for _, kv := range ch.sent[0].Headers {
		if kv[0] == "allow" {
			allow = kv[1]
		}
	}
	assert.Equal(t, "GET, HEAD", allow)
}

func TestAppEndpointErrorsAreTranslated(t *testing.T) {
	t.Parallel()

	a := New(WithLogger(quietLogger()))
	_, err := a.GET("/teapot", func(ctx context.Context, req *http.Request) (any, error) {
		return nil, http.Teapot()
	})
	require.NoError(t, err)

	ch := &scriptChannel{}
	require.NoError(t, a.Serve(context.Background(), httpScope("GET", "/teapot"), ch))
	assert.Equal(t, 418, ch.sent[0].Status)
}

func TestAppWebsocketIsIgnored(t *testing.T) {
	t.Parallel()

	a := New(WithLogger(quietLogger()))
	ch := &scriptChannel{}
	require.NoError(t, a.Serve(context.Background(), &core.Scope{Kind: core.KindWebsocket}, ch))
	assert.Empty(t, ch.sent)
}

func TestAppMiddlewareRunsBehindBoundary(t *testing.T) {
	t.Parallel()

	stamp := middleware.NewFunc(func(ctx context.Context, scope *core.Scope, ch core.Channel, next core.Handler) error {
		scope.State.Set("stamped", true)
		return next.Serve(ctx, scope, ch)
	})

	a := New(WithLogger(quietLogger()), WithMiddleware(stamp))
	_, err := a.GET("/x", func(ctx context.Context, req *http.Request) (any, error) {
		v, ok := req.State().Get("stamped")
		require.True(t, ok)
		assert.Equal(t, true, v)
		return "ok", nil
	})
	require.NoError(t, err)

	ch := &scriptChannel{}
	require.NoError(t, a.Serve(context.Background(), httpScope("GET", "/x"), ch))
	assert.Equal(t, 200, ch.sent[0].Status)
}

func TestAppStackBuiltDuringStartup(t *testing.T) {
	t.Parallel()

	loader := &countingLoader{}
	a := New(WithLogger(quietLogger()), WithMiddleware(loader))

	assert.Equal(t, "audra.build-stack", a.startup[0].name,
		"the internal handler leads the startup sequence")

	ch := &scriptChannel{recv: []core.Message{{Type: core.MessageStartup}}}
	require.NoError(t, a.Serve(context.Background(), lifespanScope(), ch))

	assert.Equal(t, core.MessageStartupComplete, ch.sent[0].Type)
	assert.Equal(t, int32(1), loader.loads.Load(), "load hooks ran during the handshake")
}

func TestAppStartupFailsWhenStackCannotBuild(t *testing.T) {
	t.Parallel()

	loader := &countingLoader{loadErr: errors.New("registry full")}
	a := New(WithLogger(quietLogger()), WithMiddleware(loader))

	ch := &scriptChannel{recv: []core.Message{{Type: core.MessageStartup}}}
	require.NoError(t, a.Serve(context.Background(), lifespanScope(), ch))

	require.Len(t, ch.sent, 1)
	assert.Equal(t, core.MessageStartupFailed, ch.sent[0].Type)
	assert.Contains(t, ch.sent[0].Reason, "audra.build-stack")
	assert.Contains(t, ch.sent[0].Reason, "registry full")
}

func TestAppBuildOnStartupDisabled(t *testing.T) {
	t.Parallel()

	loader := &countingLoader{loadErr: errors.New("registry full")}
	a := New(WithLogger(quietLogger()), WithMiddleware(loader), WithBuildOnStartup(false))

	// The handshake no longer touches the stack.
	ch := &scriptChannel{recv: []core.Message{{Type: core.MessageStartup}}}
	require.NoError(t, a.Serve(context.Background(), lifespanScope(), ch))
	assert.Equal(t, core.MessageStartupComplete, ch.sent[0].Type)
	assert.Equal(t, int32(0), loader.loads.Load())

	// The first HTTP flow triggers the build and surfaces the failure.
	err := a.Serve(context.Background(), httpScope("GET", "/x"), &scriptChannel{})
	var lerr *middleware.LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "application", lerr.Owner)
}

func TestAppStackBuildIsSingleFlight(t *testing.T) {
	t.Parallel()

	loader := &countingLoader{}
	a := New(WithLogger(quietLogger()), WithMiddleware(loader), WithBuildOnStartup(false))
	_, err := a.GET("/x", func(ctx context.Context, req *http.Request) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := &scriptChannel{}
			assert.NoError(t, a.Serve(context.Background(), httpScope("GET", "/x"), ch))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), loader.loads.Load(), "concurrent first flows share one build")
}

func TestAppStackBuildFailureIsLatched(t *testing.T) {
	t.Parallel()

	loader := &countingLoader{loadErr: errors.New("boom")}
	a := New(WithLogger(quietLogger()), WithMiddleware(loader), WithBuildOnStartup(false))

	for i := 0; i < 3; i++ {
		err := a.Serve(context.Background(), httpScope("GET", "/x"), &scriptChannel{})
		assert.Error(t, err)
	}
	assert.Equal(t, int32(1), loader.loads.Load(), "a failed build is never retried")
}
