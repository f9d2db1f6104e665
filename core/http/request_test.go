package http

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvieePy/Audra/core"
)

// scriptChannel replays a fixed sequence of received messages.
type scriptChannel struct {
	recv     []core.Message
	received int
	sent     []core.Message
}

func (c *scriptChannel) Receive(ctx context.Context) (core.Message, error) {
	if len(c.recv) == 0 {
		return core.Message{}, context.DeadlineExceeded
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

func httpScope(method string) *core.Scope {
	return &core.Scope{Kind: core.KindHTTP, Method: method, Path: "/x"}
}

func TestRequestBodyAccumulatesChunks(t *testing.T) {
	t.Parallel()

	ch := &scriptChannel{recv: []core.Message{
		{Type: core.MessageHTTPRequest, Body: []byte("hel"), More: true},
		{Type: core.MessageHTTPRequest, Body: []byte("lo"), More: false},
	}}
	req := NewRequest(httpScope("POST"), ch)

	body, err := req.Body(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), body)

	// Memoized: a second read consumes no further messages.
	seen := ch.received
	body, err = req.Body(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), body)
	assert.Equal(t, seen, ch.received)
}

func TestRequestBodyDisconnectAbortsImmediately(t *testing.T) {
	t.Parallel()

	ch := &scriptChannel{recv: []core.Message{
		{Type: core.MessageHTTPRequest, Body: []byte("par"), More: true},
		{Type: core.MessageHTTPDisconnect},
	}}
	req := NewRequest(httpScope("POST"), ch)

	_, err := req.Body(context.Background())
	assert.ErrorIs(t, err, ErrClientDisconnected)
}

func TestRequestBodySkipsUnknownMessages(t *testing.T) {
	t.Parallel()

	ch := &scriptChannel{recv: []core.Message{
		{Type: "custom.noise"},
		{Type: core.MessageHTTPRequest, Body: []byte("data"), More: false},
	}}
	req := NewRequest(httpScope("POST"), ch)

	body, err := req.Body(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), body)
}

func TestRequestJSON(t *testing.T) {
	t.Parallel()

	ch := &scriptChannel{recv: []core.Message{
		{Type: core.MessageHTTPRequest, Body: []byte(`{"name":"eve"}`), More: false},
	}}
	req := NewRequest(httpScope("POST"), ch)

	var payload struct {
		Name string `json:"name"`
	}
	require.NoError(t, req.JSON(context.Background(), &payload))
	assert.Equal(t, "eve", payload.Name)
}

func TestRequestStreamDoesNotMemoize(t *testing.T) {
	t.Parallel()

	ch := &scriptChannel{recv: []core.Message{
		{Type: core.MessageHTTPRequest, Body: []byte("a"), More: true},
		{Type: core.MessageHTTPRequest, Body: []byte("b"), More: false},
	}}
	req := NewRequest(httpScope("POST"), ch)

	var chunks []string
	require.NoError(t, req.Stream(context.Background(), func(chunk []byte) error {
		chunks = append(chunks, string(chunk))
		return nil
	}))
	assert.Equal(t, []string{"a", "b"}, chunks)
}

func TestRequestStreamReplaysMemoizedBody(t *testing.T) {
	t.Parallel()

	ch := &scriptChannel{recv: []core.Message{
		{Type: core.MessageHTTPRequest, Body: []byte("whole"), More: false},
	}}
	req := NewRequest(httpScope("POST"), ch)

	_, err := req.Body(context.Background())
	require.NoError(t, err)

	var chunks []string
	require.NoError(t, req.Stream(context.Background(), func(chunk []byte) error {
		chunks = append(chunks, string(chunk))
		return nil
	}))
	assert.Equal(t, []string{"whole"}, chunks)
}

func TestRequestAccessors(t *testing.T) {
	t.Parallel()

	scope := &core.Scope{
		Kind:     core.KindHTTP,
		Method:   "GET",
		Path:     "/items/7",
		RawQuery: "full=1",
		Headers:  [][2]string{{"Accept", "text/plain"}},
		Params:   map[string]any{"id": 7},
		State:    core.NewState(),
	}
	req := NewRequest(scope, &scriptChannel{})

	assert.Equal(t, "GET", req.Method())
	assert.Equal(t, "/items/7", req.Path())
	assert.Equal(t, "full=1", req.RawQuery())
	assert.Equal(t, "text/plain", req.Headers().Get("accept"))
	assert.NotNil(t, req.State())

	id, ok := req.Param("id")
	require.True(t, ok)
	assert.Equal(t, 7, id)
}
