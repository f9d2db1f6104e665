package serve

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"sync"

	"github.com/EvieePy/Audra/core"
)

// chunkPool recycles request-body read buffers across exchanges.
var chunkPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0)
		return &buf
	},
}

func getChunkBuf(size int) *[]byte {
	bufp := chunkPool.Get().(*[]byte)
	if cap(*bufp) < size {
		buf := make([]byte, size)
		return &buf
	}
	*bufp = (*bufp)[:size]
	return bufp
}

func putChunkBuf(bufp *[]byte) {
	chunkPool.Put(bufp)
}

// httpChannel adapts one net/http exchange to the message protocol. Receive
// streams the request body in fixed-size chunks with a more-data flag; a
// canceled request context surfaces as a disconnect message. Send enforces
// the hard response contract: exactly one start message followed by exactly
// one body message.
type httpChannel struct {
	w    nethttp.ResponseWriter
	r    *nethttp.Request
	bufp *[]byte

	bodyDone  bool
	started   bool
	wroteBody bool
}

func newHTTPChannel(w nethttp.ResponseWriter, r *nethttp.Request, chunkSize int) *httpChannel {
	return &httpChannel{w: w, r: r, bufp: getChunkBuf(chunkSize)}
}

// release returns the chunk buffer to the pool. Called once, after the
// handler is done with the channel.
func (c *httpChannel) release() {
	if c.bufp != nil {
		putChunkBuf(c.bufp)
		c.bufp = nil
	}
}

// Receive returns the next request message.
func (c *httpChannel) Receive(ctx context.Context) (core.Message, error) {
	if c.bodyDone {
		// Nothing left to read; only a disconnect can follow.
		select {
		case <-c.r.Context().Done():
			return core.Message{Type: core.MessageHTTPDisconnect}, nil
		case <-ctx.Done():
			return core.Message{}, ctx.Err()
		}
	}

	buf := *c.bufp
	n, err := c.r.Body.Read(buf)
	body := make([]byte, n)
	copy(body, buf[:n])

	switch {
	case err == nil:
		return core.Message{Type: core.MessageHTTPRequest, Body: body, More: true}, nil
	case errors.Is(err, io.EOF):
		c.bodyDone = true
		return core.Message{Type: core.MessageHTTPRequest, Body: body, More: false}, nil
	default:
		// A read error mid-body means the client went away.
		c.bodyDone = true
		return core.Message{Type: core.MessageHTTPDisconnect}, nil
	}
}

// Send writes a response message to the underlying ResponseWriter.
func (c *httpChannel) Send(ctx context.Context, msg core.Message) error {
	switch msg.Type {
	case core.MessageResponseStart:
		if c.started {
			return fmt.Errorf("response already started")
		}
		header := c.w.Header()
		for _, kv := range msg.Headers {
			header.Add(kv[0], kv[1])
		}
		c.w.WriteHeader(msg.Status)
		c.started = true
		return nil

	case core.MessageResponseBody:
		if !c.started {
			return fmt.Errorf("response body before response start")
		}
		if c.wroteBody {
			return fmt.Errorf("response body already sent")
		}
		c.wroteBody = true
		if len(msg.Body) == 0 {
			return nil
		}
		_, err := c.w.Write(msg.Body)
		return err

	default:
		return fmt.Errorf("unsupported message %q on http channel", msg.Type)
	}
}
