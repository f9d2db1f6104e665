package core

import (
	"context"
	"errors"
)

// ErrChannelClosed is returned by Pipe operations after Close.
var ErrChannelClosed = errors.New("channel closed")

// Channel is one connection's bidirectional message exchange. Implementations
// are provided by the hosting transport; Receive and Send block until a
// message is available or the context is done.
type Channel interface {
	Receive(ctx context.Context) (Message, error)
	Send(ctx context.Context, msg Message) error
}

// Pipe is an in-memory Channel backed by a pair of buffered message queues.
// NewPipe returns the two connected ends; what one end sends the other
// receives. Used by the serve adapter's lifespan bridge and by tests.
type Pipe struct {
	in   chan Message
	out  chan Message
	done chan struct{}
}

// NewPipe creates a connected channel pair with the given buffer size per
// direction.
func NewPipe(size int) (client, server *Pipe) {
	if size < 1 {
		size = 1
	}
	toServer := make(chan Message, size)
	toClient := make(chan Message, size)
	done := make(chan struct{})

	client = &Pipe{in: toClient, out: toServer, done: done}
	server = &Pipe{in: toServer, out: toClient, done: done}
	return client, server
}

// Receive returns the next message from the peer end.
func (p *Pipe) Receive(ctx context.Context) (Message, error) {
	select {
	case msg := <-p.in:
		return msg, nil
	case <-p.done:
		return Message{}, ErrChannelClosed
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Send delivers a message to the peer end.
func (p *Pipe) Send(ctx context.Context, msg Message) error {
	select {
	case p.out <- msg:
		return nil
	case <-p.done:
		return ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases both ends of the pipe. Safe to call from either end, once.
func (p *Pipe) Close() {
	close(p.done)
}
