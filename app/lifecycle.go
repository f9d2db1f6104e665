package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/EvieePy/Audra/core"
)

// LifecycleState is the coordinator's position in the startup/shutdown state
// machine.
type LifecycleState int

const (
	StateAwaitingStartup LifecycleState = iota
	StateStartupRunning
	StateStartupFailed
	StateRunning
	StateShutdownRunning
	StateShutdownFailed
	StateShutdownComplete
)

// String returns the state name.
func (s LifecycleState) String() string {
	switch s {
	case StateAwaitingStartup:
		return "awaiting-startup"
	case StateStartupRunning:
		return "startup-running"
	case StateStartupFailed:
		return "startup-failed"
	case StateRunning:
		return "running"
	case StateShutdownRunning:
		return "shutdown-running"
	case StateShutdownFailed:
		return "shutdown-failed"
	case StateShutdownComplete:
		return "shutdown-complete"
	default:
		return "unknown"
	}
}

// coordinator drives one lifespan channel start to finish. It is single-flow:
// one instance per channel, no concurrent re-entry.
type coordinator struct {
	app   *App
	state LifecycleState
}

// lifespan runs the handshake protocol loop for one lifespan channel.
func (a *App) lifespan(ctx context.Context, scope *core.Scope, ch core.Channel) error {
	c := &coordinator{app: a, state: StateAwaitingStartup}
	return c.run(ctx, scope, ch)
}

// run receives handshake messages until the channel fails, a phase fails, or
// shutdown completes. Handler faults are converted into failed-handshake
// messages and halt the loop; they never crash it. Shutdown completing is
// the only path that ends the loop without a fault.
func (c *coordinator) run(ctx context.Context, scope *core.Scope, ch core.Channel) error {
	for {
		msg, err := ch.Receive(ctx)
		if err != nil {
			return err
		}

		switch msg.Type {
		case core.MessageStartup:
			c.state = StateStartupRunning

			if name, err := c.runPhase(ctx, scope.State, c.app.startup); err != nil {
				reason := fmt.Sprintf("startup handler %q prevented the application from starting: %v", name, err)
				c.app.logger.ErrorContext(ctx, "lifespan startup failed",
					slog.String("handler", name), slog.Any("error", err))
				c.state = StateStartupFailed
				if serr := ch.Send(ctx, core.Message{Type: core.MessageStartupFailed, Reason: reason}); serr != nil {
					return serr
				}
				return nil
			}

			if err := ch.Send(ctx, core.Message{Type: core.MessageStartupComplete}); err != nil {
				return err
			}
			c.state = StateRunning

		case core.MessageShutdown:
			c.state = StateShutdownRunning

			if name, err := c.runPhase(ctx, scope.State, c.app.shutdown); err != nil {
				reason := fmt.Sprintf("shutdown handler %q prevented the application from closing gracefully: %v", name, err)
				c.app.logger.ErrorContext(ctx, "lifespan shutdown failed",
					slog.String("handler", name), slog.Any("error", err))
				c.state = StateShutdownFailed
				if serr := ch.Send(ctx, core.Message{Type: core.MessageShutdownFailed, Reason: reason}); serr != nil {
					return serr
				}
				return nil
			}

			if err := ch.Send(ctx, core.Message{Type: core.MessageShutdownComplete}); err != nil {
				return err
			}
			c.state = StateShutdownComplete
			return nil

		default:
			return fmt.Errorf("protocol violation: unexpected message %q on lifespan channel", msg.Type)
		}
	}
}

// runPhase runs one ordered handler sequence, passing the shared state by
// reference. Returns the name of the failing handler, if any.
func (c *coordinator) runPhase(ctx context.Context, state *core.State, handlers []lifecycleHandler) (string, error) {
	for _, h := range handlers {
		if err := h.fn(ctx, c.app, state); err != nil {
			return h.name, err
		}
	}
	return "", nil
}
