// Package serve hosts an application handler over net/http, bridging each
// request and the lifespan handshake onto the message-channel protocol.
package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	nethttp "net/http"
	"os/signal"
	"syscall"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/EvieePy/Audra/config"
	"github.com/EvieePy/Audra/core"
)

// Server hosts a core.Handler. One lifespan channel is run for the process
// lifetime; every HTTP request becomes one http-kind channel exchange.
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	handler core.Handler
	state   *core.State

	httpSrv  *nethttp.Server
	lifespan *core.Pipe // client end of the handshake channel
	loopErr  chan error
}

// New creates a server for handler. A nil logger falls back to slog.Default.
func New(handler core.Handler, cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:     cfg,
		logger:  logger,
		handler: handler,
		state:   core.NewState(),
		loopErr: make(chan error, 1),
	}
}

// State returns the store shared between lifecycle and request handlers.
func (s *Server) State() *core.State { return s.state }

// ServeHTTP adapts one request to the channel protocol.
func (s *Server) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	headers := make([][2]string, 0, len(r.Header)+1)
	headers = append(headers, [2]string{"host", r.Host})
	for name, values := range r.Header {
		for _, v := range values {
			headers = append(headers, [2]string{name, v})
		}
	}

	scope := &core.Scope{
		Kind:     core.KindHTTP,
		Method:   r.Method,
		Path:     r.URL.Path,
		RootPath: s.cfg.RootPath,
		RawQuery: r.URL.RawQuery,
		Headers:  headers,
		Client:   r.RemoteAddr,
		State:    s.state,
	}

	ch := newHTTPChannel(w, r, s.cfg.BodyChunkSize)
	defer ch.release()

	if err := s.handler.Serve(r.Context(), scope, ch); err != nil {
		s.logger.ErrorContext(r.Context(), "request flow failed",
			slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.Any("error", err))
		if !ch.started {
			nethttp.Error(w, "Internal Server Error", nethttp.StatusInternalServerError)
		}
	}
}

// Start binds the listener, runs the startup handshake and begins serving. A
// failed startup handshake is fatal and tears the server down.
func (s *Server) Start(ctx context.Context) error {
	var root nethttp.Handler = s
	if s.cfg.EnableH2C {
		root = h2c.NewHandler(root, &http2.Server{})
	}

	s.httpSrv = &nethttp.Server{
		Handler:      root,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	lc := net.ListenConfig{Control: reusePortControl(s.cfg.ReusePort)}
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr(), err)
	}

	if err := s.startLifespan(ctx); err != nil {
		_ = ln.Close()
		return err
	}

	s.logger.InfoContext(ctx, "server started",
		slog.String("addr", s.cfg.Addr()),
		slog.String("env", s.cfg.Env),
		slog.Bool("h2c", s.cfg.EnableH2C),
	)

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			s.logger.Error("http server stopped", slog.Any("error", err))
		}
	}()
	return nil
}

// startLifespan runs the application's lifespan loop over an in-memory pipe
// and performs the startup handshake.
func (s *Server) startLifespan(ctx context.Context) error {
	client, server := core.NewPipe(4)
	s.lifespan = client

	scope := &core.Scope{Kind: core.KindLifespan, State: s.state}
	go func() {
		s.loopErr <- s.handler.Serve(context.WithoutCancel(ctx), scope, server)
	}()

	if err := client.Send(ctx, core.Message{Type: core.MessageStartup}); err != nil {
		return err
	}
	msg, err := client.Receive(ctx)
	if err != nil {
		return err
	}
	switch msg.Type {
	case core.MessageStartupComplete:
		return nil
	case core.MessageStartupFailed:
		return fmt.Errorf("application startup failed: %s", msg.Reason)
	default:
		return fmt.Errorf("unexpected handshake reply %q", msg.Type)
	}
}

// Stop runs the shutdown handshake and drains in-flight requests within the
// configured timeout.
func (s *Server) Stop(ctx context.Context) error {
	sctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.lifespan.Send(sctx, core.Message{Type: core.MessageShutdown}); err == nil {
		if msg, err := s.lifespan.Receive(sctx); err == nil && msg.Type == core.MessageShutdownFailed {
			s.logger.Error("application shutdown failed", slog.String("reason", msg.Reason))
		}
	}

	return s.httpSrv.Shutdown(sctx)
}

// Run starts the server and blocks until SIGINT or SIGTERM, then stops it
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	s.logger.Info("signal received, shutting down")
	return s.Stop(context.WithoutCancel(ctx))
}
