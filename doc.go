/*
Package audra is a message-passing server framework core: a path-matching
router with typed parameters, a lazily-built middleware chain, and a
lifecycle state machine driving the startup/shutdown handshake.

The framework speaks a three-phase channel protocol. A lifespan channel
carries the startup/shutdown handshake; each HTTP connection becomes one
request/response exchange over its own channel. Everything composes as a
core.Handler serving (scope, channel) pairs.

Quick start:

	package main

	import (
		"context"

		"github.com/EvieePy/Audra/app"
		"github.com/EvieePy/Audra/config"
		"github.com/EvieePy/Audra/core/http"
		"github.com/EvieePy/Audra/serve"
	)

	func main() {
		cfg := config.MustLoad()
		logger := config.NewLogger(cfg)

		a := app.New(app.WithLogger(logger))
		a.GET("/items/{id:int}", func(ctx context.Context, req *http.Request) (any, error) {
			id, _ := req.Param("id")
			return http.JSON(map[string]any{"id": id})
		})

		srv := serve.New(a, cfg, logger)
		if err := srv.Run(context.Background()); err != nil {
			logger.Error("server failed", "error", err)
		}
	}

Modules:

  - core: channel protocol, scope, shared state, handler contract
  - core/router: path templates, converters, route resolution
  - core/middleware: chain assembly and built-in middleware
  - core/http: request/response helpers and the HTTP error ladder
  - app: application object and lifecycle coordinator
  - serve: net/http transport adapter with h2c and SO_REUSEPORT support
  - config: environment-based configuration and logging
*/
package audra
