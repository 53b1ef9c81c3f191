package app

import (
	"context"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/metrics"
	transporthttp "github.com/vovakirdan/wirechat-relay/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	registry        *core.Registry
	metrics         *metrics.Metrics
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) *App {
	m := metrics.New()
	registry := core.NewRegistry(cfg.RoomBufferSize, m)
	server := transporthttp.NewServer(registry, m, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		registry:        registry,
		metrics:         m,
		log:             logger,
	}
}

// Registry exposes the room registry.
func (a *App) Registry() *core.Registry {
	return a.registry
}

// Run serves on the configured address and blocks until ctx is cancelled or
// the server fails.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return err
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener. Sessions inherit ctx, so cancelling it
// ends them before the shutdown deadline.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	serverErr := make(chan error, 1)

	a.server.BaseContext = func(net.Listener) context.Context { return ctx }

	go func() {
		if err := a.server.Serve(ln); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	a.log.Info().Str("addr", ln.Addr().String()).Msg("relay listening")

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}

		return <-serverErr
	}
}
