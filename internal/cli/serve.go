package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	reelhttp "github.com/aretw0/reel/pkg/adapters/http"
	"github.com/aretw0/reel/pkg/agent"
	"github.com/aretw0/reel/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
)

// ShutdownTimeout bounds the wait for in-flight requests on shutdown.
const ShutdownTimeout = 5 * time.Second

// Serve runs the HTTP API on addr until ctx is done.
func Serve(ctx context.Context, c *Components, sessions *session.Manager, addr string, gatherer prometheus.Gatherer) error {
	api := reelhttp.NewServer(sessions, func() (*agent.Agent, error) { return c.NewAgent(0) },
		reelhttp.WithLogger(c.Logger),
		reelhttp.WithGatherer(gatherer),
	)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		c.Logger.Info("server listening", "addr", addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	c.Logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		c.Logger.Warn("graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
		return srv.Close()
	}
	return nil
}
