// Package httpserver runs the HTTP listener with graceful shutdown.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// ShutdownTimeout controls how long to wait for in-flight requests on shutdown.
var ShutdownTimeout = 10 * time.Second

// Server wraps the http.Server with sensible defaults.
type Server struct {
	inner  *http.Server
	logger *slog.Logger
}

// New constructs a server listening on the provided port. Write timeouts leave
// room for avatar and cover uploads.
func New(port int, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		inner: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       2 * time.Minute,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled or the listener fails, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srvErr := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "addr", s.inner.Addr)
		srvErr <- s.inner.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, shutting down server")
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := s.inner.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
