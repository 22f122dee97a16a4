package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// DefaultShutdownTimeout bounds graceful shutdown when none is configured.
const DefaultShutdownTimeout = 10 * time.Second

// Run serves on cfg.Host:cfg.Port until ctx is canceled, then shuts down
// gracefully, waiting at most cfg.ShutdownTimeoutSec for open requests.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", cfg.Port)
	}
	s, err := NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}
	ln, err := net.Listen("tcp", net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)))
	if err != nil {
		return err
	}
	shutdown := time.Duration(cfg.ShutdownTimeoutSec) * time.Second
	if shutdown <= 0 {
		shutdown = DefaultShutdownTimeout
	}
	return s.Serve(ctx, ln, shutdown)
}

// Serve accepts connections on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if s.timeout > 0 {
		httpServer.ReadTimeout = s.timeout
	}

	errCh := make(chan error, 1)
	go func() {
		s.log().Info("Starting grainscan server", "addr", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log().Info("Starting graceful shutdown", "timeout", shutdownTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.log().Error("HTTP server shutdown error", "error", err)
		return err
	}
	s.log().Info("Graceful shutdown completed")
	return nil
}

func (s *Server) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}
