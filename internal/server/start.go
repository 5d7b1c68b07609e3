package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 10 * time.Second

// Start serves on the configured address until ctx ends or the process gets
// SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "addr", s.Cfg.GetServerAddr(), "version", Version)
		if err := s.E.Start(s.Cfg.GetServerAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(serveErr, s.Shutdown(shutdownCtx))
}

// Shutdown stops accepting requests, shuts the modules down and then
// releases the core services.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.E != nil {
		if err := s.E.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.shutdownModules(ctx)
	s.cancel()

	if report := s.injector.ShutdownWithContext(ctx); !report.Succeed {
		errs = append(errs, errors.New(report.Error()))
	}
	return errors.Join(errs...)
}
