package server

import (
	"context"
	"fmt"
	"log/slog"
)

// registerModules runs Register for every module before any of them boots,
// so modules may look up each other's services in Boot.
func (s *Server) registerModules() error {
	for _, m := range s.modules {
		if err := m.Register(s.Registry); err != nil {
			return fmt.Errorf("register module %s: %w", m.Name(), err)
		}
	}
	return nil
}

// bootModules boots each module on a route group named after it.
func (s *Server) bootModules() error {
	for _, m := range s.modules {
		g := s.E.Group("/" + m.Name())
		if err := m.Boot(s.ctx, g, s.Registry); err != nil {
			return fmt.Errorf("boot module %s: %w", m.Name(), err)
		}
		slog.Info("Module booted", "module", m.Name())
	}
	return nil
}

// shutdownModules stops modules in reverse boot order.
func (s *Server) shutdownModules(ctx context.Context) {
	for i := len(s.modules) - 1; i >= 0; i-- {
		m := s.modules[i]
		if err := m.Shutdown(ctx); err != nil {
			slog.Error("Module shutdown failed", "module", m.Name(), "error", err)
		}
	}
}
