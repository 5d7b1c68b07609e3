package module

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/announcer/internal/registry"
)

// Module is a self-contained feature with a Register, Boot, Shutdown lifecycle.
type Module interface {
	// Name returns a unique identifier, also used as the route prefix.
	Name() string

	// Register publishes the module's services to the registry. It runs for
	// every module before any Boot.
	Register(reg *registry.Registry) error

	// Boot mounts routes on router and starts background work.
	Boot(ctx context.Context, router *echo.Group, reg *registry.Registry) error

	// Shutdown stops background work. Modules shut down in reverse order.
	Shutdown(ctx context.Context) error
}

// BaseModule provides no-op lifecycle methods for embedding.
type BaseModule struct{}

func (m *BaseModule) Register(reg *registry.Registry) error { return nil }
func (m *BaseModule) Boot(ctx context.Context, router *echo.Group, reg *registry.Registry) error {
	return nil
}
func (m *BaseModule) Shutdown(ctx context.Context) error { return nil }
