package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/do/v2"
	"github.com/spf13/afero"
	"github.com/surrealdb/surrealdb.go"
	"go.opentelemetry.io/otel/trace"

	"github.com/nfrund/announcer/internal/config"
	"github.com/nfrund/announcer/internal/database"
	"github.com/nfrund/announcer/internal/pubsub"
	"github.com/nfrund/announcer/internal/rendering"
	"github.com/nfrund/announcer/internal/storage"
	"github.com/nfrund/announcer/internal/websocket"
)

// Named services that share a type.
const (
	htmlBridgeName = "websocket.bridge.html"
	dataBridgeName = "websocket.bridge.data"
)

// tracing owns the OpenTelemetry provider behind the bus tracer.
type tracing struct {
	tracer trace.Tracer
	stop   func()
}

func (t *tracing) Shutdown() {
	t.stop()
}

// bus wraps the in-process bus so the injector closes it on shutdown.
type bus struct {
	*pubsub.WatermillBridge
}

func (b *bus) Shutdown() error {
	return b.Close()
}

// history is the commentary history store plus the connection backing it.
type history struct {
	store database.HistoryStore
	db    *surrealdb.DB
}

func (h *history) Shutdown(ctx context.Context) error {
	if h.db == nil {
		return nil
	}
	return h.db.Close(ctx)
}

// Ping reports whether the history database answers queries.
func (h *history) Ping(ctx context.Context) error {
	if h.db == nil {
		return nil
	}
	return database.Execute(ctx, h.db, "RETURN true", nil)
}

// newContainer declares every core service. Services are built lazily on
// first invocation and shut down in reverse dependency order.
func newContainer(cfg config.Provider, logger *slog.Logger, files afero.Fs) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)

	do.Provide(injector, func(i do.Injector) (*tracing, error) {
		cfg := do.MustInvoke[config.Provider](i)
		tracer, stop, err := pubsub.SetupOTel(context.Background(), pubsub.TracingConfig{
			Enabled:        cfg.GetTracingEnabled(),
			ServiceName:    cfg.GetTracingServiceName(),
			ServiceVersion: Version,
			ZipkinURL:      cfg.GetTracingZipkinURL(),
		})
		if err != nil {
			return nil, fmt.Errorf("setup tracing: %w", err)
		}
		return &tracing{tracer: tracer, stop: stop}, nil
	})

	do.Provide(injector, func(i do.Injector) (*bus, error) {
		t := do.MustInvoke[*tracing](i)
		return &bus{pubsub.NewWatermillBridge(pubsub.WithTracer(t.tracer))}, nil
	})

	do.Provide(injector, func(i do.Injector) (*history, error) {
		cfg := do.MustInvoke[config.Provider](i)
		logger := do.MustInvoke[*slog.Logger](i)

		if cfg.GetDBUrl() == "" {
			store, err := database.NewMemoryHistory(cfg.GetMaxSessions(), cfg.GetHistoryLimit())
			if err != nil {
				return nil, err
			}
			logger.Info("Commentary history kept in memory")
			return &history{store: store}, nil
		}

		ctx := context.Background()
		db, err := database.Connect(ctx, cfg, database.NewRetryer())
		if err != nil {
			return nil, fmt.Errorf("connect history database: %w", err)
		}
		store := database.NewSurrealHistory(db, cfg.GetHistoryLimit())
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close(ctx)
			return nil, fmt.Errorf("history schema: %w", err)
		}
		return &history{store: store, db: db}, nil
	})

	do.Provide(injector, func(i do.Injector) (rendering.Renderer, error) {
		return rendering.NewUniversalRenderer(), nil
	})

	do.Provide(injector, func(i do.Injector) (storage.Store, error) {
		return storage.NewAferoStore(files), nil
	})

	for name, endpoint := range map[string]websocket.Endpoint{
		htmlBridgeName: websocket.EndpointHTML,
		dataBridgeName: websocket.EndpointData,
	} {
		do.ProvideNamed(injector, name, func(i do.Injector) (*websocket.Bridge, error) {
			b := do.MustInvoke[*bus](i)
			return websocket.NewBridge(endpoint, websocket.BridgeDependencies{
				Publisher:  b,
				Subscriber: b,
			}), nil
		})
	}

	return injector
}
