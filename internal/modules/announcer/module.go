package announcer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/announcer/internal/commentary"
	"github.com/nfrund/announcer/internal/config"
	"github.com/nfrund/announcer/internal/database"
	"github.com/nfrund/announcer/internal/middleware"
	"github.com/nfrund/announcer/internal/module"
	"github.com/nfrund/announcer/internal/modules/announcer/topics"
	"github.com/nfrund/announcer/internal/phrasepack"
	"github.com/nfrund/announcer/internal/pubsub"
	"github.com/nfrund/announcer/internal/registry"
	"github.com/nfrund/announcer/internal/rendering"
	"github.com/nfrund/announcer/internal/script"
	"github.com/nfrund/announcer/internal/storage"
	"github.com/nfrund/announcer/internal/websocket"
)

// Services published to the registry by this module.
var (
	ServiceKey    = registry.Key[*Service]("announcer.service")
	PhrasePackKey = registry.Key[*phrasepack.Loader]("announcer.phrasepack")
)

// Dependencies holds the services required by the AnnouncerModule.
type Dependencies struct {
	Publisher  pubsub.Publisher
	Subscriber pubsub.Subscriber
	Renderer   rendering.Renderer
	// Bridges are the websocket bridges the module's client actions are
	// allowed on.
	Bridges []*websocket.Bridge
	History database.HistoryStore
	// Files backs the phrase pack and the rules script.
	Files storage.Store
}

// AnnouncerModule provides per-player game commentary.
type AnnouncerModule struct {
	module.BaseModule
	deps   Dependencies
	logger *slog.Logger

	service *Service
	packs   *phrasepack.Loader
	rules   *script.PriorityRules
	cancel  context.CancelFunc
}

// New creates a new AnnouncerModule instance.
func New(deps Dependencies) *AnnouncerModule {
	return &AnnouncerModule{
		deps:   deps,
		logger: slog.Default().With("module", "announcer"),
	}
}

// Name returns the module name.
func (m *AnnouncerModule) Name() string {
	return "announcer"
}

// Register builds the service and publishes it to the registry.
func (m *AnnouncerModule) Register(reg *registry.Registry) error {
	cfg := reg.Config()

	style, err := commentary.ParseStyle(cfg.GetStyle())
	if err != nil {
		return fmt.Errorf("announcer: %w", err)
	}

	classifier := commentary.NewClassifier()
	engine := script.NewTengoEngine()
	limits := engine.SecurityLimits()
	limits.MaxExecutionTime = cfg.GetRulesTimeout()
	engine.SetSecurityLimits(limits)
	m.rules = script.NewPriorityRules(engine)

	m.service, err = NewService(ServiceDependencies{
		Publisher:  m.deps.Publisher,
		Renderer:   m.deps.Renderer,
		Classifier: classifier,
		Rules:      m.rules,
		History:    m.deps.History,
		Logger:     m.logger,
	}, Settings{
		Style:        style,
		Voice:        cfg.GetVoice(),
		Cooldown:     cfg.GetCooldown(),
		RulesTimeout: cfg.GetRulesTimeout(),
	}, cfg.GetMaxSessions())
	if err != nil {
		return err
	}
	registry.Set(reg, ServiceKey, m.service)

	if path := cfg.GetPhrasePackPath(); path != "" && m.deps.Files != nil {
		m.packs = phrasepack.NewLoader(m.deps.Files, path, classifier, phrasepack.WithLogger(m.logger))
		registry.Set(reg, PhrasePackKey, m.packs)
	}

	slog.Info("AnnouncerModule registered")
	return nil
}

// Boot loads the phrase pack and rules, starts the subscriber and mounts the
// HTTP routes.
func (m *AnnouncerModule) Boot(ctx context.Context, g *echo.Group, reg *registry.Registry) error {
	slog.Info("Booting AnnouncerModule...")
	cfg := reg.Config()

	ctx, m.cancel = context.WithCancel(ctx)

	if err := m.loadAssets(ctx, cfg); err != nil {
		return err
	}

	for _, b := range m.deps.Bridges {
		for _, action := range topics.ClientActions() {
			if err := b.AllowAction(action); err != nil {
				return fmt.Errorf("allow %s on %s bridge: %w", action, b.Endpoint(), err)
			}
		}
	}

	var subOpts []SubscriberOption
	for _, b := range m.deps.Bridges {
		if b.Endpoint() == websocket.EndpointData {
			subOpts = append(subOpts, WithDataClients(b))
		}
	}
	if err := NewSubscriber(m.deps.Subscriber, m.service, m.logger, subOpts...).Start(ctx); err != nil {
		return err
	}

	h := NewHandler(m.service, m.deps.Renderer, m.packs, cfg.GetHistoryLimit(), "/"+m.Name())
	h.Register(g, middleware.RateLimiter(cfg.GetEventRateLimit()))
	return nil
}

func (m *AnnouncerModule) loadAssets(ctx context.Context, cfg config.Provider) error {
	if m.packs != nil {
		// A bad pack on disk is logged; the built-in catalog stays.
		_ = m.packs.Load(ctx)
		if cfg.GetPhrasePackHotReload() {
			if err := m.packs.Watch(ctx); err != nil {
				m.logger.Warn("Phrase pack hot reload unavailable", "error", err)
			}
		}
	}

	if path := cfg.GetRulesScriptPath(); path != "" && m.deps.Files != nil {
		if err := m.rules.LoadFile(ctx, m.deps.Files, path); err != nil {
			var scriptErr *script.ScriptError
			if errors.As(err, &scriptErr) && scriptErr.Type == script.ErrorTypeNotFound {
				m.logger.Warn("Priority rules script not found, using table priorities", "path", path)
				return nil
			}
			return fmt.Errorf("load priority rules: %w", err)
		}
	}
	return nil
}

// Shutdown stops background work and releases pending speech.
func (m *AnnouncerModule) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down AnnouncerModule...")
	if m.cancel != nil {
		m.cancel()
	}
	if m.packs != nil {
		if err := m.packs.Close(); err != nil {
			m.logger.Warn("Failed to stop phrase pack watcher", "error", err)
		}
	}
	if m.service != nil {
		m.service.Close()
	}
	return nil
}
