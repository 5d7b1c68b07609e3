package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/samber/do/v2"
	"github.com/spf13/afero"

	"github.com/nfrund/announcer/internal/app"
	"github.com/nfrund/announcer/internal/config"
	"github.com/nfrund/announcer/internal/handlers"
	"github.com/nfrund/announcer/internal/middleware"
	"github.com/nfrund/announcer/internal/module"
	"github.com/nfrund/announcer/internal/pubsub"
	"github.com/nfrund/announcer/internal/registry"
	"github.com/nfrund/announcer/internal/rendering"
	"github.com/nfrund/announcer/internal/storage"
	"github.com/nfrund/announcer/internal/websocket"
	"github.com/nfrund/announcer/web"
)

// Version is stamped at build time with -ldflags "-X ...server.Version=v1.2.3".
var Version = "dev"

// Server holds the HTTP server and the services behind it.
type Server struct {
	E        *echo.Echo
	Cfg      config.Provider
	PubSub   *pubsub.WatermillBridge
	Registry *registry.Registry

	injector *do.RootScope
	modules  []module.Module
	history  *history
	bridges  []*websocket.Bridge
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Server.
type Option func(*options)

type options struct {
	logger *slog.Logger
	files  afero.Fs
}

// WithLogger sets the process logger. It defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithFiles sets the filesystem holding phrase packs and rules scripts. It
// defaults to the OS filesystem.
func WithFiles(fs afero.Fs) Option {
	return func(o *options) { o.files = fs }
}

// New wires every service and module and mounts the routes. The server is
// ready for Start or for use as an http.Handler through E.
func New(cfg config.Provider, opts ...Option) (*Server, error) {
	o := options{logger: slog.Default(), files: afero.NewOsFs()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := websocket.RegisterTopics(); err != nil {
		return nil, fmt.Errorf("register websocket topics: %w", err)
	}

	injector := newContainer(cfg, o.logger, o.files)
	s := &Server{
		Cfg:      cfg,
		Registry: registry.New(cfg),
		injector: injector,
		logger:   o.logger,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if err := s.build(); err != nil {
		s.cancel()
		if report := injector.ShutdownWithContext(context.Background()); !report.Succeed {
			o.logger.Warn("Partial startup cleanup failed", "error", report.Error())
		}
		return nil, err
	}
	return s, nil
}

func (s *Server) build() error {
	b, err := do.Invoke[*bus](s.injector)
	if err != nil {
		return err
	}
	s.PubSub = b.WatermillBridge

	s.history, err = do.Invoke[*history](s.injector)
	if err != nil {
		return err
	}
	renderer, err := do.Invoke[rendering.Renderer](s.injector)
	if err != nil {
		return err
	}
	files, err := do.Invoke[storage.Store](s.injector)
	if err != nil {
		return err
	}
	htmlBridge, err := do.InvokeNamed[*websocket.Bridge](s.injector, htmlBridgeName)
	if err != nil {
		return err
	}
	dataBridge, err := do.InvokeNamed[*websocket.Bridge](s.injector, dataBridgeName)
	if err != nil {
		return err
	}
	s.bridges = []*websocket.Bridge{htmlBridge, dataBridge}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	if r, ok := renderer.(echo.Renderer); ok {
		e.Renderer = r
	}
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger)
	e.Use(echomw.Recover())
	e.Use(session.Middleware(middleware.NewSessionStore(s.Cfg.GetSessionSecret(), s.Cfg.GetSecureCookies())))
	e.Use(middleware.Session())
	setupErrorHandling(e)
	s.E = e

	for _, br := range s.bridges {
		if err := br.Start(s.ctx); err != nil {
			return err
		}
	}

	s.modules = app.NewModules(app.Dependencies{
		Publisher:  b,
		Subscriber: b,
		Renderer:   renderer,
		Bridges:    s.bridges,
		History:    s.history.store,
		Files:      files,
	})
	if err := s.registerModules(); err != nil {
		return err
	}
	if err := s.bootModules(); err != nil {
		return err
	}

	return s.registerRoutes(htmlBridge, dataBridge)
}

func (s *Server) registerRoutes(htmlBridge, dataBridge *websocket.Bridge) error {
	static, err := fs.Sub(web.FS, "static")
	if err != nil {
		return fmt.Errorf("static assets: %w", err)
	}
	s.E.StaticFS("/static", static)

	s.E.GET("/ws/html", htmlBridge.Handler())
	s.E.GET("/ws/data", dataBridge.Handler())

	health := handlers.NewHealthHandler(map[string]handlers.Check{
		"history": s.history.Ping,
	})
	s.E.GET("/health", health.HealthGet)

	// The commentary panel is the only page.
	s.E.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/announcer")
	})
	return nil
}

// setupErrorHandling renders errors as ErrorResponse JSON. Errors that are
// not echo.HTTPErrors are logged with a stack trace.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !errors.As(err, &he) {
			middleware.FromContext(c.Request().Context()).Error("Internal Server Error (Unhandled)",
				"error", err,
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"stack_trace", string(debug.Stack()),
			)
			he = handlers.NewHTTPError(http.StatusInternalServerError, "internal_error", "internal server error")
		}

		body, ok := he.Message.(handlers.ErrorResponse)
		if !ok {
			body = handlers.ErrorResponse{
				Code:    http.StatusText(he.Code),
				Message: fmt.Sprint(he.Message),
			}
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(he.Code)
		} else {
			err = c.JSON(he.Code, body)
		}
		if err != nil {
			slog.Error("Failed to write error response", "error", err)
		}
	}
}
