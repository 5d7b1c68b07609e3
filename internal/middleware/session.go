package middleware

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	// SessionCookieName names the cookie holding the player session.
	SessionCookieName = "announcer_session"
	// SessionIDKey is the echo context key of the player session id.
	SessionIDKey = "session_id"
	// SessionHeader lets non-browser clients (CLI, tests) pick their session.
	SessionHeader = "X-Announcer-Session"

	sessionValueID = "id"
	sessionKey     = contextKey("session_id")
)

// NewSessionStore returns the cookie store used by session.Middleware.
func NewSessionStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   secure,
	}
	return store
}

// Session assigns every visitor a player session id, minting a UUID on the
// first request. It must run after echo-contrib's session.Middleware.
func Session() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := sessionFromHeader(c)
			if id == "" {
				var err error
				id, err = sessionFromCookie(c)
				if err != nil {
					FromContext(c.Request().Context()).Warn("Failed to persist session cookie", "error", err)
				}
			}

			c.Set(SessionIDKey, id)
			ctx := WithSessionID(c.Request().Context(), id)
			ctx = WithLogger(ctx, FromContext(ctx).With("session_id", id))
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func sessionFromHeader(c echo.Context) string {
	h := c.Request().Header.Get(SessionHeader)
	if h == "" {
		return ""
	}
	if _, err := uuid.Parse(h); err != nil {
		slog.Debug("Ignoring malformed session header", "value", h)
		return ""
	}
	return h
}

func sessionFromCookie(c echo.Context) (string, error) {
	sess, err := session.Get(SessionCookieName, c)
	if err != nil {
		// A cookie signed with an old secret decodes with an error but
		// still yields a fresh session.
		slog.Debug("Session cookie could not be decoded", "error", err)
	}
	if sess == nil {
		return uuid.NewString(), err
	}
	if id, ok := sess.Values[sessionValueID].(string); ok && id != "" {
		return id, nil
	}

	id := uuid.NewString()
	sess.Values[sessionValueID] = id
	return id, sess.Save(c.Request(), c.Response())
}

// SessionID returns the player session id set by Session.
func SessionID(c echo.Context) (string, bool) {
	id, ok := c.Get(SessionIDKey).(string)
	return id, ok && id != ""
}

// WithSessionID stores a session id in ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey, id)
}

// SessionIDFromContext returns the session id stored by WithSessionID.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKey).(string)
	return id, ok && id != ""
}
