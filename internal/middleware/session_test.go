package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionEcho() *echo.Echo {
	e := echo.New()
	e.Use(session.Middleware(NewSessionStore("test-secret-test-secret-32bytes!", false)))
	e.Use(Session())
	e.GET("/", func(c echo.Context) error {
		id, ok := SessionID(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		ctxID, _ := SessionIDFromContext(c.Request().Context())
		if ctxID != id {
			return c.NoContent(http.StatusConflict)
		}
		return c.String(http.StatusOK, id)
	})
	return e
}

func TestSession_MintsAndReusesID(t *testing.T) {
	e := newSessionEcho()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	first := rec.Body.String()
	_, err := uuid.Parse(first)
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, first, rec.Body.String())
}

func TestSession_HeaderOverride(t *testing.T) {
	e := newSessionEcho()
	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, id)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Body.String())
}
