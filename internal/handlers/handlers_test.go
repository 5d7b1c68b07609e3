package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name string `json:"name" validate:"required,max=5"`
}

func newContext(body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestBindAndValidate(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"valid", `{"name":"ok"}`, ""},
		{"missing", `{}`, "validation_failed"},
		{"too long", `{"name":"toolong"}`, "validation_failed"},
		{"malformed", `{"name":`, "invalid_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newContext(tt.body)
			var req sampleRequest
			err := BindAndValidate(c, &req)
			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}
			var he *echo.HTTPError
			require.True(t, errors.As(err, &he))
			assert.Equal(t, http.StatusBadRequest, he.Code)
			assert.Equal(t, tt.wantCode, he.Message.(ErrorResponse).Code)
		})
	}
}

func TestHealthHandler(t *testing.T) {
	c, rec := newContext("")
	h := NewHealthHandler(map[string]Check{
		"bus": func(context.Context) error { return nil },
	})
	require.NoError(t, h.HealthGet(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"bus":"ok"}}`, rec.Body.String())

	c, rec = newContext("")
	h = NewHealthHandler(map[string]Check{
		"db": func(context.Context) error { return errors.New("down") },
	})
	require.NoError(t, h.HealthGet(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"db":"down"}}`, rec.Body.String())
}
