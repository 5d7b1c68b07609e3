package announcer

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/announcer/internal/commentary"
	"github.com/nfrund/announcer/internal/handlers"
	"github.com/nfrund/announcer/internal/middleware"
	"github.com/nfrund/announcer/internal/modules/announcer/events"
	"github.com/nfrund/announcer/internal/phrasepack"
	"github.com/nfrund/announcer/internal/rendering"
)

var validate = validator.New()

const maxPackUpload = 1 << 20

// Handler holds the HTTP handlers of the announcer module.
type Handler struct {
	service      *Service
	renderer     rendering.Renderer
	packs        *phrasepack.Loader
	historyLimit int
	basepath     string
}

// NewHandler creates the handler. packs may be nil when no phrase pack path
// is configured.
func NewHandler(service *Service, renderer rendering.Renderer, packs *phrasepack.Loader, historyLimit int, basepath string) *Handler {
	return &Handler{
		service:      service,
		renderer:     renderer,
		packs:        packs,
		historyLimit: historyLimit,
		basepath:     basepath,
	}
}

// Register mounts the routes on g. write is applied to state-changing routes.
func (h *Handler) Register(g *echo.Group, write ...echo.MiddlewareFunc) {
	g.GET("", h.PageGet)
	g.GET("/state", h.StateGet)
	g.GET("/history", h.HistoryGet)
	g.GET("/catalog", h.CatalogGet)
	g.GET("/priorities", h.PrioritiesGet)
	g.GET("/phrasepack", h.PhrasePackGet)

	g.POST("/events", h.EventsPost, write...)
	g.PUT("/settings", h.SettingsPut, write...)
	g.POST("/speech/ended", h.SpeechEndedPost, write...)
	g.POST("/speech/voices", h.SpeechVoicesPost, write...)
	g.PUT("/phrasepack", h.PhrasePackPut, write...)
}

func sessionID(c echo.Context) (string, error) {
	id, ok := middleware.SessionID(c)
	if !ok {
		return "", handlers.NewHTTPError(http.StatusUnauthorized, "no_session", "request carries no player session")
	}
	return id, nil
}

// PageGet renders the commentary panel.
func (h *Handler) PageGet(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	st, err := h.service.State(id)
	if err != nil {
		return err
	}
	return h.renderer.RenderPage(c, http.StatusOK, Page(PanelData{
		SessionID: id,
		Text:      st.Text,
		State:     st.State,
		Voices:    st.Voices,
		Basepath:  h.basepath,
	}))
}

// EventsPost announces one game event and returns the record.
func (h *Handler) EventsPost(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	var ev events.GameEvent
	if err := handlers.BindAndValidate(c, &ev); err != nil {
		return err
	}
	rec, err := h.service.Announce(c.Request().Context(), id, ev)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

// SettingsPut changes style and/or voice preference.
func (h *Handler) SettingsPut(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	var u events.SettingsUpdate
	if err := handlers.BindAndValidate(c, &u); err != nil {
		return err
	}
	st, err := h.service.UpdateSettings(id, u)
	if errors.Is(err, commentary.ErrUnknownStyle) {
		return handlers.NewHTTPError(http.StatusBadRequest, "unknown_style", err.Error())
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

// SpeechEndedPost resolves a completion ack. Stale tokens are accepted and
// reported with "resolved": false.
func (h *Handler) SpeechEndedPost(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	var ev events.SpeechEnded
	if err := handlers.BindAndValidate(c, &ev); err != nil {
		return err
	}
	resolved, err := h.service.SpeechEnded(id, ev.Token)
	if errors.Is(err, ErrSessionNotFound) {
		return handlers.NewHTTPError(http.StatusNotFound, "session_not_found", err.Error())
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"resolved": resolved})
}

// SpeechVoicesPost records speech support and voices.
func (h *Handler) SpeechVoicesPost(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	var v events.SpeechVoices
	if err := handlers.BindAndValidate(c, &v); err != nil {
		return err
	}
	if err := h.service.SetVoices(id, v); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// StateGet returns the session's arbitration state.
func (h *Handler) StateGet(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	st, err := h.service.State(id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

// HistoryGet returns the newest records, newest first. ?limit= caps the
// count at the configured history limit.
func (h *Handler) HistoryGet(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	limit := h.historyLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return handlers.NewHTTPError(http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
		}
		if n < limit {
			limit = n
		}
	}
	recs, err := h.service.History(c.Request().Context(), id, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, recs)
}

// CatalogGet exports the catalog in phrase pack form.
func (h *Handler) CatalogGet(c echo.Context) error {
	pack := phrasepack.Export(h.service.Classifier().Catalog())
	if c.QueryParam("format") == "yaml" {
		data, err := pack.Marshal()
		if err != nil {
			return err
		}
		return c.Blob(http.StatusOK, "application/yaml", data)
	}
	return c.JSON(http.StatusOK, pack)
}

// PrioritiesGet lists the priority table.
func (h *Handler) PrioritiesGet(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Classifier().Priorities().Entries())
}

// PhrasePackGet reports the phrase pack status.
func (h *Handler) PhrasePackGet(c echo.Context) error {
	if h.packs == nil {
		return handlers.NewHTTPError(http.StatusNotFound, "phrasepack_disabled", "no phrase pack path configured")
	}
	return c.JSON(http.StatusOK, h.packs.Status())
}

// PhrasePackPut replaces the phrase pack with the YAML request body.
func (h *Handler) PhrasePackPut(c echo.Context) error {
	if h.packs == nil {
		return handlers.NewHTTPError(http.StatusNotFound, "phrasepack_disabled", "no phrase pack path configured")
	}
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxPackUpload+1))
	if err != nil {
		return handlers.NewHTTPError(http.StatusBadRequest, "invalid_request", "could not read body")
	}
	if err := h.packs.Save(c.Request().Context(), data); err != nil {
		if errors.Is(err, phrasepack.ErrInvalidPack) {
			return handlers.NewHTTPError(http.StatusUnprocessableEntity, "invalid_phrasepack", err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, h.packs.Status())
}
