package sync

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/httperr"
)

// Handler exposes the sync collaborator surface: the same three calls the
// Remote client consumes, so two deployments can point at each other.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/sync", auth.RequireRole("sync"))
	g.GET("/changes", h.listChanges)
	g.POST("/records", h.upsert)
	g.POST("/tombstones", h.markDeleted)
}

func (h *Handler) listChanges(c echo.Context) error {
	since := time.Time{}
	if raw := c.QueryParam("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid since timestamp")
		}
		since = parsed
	}
	records, err := h.store.ListChangedSince(c.Request().Context(), since)
	if err != nil {
		return httperr.From(err)
	}
	if records == nil {
		records = []*Record{}
	}
	return c.JSON(http.StatusOK, records)
}

func (h *Handler) upsert(c echo.Context) error {
	var rec Record
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if !ValidEntityType(rec.EntityType) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown entity type")
	}
	if rec.ID == uuid.Nil || rec.Doc == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "record id and doc are required")
	}
	if err := h.store.Upsert(c.Request().Context(), &rec); err != nil {
		return httperr.From(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) markDeleted(c echo.Context) error {
	var req struct {
		EntityType   string    `json:"entity_type"`
		ID           uuid.UUID `json:"id"`
		LastModified time.Time `json:"last_modified"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if !ValidEntityType(req.EntityType) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown entity type")
	}
	if err := h.store.MarkDeleted(c.Request().Context(), req.EntityType, req.ID, req.LastModified); err != nil {
		return httperr.From(err)
	}
	return c.NoContent(http.StatusNoContent)
}
