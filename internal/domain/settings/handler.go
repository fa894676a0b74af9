package settings

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/httperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/settings", h.get, auth.RequireRole("doctor"))
	api.PUT("/settings", h.update, auth.RequireRole("doctor"))
}

func (h *Handler) get(c echo.Context) error {
	s, err := h.svc.Get(c.Request().Context())
	if err != nil {
		return httperr.From(err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) update(c echo.Context) error {
	var in DoctorSettings
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	s, err := h.svc.Update(c.Request().Context(), &in)
	if err != nil {
		return httperr.From(err)
	}
	return c.JSON(http.StatusOK, s)
}
