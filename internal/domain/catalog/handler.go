package catalog

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/httperr"
)

type Handler struct {
	svc *Services
}

func NewHandler(svc *Services) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the drug and lab-test catalogs. Reads need the doctor
// role; catalog maintenance is admin only.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	drugs := api.Group("/drugs", auth.RequireRole("doctor"))
	drugs.GET("", h.listDrugs)
	drugs.GET("/top", h.topDrugs)
	drugs.GET("/:id", h.getDrug)
	drugs.POST("", h.createDrug, auth.RequireRole("admin"))
	drugs.PUT("/:id", h.updateDrug, auth.RequireRole("admin"))
	drugs.DELETE("/:id", h.deleteDrug, auth.RequireRole("admin"))

	tests := api.Group("/lab-tests", auth.RequireRole("doctor"))
	tests.GET("", h.listLabTests)
	tests.GET("/top", h.topLabTests)
	tests.GET("/:id", h.getLabTest)
	tests.POST("", h.createLabTest, auth.RequireRole("admin"))
	tests.PUT("/:id", h.updateLabTest, auth.RequireRole("admin"))
	tests.DELETE("/:id", h.deleteLabTest, auth.RequireRole("admin"))
}

type catalogRequest struct {
	Name string `json:"name"`
}

func (h *Handler) createDrug(c echo.Context) error {
	var req catalogRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	d := &Drug{Name: req.Name}
	if err := h.svc.Drugs.Create(c.Request().Context(), d); err != nil {
		return httperr.From(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) getDrug(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.Drugs.GetByID(c.Request().Context(), id)
	if err != nil {
		return httperr.From(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) listDrugs(c echo.Context) error {
	items, err := h.svc.Drugs.List(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return httperr.From(err)
	}
	if items == nil {
		items = []*Drug{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) topDrugs(c echo.Context) error {
	limit := intQueryParam(c, "limit")
	items, err := h.svc.Drugs.MostPrescribed(c.Request().Context(), limit)
	if err != nil {
		return httperr.From(err)
	}
	if items == nil {
		items = []*Usage{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) updateDrug(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req catalogRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	d := &Drug{ID: id, Name: req.Name}
	if err := h.svc.Drugs.Update(c.Request().Context(), d); err != nil {
		return httperr.From(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) deleteDrug(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Drugs.Delete(c.Request().Context(), id); err != nil {
		return httperr.From(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) createLabTest(c echo.Context) error {
	var req catalogRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	t := &LabTest{Name: req.Name}
	if err := h.svc.LabTests.Create(c.Request().Context(), t); err != nil {
		return httperr.From(err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) getLabTest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	t, err := h.svc.LabTests.GetByID(c.Request().Context(), id)
	if err != nil {
		return httperr.From(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) listLabTests(c echo.Context) error {
	items, err := h.svc.LabTests.List(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return httperr.From(err)
	}
	if items == nil {
		items = []*LabTest{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) topLabTests(c echo.Context) error {
	limit := intQueryParam(c, "limit")
	items, err := h.svc.LabTests.MostOrdered(c.Request().Context(), limit)
	if err != nil {
		return httperr.From(err)
	}
	if items == nil {
		items = []*Usage{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) updateLabTest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req catalogRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	t := &LabTest{ID: id, Name: req.Name}
	if err := h.svc.LabTests.Update(c.Request().Context(), t); err != nil {
		return httperr.From(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) deleteLabTest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.LabTests.Delete(c.Request().Context(), id); err != nil {
		return httperr.From(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func intQueryParam(c echo.Context, name string) int {
	n, _ := strconv.Atoi(c.QueryParam(name))
	return n
}
