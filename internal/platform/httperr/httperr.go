// Package httperr maps the storage error taxonomy onto HTTP statuses so
// handlers stay one-liners and no error class is silently flattened to 500.
package httperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

// From converts a repository/service error into an echo HTTP error.
func From(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, db.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, db.ErrStaleWrite):
		return echo.NewHTTPError(http.StatusConflict, "stale write: a newer version exists")
	case errors.Is(err, db.ErrStorageUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "storage unavailable, retry later")
	}

	var ce *db.ConstraintError
	if errors.As(err, &ce) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, map[string]string{
			"field": ce.Field,
			"error": ce.Reason,
		})
	}

	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}
