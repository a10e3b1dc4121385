package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/WismutNaN/resource-queue/internal/engine"
	"github.com/WismutNaN/resource-queue/internal/registry"
)

// respondError translates engine and registry failures into HTTP
// responses. Unrecognized errors become a 500 with a generic body so
// internals never leak to clients.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, engine.ErrUnknownResource):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
	case errors.Is(err, engine.ErrAlreadyHeld):
		return c.JSON(http.StatusConflict, echo.Map{"error": "resource already held"})
	case errors.Is(err, engine.ErrNotHolder),
		errors.Is(err, engine.ErrPermissionDenied):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, engine.ErrInvalidDuration),
		errors.Is(err, engine.ErrNotBooked),
		errors.Is(err, engine.ErrAlreadyQueued),
		errors.Is(err, engine.ErrNotInQueue),
		errors.Is(err, engine.ErrQueueFull),
		errors.Is(err, engine.ErrExtensionLimit),
		errors.Is(err, registry.ErrNameRequired),
		errors.Is(err, registry.ErrFull):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		c.Logger().Errorf("internal error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
