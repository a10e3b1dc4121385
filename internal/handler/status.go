package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/WismutNaN/resource-queue/internal/engine"
	"github.com/WismutNaN/resource-queue/internal/middleware"
	"github.com/WismutNaN/resource-queue/internal/model"
)

// StatusHandler serves the read side: projections, history, presets and
// the resource listing. It never mutates engine state.
type StatusHandler struct {
	Engine  *engine.Engine
	Names   *middleware.NameCache
	Presets []model.DurationPreset
}

func NewStatusHandler(e *engine.Engine, names *middleware.NameCache, presets []model.DurationPreset) *StatusHandler {
	if e == nil {
		panic("nil engine passed to NewStatusHandler")
	}
	return &StatusHandler{Engine: e, Names: names, Presets: presets}
}

// ListResources handles GET /v1/resources.
func (h *StatusHandler) ListResources(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Engine.Resources())
}

// GetResource handles GET /v1/resources/:id.
func (h *StatusHandler) GetResource(c echo.Context) error {
	res, err := h.Engine.Resource(c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// GetStatus handles GET /v1/status/:id.
func (h *StatusHandler) GetStatus(c echo.Context) error {
	status, err := h.Engine.Status(c.Param("id"), middleware.UserID(c), h.Names)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

// GetAllStatuses handles GET /v1/status.
func (h *StatusHandler) GetAllStatuses(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id":  middleware.UserID(c),
		"is_admin": middleware.IsAdmin(c),
		"statuses": h.Engine.AllStatuses(middleware.UserID(c), h.Names),
	})
}

// GetHistory handles GET /v1/resources/:id/history?limit=N. It accepts
// ids of deleted resources so retained history stays reachable.
func (h *StatusHandler) GetHistory(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = n
	}
	entries, err := h.Engine.History(c.Request().Context(), c.Param("id"), limit)
	if err != nil {
		return respondError(c, err)
	}
	views := make([]model.HistoryView, 0, len(entries))
	for _, e := range entries {
		name := e.HolderID
		if h.Names != nil {
			if n := h.Names.DisplayName(e.HolderID); n != "" {
				name = n
			}
		}
		views = append(views, model.HistoryView{HistoryEntry: e, HolderName: name})
	}
	return c.JSON(http.StatusOK, views)
}

// GetPresets handles GET /v1/presets.
func (h *StatusHandler) GetPresets(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Presets)
}
