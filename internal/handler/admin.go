package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/WismutNaN/resource-queue/internal/engine"
	"github.com/WismutNaN/resource-queue/internal/middleware"
	"github.com/WismutNaN/resource-queue/internal/model"
)

// AdminHandler implements the resource CRUD surface. Routes using it are
// wrapped in RequireAdmin, so handlers only deal with the happy path and
// engine errors.
type AdminHandler struct {
	Engine *engine.Engine
}

func NewAdminHandler(e *engine.Engine) *AdminHandler {
	if e == nil {
		panic("nil engine passed to NewAdminHandler")
	}
	return &AdminHandler{Engine: e}
}

type resourceRequest struct {
	Name        string            `json:"name"`
	Address     string            `json:"address"`
	Icon        string            `json:"icon"`
	Description string            `json:"description"`
	Attributes  map[string]string `json:"attributes"`
}

// CreateResource handles POST /v1/resources.
func (h *AdminHandler) CreateResource(c echo.Context) error {
	var body resourceRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	created, err := h.Engine.CreateResource(c.Request().Context(), model.Resource{
		Name:        body.Name,
		Address:     body.Address,
		Icon:        body.Icon,
		Description: body.Description,
		Attributes:  body.Attributes,
		CreatedBy:   middleware.UserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// UpdateResource handles PUT /v1/resources/:id.
func (h *AdminHandler) UpdateResource(c echo.Context) error {
	var body resourceRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	updated, err := h.Engine.UpdateResource(c.Request().Context(), c.Param("id"), model.Resource{
		Name:        body.Name,
		Address:     body.Address,
		Icon:        body.Icon,
		Description: body.Description,
		Attributes:  body.Attributes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteResource handles DELETE /v1/resources/:id. The engine cascades:
// ledger board, subscriptions, and (policy permitting) history go with
// the record.
func (h *AdminHandler) DeleteResource(c echo.Context) error {
	if err := h.Engine.DeleteResource(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "deleted"})
}
