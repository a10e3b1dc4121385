package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/WismutNaN/resource-queue/internal/engine"
	"github.com/WismutNaN/resource-queue/internal/middleware"
)

const maxPurposeLen = 200

// BookingHandler exposes the mutating booking operations. Identity and
// admin status come from the verified token; the permission decision
// itself lives in the engine so it is uniformly enforced.
type BookingHandler struct {
	Engine *engine.Engine
}

func NewBookingHandler(e *engine.Engine) *BookingHandler {
	if e == nil {
		panic("nil engine passed to NewBookingHandler")
	}
	return &BookingHandler{Engine: e}
}

type bookRequest struct {
	Minutes int    `json:"minutes"`
	Purpose string `json:"purpose"`
}

func clipPurpose(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxPurposeLen {
		s = s[:maxPurposeLen]
	}
	return s
}

// Book handles POST /v1/resources/:id/book.
func (h *BookingHandler) Book(c echo.Context) error {
	var body bookRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	booked, err := h.Engine.Book(c.Request().Context(), c.Param("id"), middleware.UserID(c),
		body.Minutes, clipPurpose(body.Purpose))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, booked)
}

// Release handles POST /v1/resources/:id/release. Admins may release
// anyone's reservation; everyone else only their own.
func (h *BookingHandler) Release(c echo.Context) error {
	err := h.Engine.Release(c.Request().Context(), c.Param("id"),
		middleware.UserID(c), middleware.IsAdmin(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "released"})
}

// Extend handles POST /v1/resources/:id/extend.
func (h *BookingHandler) Extend(c echo.Context) error {
	var body bookRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	extended, err := h.Engine.Extend(c.Request().Context(), c.Param("id"),
		middleware.UserID(c), body.Minutes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, extended)
}

// JoinQueue handles POST /v1/resources/:id/queue.
func (h *BookingHandler) JoinQueue(c echo.Context) error {
	var body bookRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	position, err := h.Engine.JoinQueue(c.Request().Context(), c.Param("id"),
		middleware.UserID(c), body.Minutes, clipPurpose(body.Purpose))
	if err != nil {
		return respondError(c, err)
	}
	if position == 0 {
		// Permissive policy booked the free resource outright.
		return c.JSON(http.StatusCreated, echo.Map{"status": "booked"})
	}
	return c.JSON(http.StatusOK, echo.Map{"position": position})
}

// LeaveQueue handles DELETE /v1/resources/:id/queue.
func (h *BookingHandler) LeaveQueue(c echo.Context) error {
	err := h.Engine.LeaveQueue(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "left"})
}

// Subscribe handles POST /v1/resources/:id/subscribe.
func (h *BookingHandler) Subscribe(c echo.Context) error {
	if err := h.Engine.Subscribe(c.Param("id"), middleware.UserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "subscribed"})
}

// Unsubscribe handles POST /v1/resources/:id/unsubscribe.
func (h *BookingHandler) Unsubscribe(c echo.Context) error {
	if err := h.Engine.Unsubscribe(c.Param("id"), middleware.UserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "unsubscribed"})
}
