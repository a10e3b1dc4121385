package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireAdmin rejects requests whose verified role claim is not ADMIN.
// It assumes JWTAuth already ran and stored the role in the context.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !IsAdmin(c) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "admin only"})
			}
			return next(c)
		}
	}
}
