// Package middleware provides the HTTP request plumbing: identity
// extraction from host-issued tokens, admin gating, rate limiting and
// response caching.
package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// JWTAuth validates a Bearer token and injects the subject, display name
// and role claims into the request context. The host that embeds this
// service issues the tokens; we only verify them. When a names cache is
// given, each verified token also refreshes the id -> display name
// mapping used by status views.
func JWTAuth(secret string, names *NameCache) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			sub, _ := claims["sub"].(string)
			if sub == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing subject"})
			}

			c.Set("user_id", sub)
			c.Set("role", claims["role"])
			if name, _ := claims["name"].(string); name != "" {
				c.Set("user_name", name)
				if names != nil {
					names.Put(sub, name)
				}
			}
			return next(c)
		}
	}
}
