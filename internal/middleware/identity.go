package middleware

// identity.go holds the helpers shared across middleware and handlers:
// pulling the authenticated identity out of the Echo context and the
// display-name cache fed by verified tokens.

import (
	"sync"

	"github.com/labstack/echo/v4"
)

// AdminRole is the role claim value that grants admin operations.
const AdminRole = "ADMIN"

// UserID returns the authenticated user id, or "" when the request is
// unauthenticated.
func UserID(c echo.Context) string {
	if v, ok := c.Get("user_id").(string); ok {
		return v
	}
	return ""
}

// IsAdmin reports whether the request carries the admin role claim.
func IsAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == AdminRole
}

// NameCache remembers the display names seen in verified tokens so
// status views can show names instead of raw ids. It implements the
// engine's NameResolver.
type NameCache struct {
	mu    sync.RWMutex
	names map[string]string
}

func NewNameCache() *NameCache {
	return &NameCache{names: make(map[string]string)}
}

func (n *NameCache) Put(userID, name string) {
	n.mu.Lock()
	n.names[userID] = name
	n.mu.Unlock()
}

// DisplayName returns the cached name, or "" when the id has never been
// seen; callers fall back to the raw id.
func (n *NameCache) DisplayName(userID string) string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.names[userID]
}
