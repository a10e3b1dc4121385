package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func cacheKeyFor(target, userID string) string {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	// Simulate the route match JWTAuth normally precedes.
	c.SetPath("/v1/status/:id")
	c.Set("user_id", userID)
	return cacheKey("cache", c)
}

func TestCacheKeyDistinguishesResources(t *testing.T) {
	// Two resources behind the same route template must never share an
	// entry, or one user's view of resource A gets served for B.
	keyA := cacheKeyFor("/v1/status/resourceA", "u1")
	keyB := cacheKeyFor("/v1/status/resourceB", "u1")
	assert.NotEqual(t, keyA, keyB)

	// Same concrete request, same caller: stable key.
	assert.Equal(t, keyA, cacheKeyFor("/v1/status/resourceA", "u1"))
}

func TestCacheKeyDistinguishesCallersAndQueries(t *testing.T) {
	keyU1 := cacheKeyFor("/v1/status/resourceA", "u1")
	keyU2 := cacheKeyFor("/v1/status/resourceA", "u2")
	assert.NotEqual(t, keyU1, keyU2)

	plain := cacheKeyFor("/v1/status", "u1")
	filtered := cacheKeyFor("/v1/status?verbose=1", "u1")
	assert.NotEqual(t, plain, filtered)
}
