// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/WismutNaN/resource-queue/internal/config"
	"github.com/WismutNaN/resource-queue/internal/handler"
	"github.com/WismutNaN/resource-queue/internal/middleware"
)

// Deps bundles everything route registration needs. Rdb may be nil, in
// which case rate limiting and caching are disabled.
type Deps struct {
	Admin   *handler.AdminHandler
	Booking *handler.BookingHandler
	Status  *handler.StatusHandler
	Names   *middleware.NameCache
	Secret  string
	Rdb     *redis.Client
}

// Register sets up all routes. Everything except the health check sits
// behind JWT auth; resource CRUD additionally requires the admin role.
// The route layout mirrors the operations of the booking engine
// one-to-one.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(d.Secret, d.Names))

	limited := middleware.NewTokenBucket(config.LoadRateLimitConfig(), d.Rdb)
	cached := middleware.NewStatusCache(config.LoadCacheConfig(), d.Rdb)

	// Read side.
	v1.GET("/resources", d.Status.ListResources)
	v1.GET("/resources/:id", d.Status.GetResource)
	v1.GET("/status", d.Status.GetAllStatuses, cached)
	v1.GET("/status/:id", d.Status.GetStatus, cached)
	v1.GET("/resources/:id/history", d.Status.GetHistory)
	v1.GET("/presets", d.Status.GetPresets)

	// Booking operations.
	v1.POST("/resources/:id/book", d.Booking.Book, limited)
	v1.POST("/resources/:id/release", d.Booking.Release, limited)
	v1.POST("/resources/:id/extend", d.Booking.Extend, limited)
	v1.POST("/resources/:id/queue", d.Booking.JoinQueue, limited)
	v1.DELETE("/resources/:id/queue", d.Booking.LeaveQueue, limited)
	v1.POST("/resources/:id/subscribe", d.Booking.Subscribe)
	v1.POST("/resources/:id/unsubscribe", d.Booking.Unsubscribe)

	// Admin-only resource management.
	admin := v1.Group("/resources", middleware.RequireAdmin())
	admin.POST("", d.Admin.CreateResource)
	admin.PUT("/:id", d.Admin.UpdateResource)
	admin.DELETE("/:id", d.Admin.DeleteResource)
}
