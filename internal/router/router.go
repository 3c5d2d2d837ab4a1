// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/cinepass/boxoffice/internal/config"
	"github.com/cinepass/boxoffice/internal/handler"
	"github.com/cinepass/boxoffice/internal/metrics"
	"github.com/cinepass/boxoffice/internal/middleware"
)

// Deps carries everything the routes need.
type Deps struct {
	Booking   *handler.BookingHandler
	Query     *handler.QueryHandler
	Admin     *handler.AdminHandler
	Metrics   *metrics.Metrics
	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	JWTSecret string
}

// Register mounts all routes on the echo instance.
//
// Unauthenticated: health, metrics and the public browse endpoints.
// Authenticated: the booking commands and per-user history, with rate
// limiting on the mutating routes.
func Register(e *echo.Echo, d Deps) {
	e.Use(middleware.Prometheus(d.Metrics))

	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.GET("/v1/screenings", d.Query.ListScreenings)
	e.GET("/v1/screenings/:id/seats", d.Query.Availability)

	authed := e.Group("/v1")
	authed.Use(middleware.JWTAuth(d.JWTSecret))

	limited := authed.Group("")
	limited.Use(middleware.RateLimit(d.RateLimit, d.Redis))
	limited.POST("/screenings/:id/hold", d.Booking.Hold)
	limited.POST("/reservations/:id/confirm", d.Booking.Confirm)

	authed.GET("/my/reservations", d.Query.MyReservations)
	authed.GET("/my/purchases", d.Query.MyPurchases)

	authed.POST("/admin/screenings", d.Admin.CreateScreening)
}
