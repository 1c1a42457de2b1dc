package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/sportfield-booking/internal/handler"    // handlers that implement each endpoint
	"github.com/iliyamo/sportfield-booking/internal/middleware" // JWT authentication, roles, caching and rate limiting
)

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Ready  *handler.ReadyHandler
	Fields *handler.FieldHandler
	Views  *handler.ViewHandler
}

// Middlewares are built by the caller because they need Redis and config.
// Either may be nil.
type Middlewares struct {
	Cache     echo.MiddlewareFunc
	RateLimit echo.MiddlewareFunc
}

// RegisterRoutes registers every endpoint on the provided Echo instance.
//
// Unauthenticated:
//
//	GET  /healthz
//	GET  /readyz
//	GET  /v1/branches/:id
//	GET  /v1/branches/:id/fields
//	GET  /v1/fields/:id
//
// Authenticated (any booking role):
//
//	POST   /v1/views
//	GET    /v1/views/:id
//	PUT    /v1/views/:id/pair
//	POST   /v1/views/:id/clicks
//	POST   /v1/views/:id/refresh
//	POST   /v1/views/:id/bookings
//	DELETE /v1/views/:id
func RegisterRoutes(e *echo.Echo, h Handlers, m Middlewares, jwtSecret string) {
	// Liveness for load balancers; readiness also pings MySQL and Redis.
	e.GET("/healthz", handler.Health)
	if h.Ready != nil {
		e.GET("/readyz", h.Ready.Ready)
	}

	// The branch and field catalog changes rarely, so it goes through the response cache.
	if h.Fields != nil {
		var mws []echo.MiddlewareFunc
		if m.Cache != nil {
			mws = append(mws, m.Cache)
		}
		e.GET("/v1/branches/:id", h.Fields.GetBranch, mws...)
		e.GET("/v1/branches/:id/fields", h.Fields.ListByBranch, mws...)
		e.GET("/v1/fields/:id", h.Fields.GetField, mws...)
	}

	if h.Views == nil {
		return
	}
	g := e.Group("/v1/views",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleUser, middleware.RoleBranchAdmin, middleware.RoleOwner, middleware.RoleSuperAdmin),
	)
	// Clicks are cheap but frequent; the limiter runs after auth so buckets
	// are keyed per user.
	if m.RateLimit != nil {
		g.Use(m.RateLimit)
	}
	g.POST("", h.Views.Create)
	g.GET("/:id", h.Views.Get)
	g.PUT("/:id/pair", h.Views.SetPair)
	g.POST("/:id/clicks", h.Views.Click)
	g.POST("/:id/refresh", h.Views.Refresh)
	g.POST("/:id/bookings", h.Views.Book)
	g.DELETE("/:id", h.Views.Delete)
}
