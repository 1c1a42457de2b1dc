package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"database/sql"
	"net/http" // net/http provides status codes and response helpers
	"time"

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
	"github.com/redis/go-redis/v9"
)

// Health is a simple liveness endpoint used by load balancers and
// monitoring systems to verify that the process is running.  It returns a
// plain text "ok" message with an HTTP 200 status code.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// ReadyHandler reports whether the dependencies are reachable.  Redis is
// optional: without it the service still works, only without realtime
// pushes, so it is reported but never fails readiness.
type ReadyHandler struct {
	DB    *sql.DB
	Redis *redis.Client
}

// Ready handles GET /readyz.
func (h *ReadyHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	out := echo.Map{"database": "ok", "redis": "disabled"}
	status := http.StatusOK
	if h.DB == nil {
		out["database"] = "missing"
		status = http.StatusServiceUnavailable
	} else if err := h.DB.PingContext(ctx); err != nil {
		out["database"] = "down"
		status = http.StatusServiceUnavailable
	}
	if h.Redis != nil {
		out["redis"] = "ok"
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			out["redis"] = "down"
		}
	}
	return c.JSON(status, out)
}
