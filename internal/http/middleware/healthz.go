package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	HealthPath = "/healthz"

	healthCheckTimeout = 2 * time.Second

	jsonKeyStatus = "status"
	statusOK      = "ok"
	statusDown    = "unavailable"
)

// Pinger is satisfied by both identity stores.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Healthz answers GET /healthz before routing and authentication so probes
// never depend on credentials. It reports 503 when the store is unreachable.
func Healthz(store Pinger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.URL.Path != HealthPath || req.Method != http.MethodGet {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
			defer cancel()

			if store != nil {
				if err := store.Ping(ctx); err != nil {
					return c.JSON(http.StatusServiceUnavailable, map[string]string{jsonKeyStatus: statusDown})
				}
			}

			return c.JSON(http.StatusOK, map[string]string{jsonKeyStatus: statusOK})
		}
	}
}
