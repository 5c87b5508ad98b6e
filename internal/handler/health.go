package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/learning-platform/internal/logging"
)

// Health is the liveness probe used by load balancers.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

type Pinger interface {
    PingContext(ctx context.Context) error
}

// DBHealth answers GET /api/db/health.  Driver errors are logged, never
// returned.
func DBHealth(db Pinger, log logging.Logger) echo.HandlerFunc {
    return func(c echo.Context) error {
        if db == nil {
            return dbEnv(c)
        }
        ctx, cancel := storeContext(c)
        defer cancel()
        if err := db.PingContext(ctx); err != nil {
            log.Error(ctx, "db health check failed", "err", err)
            return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "error": "server"})
        }
        return c.JSON(http.StatusOK, echo.Map{"ok": true})
    }
}
