package middleware

import (
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/iliyamo/learning-platform/internal/logging"
)

// RequestLogger emits one structured line per request.  Query strings are
// left out because reset flows may carry addresses in them.
func RequestLogger(log logging.Logger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogStatus:   true,
        LogMethod:   true,
        LogURIPath:  true,
        LogLatency:  true,
        LogRemoteIP: true,
        LogError:    true,
        HandleError: true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            args := []any{
                "method", v.Method,
                "path", v.URIPath,
                "status", v.Status,
                "latency_ms", v.Latency.Milliseconds(),
                "remote_ip", v.RemoteIP,
            }
            ctx := c.Request().Context()
            switch {
            case v.Error != nil:
                log.Error(ctx, "request", append(args, "err", v.Error)...)
            case v.Status >= 500:
                log.Error(ctx, "request", args...)
            case v.Status >= 400:
                log.Warn(ctx, "request", args...)
            default:
                log.Info(ctx, "request", args...)
            }
            return nil
        },
    })
}
