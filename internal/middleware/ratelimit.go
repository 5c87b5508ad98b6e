package middleware

import (
    "math"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/learning-platform/internal/config"
    "github.com/iliyamo/learning-platform/internal/logging"
    "github.com/iliyamo/learning-platform/internal/ratelimit"
)

// Throttle is the per-route rate limit gate shared by handlers and the
// RateLimit middleware.  A nil *Throttle allows everything.
type Throttle struct {
    Limiter ratelimit.Limiter
    Log     logging.Logger
    Debug   bool
}

// Allow counts one request for key under p and sets the X-RateLimit
// headers.  When the limiter itself fails the request is allowed and the
// error logged.
func (t *Throttle) Allow(c echo.Context, key string, p config.Policy) (ratelimit.Result, bool) {
    if t == nil || t.Limiter == nil || p.Limit <= 0 {
        return ratelimit.Result{Allowed: true}, true
    }
    ctx := c.Request().Context()
    res, err := t.Limiter.Check(ctx, key, p.Limit, p.Window)
    if err != nil {
        if t.Log != nil {
            t.Log.Warn(ctx, "rate limiter unavailable, allowing", "key", key, "err", err)
        }
        return ratelimit.Result{Allowed: true}, true
    }

    h := c.Response().Header()
    h.Set("X-RateLimit-Limit", strconv.Itoa(p.Limit))
    h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
    if t.Debug {
        h.Set("X-RateLimit-Key", key)
    }
    if !res.Allowed && t.Debug && t.Log != nil {
        t.Log.Info(ctx, "rate limited", "key", key, "retry_after", res.RetryAfter.String())
    }
    return res, res.Allowed
}

// TooManyRequests writes the 429 response for a denied Result.
func TooManyRequests(c echo.Context, res ratelimit.Result) error {
    secs := retryAfterSeconds(res.RetryAfter)
    c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
    return c.JSON(http.StatusTooManyRequests, map[string]any{
        "ok":          false,
        "error":       "rate_limited",
        "retry_after": secs,
    })
}

func retryAfterSeconds(d time.Duration) int {
    secs := int(math.Ceil(d.Seconds()))
    if secs < 1 {
        secs = 1
    }
    return secs
}

// RateLimit applies p to every request, keyed by name and the client key.
func RateLimit(t *Throttle, name string, p config.Policy) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if res, ok := t.Allow(c, name+":"+ClientKey(c), p); !ok {
                return TooManyRequests(c, res)
            }
            return next(c)
        }
    }
}
