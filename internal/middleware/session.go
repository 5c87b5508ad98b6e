package middleware

import (
    "context"
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/learning-platform/internal/logging"
    "github.com/iliyamo/learning-platform/internal/model"
    "github.com/iliyamo/learning-platform/internal/service"
)

// SessionResolver maps a session cookie to its user.  *service.AuthService
// satisfies it.
type SessionResolver interface {
    CurrentUser(ctx context.Context, token string) (model.User, error)
}

// RequireSession rejects requests without a live session with 401
// {"ok":false,"error":"auth"} and otherwise stores the user on the context
// for CurrentUser.  A nil resolver means the database is not configured and
// every request gets 500 db_env.
func RequireSession(r SessionResolver, log logging.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            token := SessionToken(c)
            if token == "" {
                return unauthorized(c)
            }
            if r == nil {
                return JSONError(c, http.StatusInternalServerError, "db_env")
            }
            ctx := c.Request().Context()
            u, err := r.CurrentUser(ctx, token)
            if err != nil {
                if errors.Is(err, service.ErrUnauthenticated) {
                    return unauthorized(c)
                }
                log.Error(ctx, "session lookup failed", "err", err)
                return JSONError(c, http.StatusInternalServerError, "server")
            }
            setUser(c, u, token)
            return next(c)
        }
    }
}
