// Package handler holds the HTTP endpoints.  Handlers parse and validate
// input, apply rate limits and translate service errors into the uniform
// {"ok":false,"error":code} body; the workflows live in package service.
package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    mw "github.com/iliyamo/learning-platform/internal/middleware"
    "github.com/iliyamo/learning-platform/internal/logging"
    "github.com/iliyamo/learning-platform/internal/service"
)

// storeTimeout bounds every request's store work.
const storeTimeout = 5 * time.Second

func storeContext(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), storeTimeout)
}

// writeError maps service errors to status codes.  Anything unrecognised is
// logged and answered with a bare "server" code.
func writeError(c echo.Context, log logging.Logger, err error) error {
    var ve *service.ValidationError
    switch {
    case errors.As(err, &ve):
        if ve.Reason == "weak_password" {
            return mw.JSONError(c, http.StatusBadRequest, "weak_password")
        }
        if ve.Field == "code" {
            return mw.JSONError(c, http.StatusBadRequest, "invalid_code")
        }
        return mw.JSONError(c, http.StatusBadRequest, "invalid")
    case errors.Is(err, service.ErrInvalidCredentials):
        return mw.JSONError(c, http.StatusUnauthorized, "invalid_credentials")
    case errors.Is(err, service.ErrUnauthenticated):
        return mw.JSONError(c, http.StatusUnauthorized, "auth")
    case errors.Is(err, service.ErrConflict):
        return mw.JSONError(c, http.StatusConflict, "exists")
    case errors.Is(err, service.ErrInvalidOrExpired):
        return mw.JSONError(c, http.StatusBadRequest, "invalid_code")
    case errors.Is(err, service.ErrWrongPassword):
        return mw.JSONError(c, http.StatusBadRequest, "wrong_password")
    case errors.Is(err, service.ErrDBUnavailable):
        return dbEnv(c)
    }
    log.Error(c.Request().Context(), "request failed", "path", c.Path(), "err", err)
    return mw.JSONError(c, http.StatusInternalServerError, "server")
}

func dbEnv(c echo.Context) error {
    return mw.JSONError(c, http.StatusInternalServerError, "db_env")
}

func badRequest(c echo.Context) error {
    return mw.JSONError(c, http.StatusBadRequest, "invalid")
}

// bind decodes the JSON body into v.  An empty body leaves v zero.
func bind(c echo.Context, v any) error {
    return (&echo.DefaultBinder{}).BindBody(c, v)
}

// Cookies sets and clears the session cookie.
type Cookies struct {
    Secure bool
}

func (k Cookies) setSession(c echo.Context, s service.IssuedSession) {
    c.SetCookie(&http.Cookie{
        Name:     mw.SessionCookie,
        Value:    s.Token,
        Path:     "/",
        Expires:  s.ExpiresAt,
        HttpOnly: true,
        Secure:   k.Secure,
        SameSite: http.SameSiteLaxMode,
    })
}

func (k Cookies) clearSession(c echo.Context) {
    c.SetCookie(&http.Cookie{
        Name:     mw.SessionCookie,
        Value:    "",
        Path:     "/",
        Expires:  time.Unix(0, 0),
        MaxAge:   -1,
        HttpOnly: true,
        Secure:   k.Secure,
        SameSite: http.SameSiteLaxMode,
    })
}
