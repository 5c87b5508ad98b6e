package middleware

// identity.go holds the request identity helpers shared by the middleware
// and the handlers: the client key used for rate limiting and the signed-in
// user stored on the Echo context by RequireSession.

import (
    "net"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/learning-platform/internal/model"
)

const (
    SessionCookie = "session"

    ctxUserKey  = "user"
    ctxTokenKey = "session_token"
)

// clientIPHeaders are consulted in order; the first non-empty value wins.
var clientIPHeaders = []string{
    "X-Forwarded-For",
    "X-Real-IP",
    "CF-Connecting-IP",
    "Fastly-Client-IP",
    "X-Client-IP",
}

// ClientKey identifies the caller for rate limiting.  It returns "anon"
// when nothing usable is present.
func ClientKey(c echo.Context) string {
    h := c.Request().Header
    for _, name := range clientIPHeaders {
        v := h.Get(name)
        if v == "" {
            continue
        }
        if name == "X-Forwarded-For" {
            v, _, _ = strings.Cut(v, ",")
        }
        if v = strings.TrimSpace(v); v != "" {
            return v
        }
    }
    if ip := c.RealIP(); ip != "" {
        if host, _, err := net.SplitHostPort(ip); err == nil {
            return host
        }
        return ip
    }
    return "anon"
}

// SessionToken returns the raw session cookie value, or "".
func SessionToken(c echo.Context) string {
    ck, err := c.Cookie(SessionCookie)
    if err != nil {
        return ""
    }
    return ck.Value
}

func setUser(c echo.Context, u model.User, token string) {
    c.Set(ctxUserKey, u)
    c.Set(ctxTokenKey, token)
}

// CurrentUser returns the user placed on the context by RequireSession.
func CurrentUser(c echo.Context) (model.User, bool) {
    u, ok := c.Get(ctxUserKey).(model.User)
    return u, ok && u.ID != ""
}

// CurrentToken returns the session token that authenticated the request.
func CurrentToken(c echo.Context) string {
    s, _ := c.Get(ctxTokenKey).(string)
    return s
}
