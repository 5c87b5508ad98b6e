package middleware

import (
    "errors"
    "expvar"
    "fmt"
    "net/http"
    "net/url"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/learning-platform/internal/logging"
    "github.com/iliyamo/learning-platform/internal/service"
)

// GuardFailOpen counts requests the guard let through because its own
// decision logic failed.  Published at /debug/vars.
var GuardFailOpen = expvar.NewInt("guard_fail_open_total")

// DefaultProtectedPrefixes are the page trees that need a signed-in user.
var DefaultProtectedPrefixes = []string{
    "/dashboard",
    "/onboarding",
    "/tutor",
    "/track",
    "/project/submit",
    "/account",
}

var assetPrefixes = []string{"/static/", "/assets/", "/_next/"}
var assetFiles = map[string]bool{"/favicon.ico": true, "/robots.txt": true, "/sitemap.xml": true}

type GuardConfig struct {
    Production bool
    // Resolver validates session cookies.  When nil only the presence of the
    // cookie is checked.
    Resolver   SessionResolver
    Log        logging.Logger
    Protected  []string
    SignInPath string
}

// Guard is the edge middleware in front of every route.  It sets the
// security headers, makes sure a CSRF cookie exists and sends anonymous
// page navigations under a protected prefix to the sign-in page with a
// next parameter.  Only GET and HEAD are redirected; API calls under the
// same prefixes reach their handler, which answers 401.
//
// When the guard's own logic fails (store error, panic) the request is
// passed through unmodified, logged and counted in GuardFailOpen.  Handlers
// behind it still enforce authentication for data access.
func Guard(cfg GuardConfig) echo.MiddlewareFunc {
    if cfg.Protected == nil {
        cfg.Protected = DefaultProtectedPrefixes
    }
    if cfg.SignInPath == "" {
        cfg.SignInPath = "/signin"
    }
    csp := contentSecurityPolicy(cfg.Production)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            setSecurityHeaders(c.Response().Header(), csp, cfg.Production)
            if isAsset(c.Request().URL.Path) {
                return next(c)
            }

            redirect, err := cfg.decide(c)
            if err != nil {
                GuardFailOpen.Add(1)
                if cfg.Log != nil {
                    cfg.Log.Error(c.Request().Context(), "route guard failed open", "path", c.Request().URL.Path, "err", err)
                }
                return next(c)
            }
            if redirect != "" {
                return c.Redirect(http.StatusFound, redirect)
            }
            return next(c)
        }
    }
}

// decide returns the redirect target, "" to continue, or an error when the
// guard could not reach a decision.  Panics are converted to errors.
func (cfg GuardConfig) decide(c echo.Context) (redirect string, err error) {
    defer func() {
        if r := recover(); r != nil {
            redirect, err = "", fmt.Errorf("guard panic: %v", r)
        }
    }()

    if ck, cerr := c.Cookie(CSRFCookie); cerr != nil || ck.Value == "" {
        fresh, err := newCSRFCookie(cfg.Production)
        if err != nil {
            return "", fmt.Errorf("mint csrf token: %w", err)
        }
        c.SetCookie(fresh)
    }

    r := c.Request()
    if r.Method != http.MethodGet && r.Method != http.MethodHead {
        return "", nil
    }
    if !cfg.isProtected(r.URL.Path) {
        return "", nil
    }

    target := cfg.SignInPath + "?next=" + url.QueryEscape(r.URL.Path)
    token := SessionToken(c)
    if token == "" {
        return target, nil
    }
    if cfg.Resolver == nil {
        return "", nil
    }
    if _, err := cfg.Resolver.CurrentUser(r.Context(), token); err != nil {
        if errors.Is(err, service.ErrUnauthenticated) {
            return target, nil
        }
        return "", err
    }
    return "", nil
}

func (cfg GuardConfig) isProtected(path string) bool {
    for _, p := range cfg.Protected {
        if path == p || strings.HasPrefix(path, p+"/") {
            return true
        }
    }
    return false
}

func isAsset(path string) bool {
    if assetFiles[path] {
        return true
    }
    for _, p := range assetPrefixes {
        if strings.HasPrefix(path, p) {
            return true
        }
    }
    return false
}

func contentSecurityPolicy(production bool) string {
    script := "script-src 'self' 'unsafe-eval' 'unsafe-inline'"
    connect := "connect-src 'self' http://localhost:3000"
    if production {
        script = "script-src 'self'"
        connect = "connect-src 'self' https:"
    }
    parts := []string{
        "default-src 'self'",
        "base-uri 'self'",
        "img-src 'self' data: blob:",
        "style-src 'self' 'unsafe-inline'",
        script,
        connect,
        "font-src 'self' data:",
        "frame-ancestors 'none'",
    }
    if production {
        parts = append(parts, "upgrade-insecure-requests")
    }
    return strings.Join(parts, "; ")
}

func setSecurityHeaders(h http.Header, csp string, production bool) {
    h.Set("Content-Security-Policy", csp)
    h.Set("X-Frame-Options", "DENY")
    h.Set("X-Content-Type-Options", "nosniff")
    h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
    h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
    h.Set("Cross-Origin-Opener-Policy", "same-origin")
    h.Set("Cross-Origin-Resource-Policy", "same-origin")
    if production {
        h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
    }
}
