// Package router assembles the Echo server: global middleware, the route
// guard and every endpoint.
package router

import (
    "expvar"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/iliyamo/learning-platform/internal/config"
    "github.com/iliyamo/learning-platform/internal/handler"
    "github.com/iliyamo/learning-platform/internal/logging"
    mw "github.com/iliyamo/learning-platform/internal/middleware"
)

// Deps carries what the routes need.  The store fields are nil when the
// database is not configured; the affected endpoints then answer db_env.
// Callers must leave them nil rather than pass typed nil pointers.
type Deps struct {
    Log        logging.Logger
    Production bool

    Accounts handler.Accounts
    Sessions mw.SessionResolver
    Profiles handler.ProfileStore
    Progress handler.ProgressStore
    Users    handler.UserDirectory
    DB       handler.Pinger

    Throttle        *mw.Throttle
    Limits          config.RateLimitConfig
    Cache           echo.MiddlewareFunc
    ExposeResetCode bool
    StaticDir       string
}

// New builds the server.
func New(d Deps) *echo.Echo {
    e := echo.New()
    e.HideBanner = true
    e.HidePort = true

    e.Use(echomw.Recover())
    e.Use(mw.RequestLogger(d.Log))
    e.Use(mw.Guard(mw.GuardConfig{Production: d.Production, Resolver: d.Sessions, Log: d.Log}))
    e.Use(echomw.BodyLimit("1M"))

    Register(e, d)

    if d.StaticDir != "" {
        e.Static("/", d.StaticDir)
    }
    return e
}

// Register maps every endpoint onto e.
func Register(e *echo.Echo, d Deps) {
    csrf := mw.CSRF()
    session := mw.RequireSession(d.Sessions, d.Log)
    cache := d.Cache
    if cache == nil {
        cache = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }

    e.GET("/healthz", handler.Health)
    e.GET("/debug/vars", echo.WrapHandler(expvar.Handler()))
    e.GET("/api/db/health", handler.DBHealth(d.DB, d.Log))

    auth := &handler.AuthHandler{
        Accounts:        d.Accounts,
        Throttle:        d.Throttle,
        Limits:          d.Limits,
        Cookies:         handler.Cookies{Secure: d.Production},
        ExposeResetCode: d.ExposeResetCode,
        Log:             d.Log,
    }
    a := e.Group("/auth")
    a.POST("/signup", auth.Signup, csrf)
    a.POST("/signin", auth.Signin, csrf)
    a.POST("/signout", auth.Signout, csrf)
    a.POST("/forgot", auth.Forgot, csrf)
    a.POST("/reset", auth.Reset, csrf)
    a.GET("/me", auth.Me)

    e.POST("/account/settings", auth.Settings, csrf, session)
    e.POST("/api/account/settings", auth.Settings, csrf, session)

    profiles := &handler.ProfileHandler{Profiles: d.Profiles, Log: d.Log}
    e.GET("/api/account/profile", profiles.Get, session)
    e.POST("/api/account/profile", profiles.Update, csrf, session)

    progress := &handler.ProgressHandler{Progress: d.Progress, Sessions: d.Sessions, Log: d.Log}
    e.GET("/api/track/progress", progress.List)
    e.POST("/api/track/progress", progress.Set, csrf, session)

    e.POST("/api/tutor", handler.Tutor, mw.RateLimit(d.Throttle, "tutor", d.Limits.Tutor))

    users := &handler.UsersHandler{Users: d.Users, Log: d.Log}
    e.GET("/api/users", users.Lookup, session, cache)
}
