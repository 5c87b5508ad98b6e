package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/learning-platform/internal/config"
    mw "github.com/iliyamo/learning-platform/internal/middleware"
    "github.com/iliyamo/learning-platform/internal/logging"
    "github.com/iliyamo/learning-platform/internal/model"
    "github.com/iliyamo/learning-platform/internal/repository"
    "github.com/iliyamo/learning-platform/internal/service"
)

// Accounts is the account workflow surface.  *service.AuthService
// implements it.
type Accounts interface {
    Signup(ctx context.Context, in service.SignupInput) (model.User, service.IssuedSession, error)
    Signin(ctx context.Context, email, password, ip string) (model.User, service.IssuedSession, error)
    Signout(ctx context.Context, token, ip string) error
    CurrentUser(ctx context.Context, token string) (model.User, error)
    RequestReset(ctx context.Context, email, ip string) (string, error)
    ConsumeReset(ctx context.Context, in service.ResetInput) (service.IssuedSession, error)
    ChangePassword(ctx context.Context, in service.ChangePasswordInput) error
}

// AuthHandler serves /auth/* and the password settings endpoint.  A nil
// Accounts means the database is not configured: endpoints that need it
// answer 500 db_env after input validation.
type AuthHandler struct {
    Accounts        Accounts
    Throttle        *mw.Throttle
    Limits          config.RateLimitConfig
    Cookies         Cookies
    ExposeResetCode bool
    Log             logging.Logger
}

type signupReq struct {
    Email    string  `json:"email"`
    Password string  `json:"password"`
    Name     *string `json:"name"`
}

type credentialsReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}

type forgotReq struct {
    Email string `json:"email"`
}

type resetReq struct {
    Email       string `json:"email"`
    Code        string `json:"code"`
    NewPassword string `json:"newPassword"`
    Password    string `json:"password"`
}

type settingsReq struct {
    CurrentPassword string `json:"currentPassword"`
    NewPassword     string `json:"newPassword"`
}

type userView struct {
    ID        string    `json:"id"`
    Email     string    `json:"email"`
    Name      *string   `json:"name"`
    CreatedAt time.Time `json:"created_at"`
}

func viewOf(u model.User) userView {
    return userView{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}

// Signup: POST /auth/signup
func (h *AuthHandler) Signup(c echo.Context) error {
    ip := mw.ClientKey(c)
    if res, ok := h.Throttle.Allow(c, "signup:"+ip, h.Limits.Signup); !ok {
        return mw.TooManyRequests(c, res)
    }
    var req signupReq
    if err := bind(c, &req); err != nil {
        return badRequest(c)
    }
    if _, err := service.ValidateEmail(req.Email); err != nil {
        return writeError(c, h.Log, err)
    }
    if err := service.ValidatePassword("password", req.Password); err != nil {
        return writeError(c, h.Log, err)
    }
    if _, err := service.NormalizeName(req.Name); err != nil {
        return writeError(c, h.Log, err)
    }
    if h.Accounts == nil {
        return dbEnv(c)
    }

    ctx, cancel := storeContext(c)
    defer cancel()
    u, sess, err := h.Accounts.Signup(ctx, service.SignupInput{Email: req.Email, Password: req.Password, Name: req.Name, IP: ip})
    if err != nil {
        return writeError(c, h.Log, err)
    }
    h.Cookies.setSession(c, sess)
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "id": u.ID})
}

// Signin: POST /auth/signin
func (h *AuthHandler) Signin(c echo.Context) error {
    ip := mw.ClientKey(c)
    if res, ok := h.Throttle.Allow(c, "signin:"+ip, h.Limits.Signin); !ok {
        return mw.TooManyRequests(c, res)
    }
    var req credentialsReq
    if err := bind(c, &req); err != nil {
        return badRequest(c)
    }
    if _, err := service.ValidateEmail(req.Email); err != nil || req.Password == "" {
        return badRequest(c)
    }
    if h.Accounts == nil {
        return dbEnv(c)
    }

    ctx, cancel := storeContext(c)
    defer cancel()
    u, sess, err := h.Accounts.Signin(ctx, req.Email, req.Password, ip)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    h.Cookies.setSession(c, sess)
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "id": u.ID})
}

// Signout: POST /auth/signout.  The cookie is cleared even when the row
// could not be deleted.
func (h *AuthHandler) Signout(c echo.Context) error {
    token := mw.SessionToken(c)
    h.Cookies.clearSession(c)
    if token == "" || h.Accounts == nil {
        return c.JSON(http.StatusOK, echo.Map{"ok": true})
    }
    ctx, cancel := storeContext(c)
    defer cancel()
    if err := h.Accounts.Signout(ctx, token, mw.ClientKey(c)); err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// Me: GET /auth/me.  Never fails; anything short of a live session is
// {"user":null}.
func (h *AuthHandler) Me(c echo.Context) error {
    token := mw.SessionToken(c)
    if token == "" || h.Accounts == nil {
        return c.JSON(http.StatusOK, echo.Map{"user": nil})
    }
    ctx, cancel := storeContext(c)
    defer cancel()
    u, err := h.Accounts.CurrentUser(ctx, token)
    if err != nil {
        if !errors.Is(err, service.ErrUnauthenticated) {
            h.Log.Warn(ctx, "me: session lookup failed", "err", err)
        }
        return c.JSON(http.StatusOK, echo.Map{"user": nil})
    }
    return c.JSON(http.StatusOK, echo.Map{"user": viewOf(u)})
}

// Forgot: POST /auth/forgot.  The answer is the same whether or not the
// address has an account.
func (h *AuthHandler) Forgot(c echo.Context) error {
    var req forgotReq
    if err := bind(c, &req); err != nil {
        return badRequest(c)
    }
    ip := mw.ClientKey(c)
    if res, ok := h.Throttle.Allow(c, "forgot:"+ip+":"+repository.NormalizeEmail(req.Email), h.Limits.Forgot); !ok {
        return mw.TooManyRequests(c, res)
    }
    if _, err := service.ValidateEmail(req.Email); err != nil {
        return writeError(c, h.Log, err)
    }
    if h.Accounts == nil {
        return dbEnv(c)
    }

    ctx, cancel := storeContext(c)
    defer cancel()
    code, err := h.Accounts.RequestReset(ctx, req.Email, ip)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    resp := echo.Map{"ok": true}
    if h.ExposeResetCode && code != "" {
        resp["code"] = code
    }
    return c.JSON(http.StatusOK, resp)
}

// Reset: POST /auth/reset
func (h *AuthHandler) Reset(c echo.Context) error {
    var req resetReq
    if err := bind(c, &req); err != nil {
        return badRequest(c)
    }
    if req.NewPassword == "" {
        req.NewPassword = req.Password
    }
    ip := mw.ClientKey(c)
    if res, ok := h.Throttle.Allow(c, "reset:"+ip+":"+repository.NormalizeEmail(req.Email), h.Limits.Reset); !ok {
        return mw.TooManyRequests(c, res)
    }
    if _, err := service.ValidateEmail(req.Email); err != nil {
        return writeError(c, h.Log, err)
    }
    if req.Code == "" {
        return mw.JSONError(c, http.StatusBadRequest, "invalid_code")
    }
    if err := service.ValidatePassword("newPassword", req.NewPassword); err != nil {
        return writeError(c, h.Log, err)
    }
    if h.Accounts == nil {
        return dbEnv(c)
    }

    ctx, cancel := storeContext(c)
    defer cancel()
    sess, err := h.Accounts.ConsumeReset(ctx, service.ResetInput{Email: req.Email, Code: req.Code, NewPassword: req.NewPassword, IP: ip})
    if err != nil {
        return writeError(c, h.Log, err)
    }
    h.Cookies.setSession(c, sess)
    return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// Settings: POST /account/settings.  Runs behind RequireSession.
func (h *AuthHandler) Settings(c echo.Context) error {
    u, ok := mw.CurrentUser(c)
    if !ok {
        return mw.JSONError(c, http.StatusUnauthorized, "auth")
    }
    var req settingsReq
    if err := bind(c, &req); err != nil {
        return badRequest(c)
    }
    if res, ok := h.Throttle.Allow(c, "settings:"+u.ID, h.Limits.Settings); !ok {
        return mw.TooManyRequests(c, res)
    }
    if req.CurrentPassword == "" || req.NewPassword == "" {
        return badRequest(c)
    }
    if err := service.ValidatePassword("newPassword", req.NewPassword); err != nil {
        return writeError(c, h.Log, err)
    }
    if h.Accounts == nil {
        return dbEnv(c)
    }

    ctx, cancel := storeContext(c)
    defer cancel()
    err := h.Accounts.ChangePassword(ctx, service.ChangePasswordInput{
        UserID:          u.ID,
        SessionToken:    mw.CurrentToken(c),
        CurrentPassword: req.CurrentPassword,
        NewPassword:     req.NewPassword,
        IP:              mw.ClientKey(c),
    })
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true})
}
