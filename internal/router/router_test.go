package router

import (
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/learning-platform/internal/config"
    "github.com/iliyamo/learning-platform/internal/logging"
    mw "github.com/iliyamo/learning-platform/internal/middleware"
    "github.com/iliyamo/learning-platform/internal/ratelimit"
)

func newServer() http.Handler {
    return New(Deps{
        Log:      logging.Discard(),
        Throttle: &mw.Throttle{Limiter: ratelimit.NewMemory(), Log: logging.Discard()},
        Limits:   config.RateLimitConfig{Tutor: config.Policy{Limit: 2, Window: time.Minute}},
    })
}

func do(h http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, path, strings.NewReader(body))
    if body != "" {
        req.Header.Set("Content-Type", "application/json")
    }
    for _, ck := range cookies {
        req.AddCookie(ck)
    }
    rec := httptest.NewRecorder()
    h.ServeHTTP(rec, req)
    return rec
}

func TestHealthAndVars(t *testing.T) {
    h := newServer()

    rec := do(h, http.MethodGet, "/healthz", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "ok", rec.Body.String())
    assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

    rec = do(h, http.MethodGet, "/debug/vars", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), "guard_fail_open_total")

    rec = do(h, http.MethodGet, "/api/db/health", "")
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
    assert.JSONEq(t, `{"ok":false,"error":"db_env"}`, rec.Body.String())
}

func TestProtectedPagesRedirect(t *testing.T) {
    h := newServer()
    rec := do(h, http.MethodGet, "/onboarding", "")
    assert.Equal(t, http.StatusFound, rec.Code)
    assert.Equal(t, "/signin?next=%2Fonboarding", rec.Header().Get("Location"))
}

func TestWithoutDatabase(t *testing.T) {
    h := newServer()
    csrf := &http.Cookie{Name: mw.CSRFCookie, Value: "tok"}

    req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(`{"email":"a@x.com","password":"secret1"}`))
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set(mw.CSRFHeader, "tok")
    req.AddCookie(csrf)
    rec := httptest.NewRecorder()
    h.ServeHTTP(rec, req)
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
    assert.JSONEq(t, `{"ok":false,"error":"db_env"}`, rec.Body.String())

    rec = do(h, http.MethodPost, "/auth/signup", `{"email":"a@x.com","password":"secret1"}`, csrf)
    assert.Equal(t, http.StatusForbidden, rec.Code, "missing header")

    rec = do(h, http.MethodGet, "/auth/me", "")
    assert.JSONEq(t, `{"user":null}`, rec.Body.String())

    rec = do(h, http.MethodGet, "/api/users", "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTutorRateLimited(t *testing.T) {
    h := newServer()
    body := `{"messages":[{"role":"user","content":"hi"}]}`
    assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/api/tutor", body).Code)
    assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/api/tutor", body).Code)
    rec := do(h, http.MethodPost, "/api/tutor", body)
    require.Equal(t, http.StatusTooManyRequests, rec.Code)
    assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
