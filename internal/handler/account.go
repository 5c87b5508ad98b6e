package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "unicode/utf8"

    "github.com/labstack/echo/v4"

    mw "github.com/iliyamo/learning-platform/internal/middleware"
    "github.com/iliyamo/learning-platform/internal/logging"
    "github.com/iliyamo/learning-platform/internal/model"
    "github.com/iliyamo/learning-platform/internal/repository"
)

type ProfileStore interface {
    Get(ctx context.Context, userID string) (model.Profile, error)
    Upsert(ctx context.Context, p model.Profile) error
}

// ProfileHandler serves /api/account/profile for the signed-in user.
type ProfileHandler struct {
    Profiles ProfileStore
    Log      logging.Logger
}

type profileView struct {
    UserID         string  `json:"user_id"`
    AvatarURL      *string `json:"avatar_url"`
    Bio            *string `json:"bio"`
    Timezone       *string `json:"timezone"`
    Location       *string `json:"location"`
    PreferredRoles *string `json:"preferred_roles"`
}

type profileReq struct {
    AvatarURL      string `json:"avatar_url"`
    Bio            string `json:"bio"`
    Timezone       string `json:"timezone"`
    Location       string `json:"location"`
    PreferredRoles string `json:"preferred_roles"`
}

// column limits in runes
var profileLimits = map[string]int{
    "avatar_url":      1024,
    "bio":             4000,
    "timezone":        64,
    "location":        255,
    "preferred_roles": 1000,
}

// Get: GET /api/account/profile
func (h *ProfileHandler) Get(c echo.Context) error {
    u, ok := mw.CurrentUser(c)
    if !ok {
        return mw.JSONError(c, http.StatusUnauthorized, "auth")
    }
    if h.Profiles == nil {
        return dbEnv(c)
    }
    ctx, cancel := storeContext(c)
    defer cancel()
    p, err := h.Profiles.Get(ctx, u.ID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusOK, echo.Map{"ok": true, "profile": nil})
        }
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "profile": profileView{
        UserID: p.UserID, AvatarURL: p.AvatarURL, Bio: p.Bio, Timezone: p.Timezone,
        Location: p.Location, PreferredRoles: p.PreferredRoles,
    }})
}

// Update: POST /api/account/profile.  Every field is replaced; blank
// fields are stored as NULL.
func (h *ProfileHandler) Update(c echo.Context) error {
    u, ok := mw.CurrentUser(c)
    if !ok {
        return mw.JSONError(c, http.StatusUnauthorized, "auth")
    }
    var req profileReq
    if err := bind(c, &req); err != nil {
        return badRequest(c)
    }
    fields := map[string]string{
        "avatar_url":      req.AvatarURL,
        "bio":             req.Bio,
        "timezone":        req.Timezone,
        "location":        req.Location,
        "preferred_roles": req.PreferredRoles,
    }
    for name, v := range fields {
        if utf8.RuneCountInString(strings.TrimSpace(v)) > profileLimits[name] {
            return badRequest(c)
        }
    }
    if h.Profiles == nil {
        return dbEnv(c)
    }

    ctx, cancel := storeContext(c)
    defer cancel()
    err := h.Profiles.Upsert(ctx, model.Profile{
        UserID:         u.ID,
        AvatarURL:      optional(req.AvatarURL),
        Bio:            optional(req.Bio),
        Timezone:       optional(req.Timezone),
        Location:       optional(req.Location),
        PreferredRoles: optional(req.PreferredRoles),
    })
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

func optional(s string) *string {
    s = strings.TrimSpace(s)
    if s == "" {
        return nil
    }
    return &s
}
