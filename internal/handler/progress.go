package handler

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    mw "github.com/iliyamo/learning-platform/internal/middleware"
    "github.com/iliyamo/learning-platform/internal/logging"
)

type ProgressStore interface {
    List(ctx context.Context, userID, trackID string) ([]string, error)
    Set(ctx context.Context, userID, trackID, taskID string, completed bool) error
}

// ProgressHandler records completed curriculum tasks per track.
type ProgressHandler struct {
    Progress ProgressStore
    Sessions mw.SessionResolver
    Log      logging.Logger
}

type progressReq struct {
    TrackID   string `json:"trackId"`
    TaskID    string `json:"taskId"`
    Completed bool   `json:"completed"`
}

const maxProgressID = 64

// List: GET /api/track/progress?trackId=.  Anonymous callers, and callers
// whose session is gone, get an empty list.
func (h *ProgressHandler) List(c echo.Context) error {
    trackID := strings.TrimSpace(c.QueryParam("trackId"))
    if trackID == "" || len(trackID) > maxProgressID {
        return badRequest(c)
    }
    empty := echo.Map{"ok": true, "progress": []string{}}
    token := mw.SessionToken(c)
    if token == "" || h.Sessions == nil || h.Progress == nil {
        return c.JSON(http.StatusOK, empty)
    }

    ctx, cancel := storeContext(c)
    defer cancel()
    u, err := h.Sessions.CurrentUser(ctx, token)
    if err != nil {
        return c.JSON(http.StatusOK, empty)
    }
    done, err := h.Progress.List(ctx, u.ID, trackID)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "progress": done})
}

// Set: POST /api/track/progress.  Runs behind RequireSession.
func (h *ProgressHandler) Set(c echo.Context) error {
    u, ok := mw.CurrentUser(c)
    if !ok {
        return mw.JSONError(c, http.StatusUnauthorized, "auth")
    }
    var req progressReq
    if err := bind(c, &req); err != nil {
        return badRequest(c)
    }
    req.TrackID, req.TaskID = strings.TrimSpace(req.TrackID), strings.TrimSpace(req.TaskID)
    if req.TrackID == "" || req.TaskID == "" || len(req.TrackID) > maxProgressID || len(req.TaskID) > maxProgressID {
        return badRequest(c)
    }
    if h.Progress == nil {
        return dbEnv(c)
    }
    ctx, cancel := storeContext(c)
    defer cancel()
    if err := h.Progress.Set(ctx, u.ID, req.TrackID, req.TaskID, req.Completed); err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true})
}
