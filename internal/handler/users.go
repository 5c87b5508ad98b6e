package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/learning-platform/internal/logging"
    "github.com/iliyamo/learning-platform/internal/model"
    "github.com/iliyamo/learning-platform/internal/repository"
)

type UserDirectory interface {
    GetByID(ctx context.Context, id string) (model.User, error)
    GetByEmail(ctx context.Context, email string) (model.User, error)
    List(ctx context.Context, limit int) ([]model.User, error)
}

// UsersHandler is the read-only user lookup.  Password hashes never leave
// this handler.
type UsersHandler struct {
    Users UserDirectory
    Log   logging.Logger
}

const directoryLimit = 100

// Lookup: GET /api/users?id= | ?email= | (newest 100)
func (h *UsersHandler) Lookup(c echo.Context) error {
    if h.Users == nil {
        return dbEnv(c)
    }
    ctx, cancel := storeContext(c)
    defer cancel()

    id := strings.TrimSpace(c.QueryParam("id"))
    email := strings.TrimSpace(c.QueryParam("email"))
    if id != "" || email != "" {
        var (
            u   model.User
            err error
        )
        if id != "" {
            u, err = h.Users.GetByID(ctx, id)
        } else {
            u, err = h.Users.GetByEmail(ctx, email)
        }
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusOK, echo.Map{"user": nil})
        }
        if err != nil {
            return writeError(c, h.Log, err)
        }
        return c.JSON(http.StatusOK, echo.Map{"user": viewOf(u)})
    }

    list, err := h.Users.List(ctx, directoryLimit)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    out := make([]userView, 0, len(list))
    for _, u := range list {
        out = append(out, viewOf(u))
    }
    return c.JSON(http.StatusOK, echo.Map{"users": out})
}
