package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// JSONError writes the uniform failure body {"ok":false,"error":code}.
func JSONError(c echo.Context, status int, code string) error {
    return c.JSON(status, map[string]any{"ok": false, "error": code})
}

func unauthorized(c echo.Context) error { return JSONError(c, http.StatusUnauthorized, "auth") }
