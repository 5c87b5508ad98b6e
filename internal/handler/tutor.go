package handler

import (
    "fmt"
    "net/http"
    "unicode/utf8"

    "github.com/labstack/echo/v4"
)

type tutorMessage struct {
    Role    string `json:"role"`
    Content string `json:"content"`
}

type tutorReq struct {
    Messages []tutorMessage `json:"messages"`
}

const (
    maxTutorMessages = 30
    maxTutorContent  = 2000
    tutorEchoRunes   = 120
)

// Tutor: POST /api/tutor.  Answers with a fixed study plan that quotes the
// learner's last message; rate limited by the route's middleware.
func Tutor(c echo.Context) error {
    var req tutorReq
    if err := bind(c, &req); err != nil {
        return badRequest(c)
    }
    if len(req.Messages) == 0 || len(req.Messages) > maxTutorMessages {
        return badRequest(c)
    }
    for _, m := range req.Messages {
        if utf8.RuneCountInString(m.Content) > maxTutorContent {
            return badRequest(c)
        }
    }
    last := []rune(req.Messages[len(req.Messages)-1].Content)
    if len(last) > tutorEchoRunes {
        last = last[:tutorEchoRunes]
    }
    reply := fmt.Sprintf("Let us break this down:\n"+
        "1) Clarify goal: %s\n"+
        "2) Key concepts: support workflows, tools, communication\n"+
        "3) Practice: write a macro for a refund case\n"+
        "4) Reflect: explain escalation criteria in your words\n"+
        "5) Submit: artifact and explanation to unlock progress", string(last))
    return c.JSON(http.StatusOK, echo.Map{"reply": reply})
}
