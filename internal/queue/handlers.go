package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"
    "sync"
    "time"

    "github.com/iliyamo/learning-platform/internal/model"
)

// AuditWriter persists audit entries.
type AuditWriter interface {
    Insert(ctx context.Context, e model.AuditEntry) error
}

// AuditHandler stores each AuditEvent through w.
func AuditHandler(w AuditWriter) Handler {
    return func(ctx context.Context, body []byte) error {
        var ev AuditEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        if ev.UserID == "" || ev.Action == "" {
            return fmt.Errorf("audit event missing user_id or action")
        }
        if ev.CreatedAt.IsZero() {
            ev.CreatedAt = time.Now().UTC()
        }
        return w.Insert(ctx, model.AuditEntry{
            UserID: ev.UserID, Action: ev.Action, Details: ev.Details, IP: ev.IP, CreatedAt: ev.CreatedAt.UTC(),
        })
    }
}

// ResetCodeFileHandler appends each ResetCodeEvent to dir/reset_codes.log.
// It stands in for an outbound mailer in development setups.
func ResetCodeFileHandler(dir string) Handler {
    var mu sync.Mutex
    return func(_ context.Context, body []byte) error {
        var ev ResetCodeEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        if ev.Email == "" || ev.Code == "" {
            return fmt.Errorf("reset event missing email or code")
        }
        mu.Lock()
        defer mu.Unlock()
        if err := os.MkdirAll(dir, 0o755); err != nil {
            return fmt.Errorf("mkdir logs: %w", err)
        }
        f, err := os.OpenFile(filepath.Join(dir, "reset_codes.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
        if err != nil {
            return fmt.Errorf("open log file: %w", err)
        }
        defer f.Close()

        line := fmt.Sprintf("[%s] Password reset code | email=%s | code=%s | expires_at=%s\n",
            ev.IssuedAt.UTC().Format(time.RFC3339), ev.Email, ev.Code, ev.ExpiresAt.UTC().Format(time.RFC3339))
        if _, err := f.WriteString(line); err != nil {
            return fmt.Errorf("write log: %w", err)
        }
        return nil
    }
}
