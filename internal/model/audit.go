package model

import "time"

// Audit actions recorded in `audit_logs`.
const (
    AuditSignup         = "signup"
    AuditSignin         = "signin"
    AuditSignout        = "signout"
    AuditPasswordChange = "password_change"
    AuditPasswordReset  = "password_reset"
    AuditResetRequested = "password_reset_requested"
)

// AuditEntry is one security-relevant event.  Details is free-form and
// serialized as JSON; it must never contain passwords, tokens or codes.
type AuditEntry struct {
    UserID    string
    Action    string
    Details   map[string]any
    IP        string
    CreatedAt time.Time
}
