// Package queue carries audit events and reset-code notifications over
// RabbitMQ so request handlers never wait on those side effects.
package queue

import "time"

const (
    AuditQueue     = "auth.audit"
    ResetCodeQueue = "auth.reset_code"
)

// AuditEvent mirrors model.AuditEntry on the wire.
type AuditEvent struct {
    UserID    string         `json:"user_id"`
    Action    string         `json:"action"`
    Details   map[string]any `json:"details,omitempty"`
    IP        string         `json:"ip,omitempty"`
    CreatedAt time.Time      `json:"created_at"`
}

// ResetCodeEvent asks the delivery side to hand a code to the account
// owner.  It is the only message that carries a secret; the consumer must
// not log the body.
type ResetCodeEvent struct {
    Email     string    `json:"email"`
    Code      string    `json:"code"`
    ExpiresAt time.Time `json:"expires_at"`
    IssuedAt  time.Time `json:"issued_at"`
}
