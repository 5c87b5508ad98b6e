package service

import (
	"context"
	"time"

	"github.com/iliyamo/learning-platform/internal/logging"
)

// ResetNotifier delivers a freshly issued reset code to the account owner.
// Delivery is best effort.
type ResetNotifier interface {
	ResetCodeIssued(ctx context.Context, email, code string, expiresAt time.Time)
}

// LogNotifier stands in for a mailer when no broker is configured.  Only
// the fact of issuance is logged, never the code.
type LogNotifier struct {
	Log logging.Logger
}

func (n LogNotifier) ResetCodeIssued(ctx context.Context, email, _ string, expiresAt time.Time) {
	if n.Log == nil {
		return
	}
	n.Log.Info(ctx, "reset code issued", "email", email, "expires_at", expiresAt.Format(time.RFC3339))
}
