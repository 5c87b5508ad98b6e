package service

import (
	"context"

	"github.com/iliyamo/learning-platform/internal/logging"
	"github.com/iliyamo/learning-platform/internal/model"
)

// Auditor records security events.  Record never fails the caller;
// implementations log and drop what they cannot persist.
type Auditor interface {
	Record(ctx context.Context, e model.AuditEntry)
}

// AuditWriter is the persistence side of DBAuditor.
type AuditWriter interface {
	Insert(ctx context.Context, e model.AuditEntry) error
}

// DBAuditor writes entries synchronously to the audit table.
type DBAuditor struct {
	Repo AuditWriter
	Log  logging.Logger
}

func (a DBAuditor) Record(ctx context.Context, e model.AuditEntry) {
	if err := a.Repo.Insert(ctx, e); err != nil && a.Log != nil {
		a.Log.Warn(ctx, "audit write failed", "action", e.Action, "user_id", e.UserID, "err", err)
	}
}

type NopAuditor struct{}

func (NopAuditor) Record(context.Context, model.AuditEntry) {}
