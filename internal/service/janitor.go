package service

import (
	"context"
	"time"

	"github.com/iliyamo/learning-platform/internal/logging"
)

// ExpiredPurger deletes rows whose expiry lies before the given instant.
type ExpiredPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Janitor periodically removes expired sessions and reset codes.  Expired
// rows are already rejected on read, so purging only bounds table growth.
type Janitor struct {
	Sessions ExpiredPurger
	Resets   ExpiredPurger
	Interval time.Duration
	Log      logging.Logger
	Now      func() time.Time
}

// Run purges once immediately and then every Interval until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	if j.Interval <= 0 {
		return
	}
	t := time.NewTicker(j.Interval)
	defer t.Stop()
	for {
		j.PurgeOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// PurgeOnce runs a single pass and reports the rows removed.
func (j *Janitor) PurgeOnce(ctx context.Context) (sessions, resets int64) {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	t := now().UTC()
	if j.Sessions != nil {
		n, err := j.Sessions.DeleteExpired(ctx, t)
		if err != nil {
			j.Log.Warn(ctx, "purge sessions failed", "err", err)
		}
		sessions = n
	}
	if j.Resets != nil {
		n, err := j.Resets.DeleteExpired(ctx, t)
		if err != nil {
			j.Log.Warn(ctx, "purge reset codes failed", "err", err)
		}
		resets = n
	}
	if sessions > 0 || resets > 0 {
		j.Log.Info(ctx, "purged expired rows", "sessions", sessions, "reset_codes", resets)
	}
	return sessions, resets
}
