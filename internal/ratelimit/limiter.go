// Package ratelimit implements fixed-window request counting.
//
// A window starts with the first request for a key and lasts for the given
// duration; within it at most limit requests are allowed.  Requests denied
// inside an exceeded window are not counted, so the denial simply persists
// until the window resets.  Bursting across a window edge (up to 2*limit in
// a short span) is an accepted limitation.
package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of one Check.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration // zero when allowed on a fresh window
}

// Limiter counts requests per key.  Implementations must be safe for
// concurrent use.
type Limiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}
