package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/learning-platform/internal/logging"
	"github.com/iliyamo/learning-platform/internal/model"
)

type countingPurger struct {
	calls int
	n     int64
}

func (p *countingPurger) DeleteExpired(context.Context, time.Time) (int64, error) {
	p.calls++
	return p.n, nil
}

func TestJanitor_PurgeOnce(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions := newMemSessions()
	_ = sessions.Create(context.Background(), model.Session{ID: "old", UserID: "u", ExpiresAt: now.Add(-time.Minute)})
	_ = sessions.Create(context.Background(), model.Session{ID: "live", UserID: "u", ExpiresAt: now.Add(time.Minute)})
	resets := &countingPurger{n: 2}

	j := &Janitor{Sessions: sessions, Resets: resets, Log: logging.Discard(), Now: func() time.Time { return now }}
	s, r := j.PurgeOnce(context.Background())

	assert.Equal(t, int64(1), s)
	assert.Equal(t, int64(2), r)
	assert.Len(t, sessions.rows, 1)
	assert.Contains(t, sessions.rows, "live")
}

func TestJanitor_RunStopsOnCancel(t *testing.T) {
	p := &countingPurger{}
	j := &Janitor{Sessions: p, Interval: time.Hour, Log: logging.Discard()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() { j.Run(ctx); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
	assert.Equal(t, 1, p.calls)
}
