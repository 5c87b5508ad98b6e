package ratelimit

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	count   int
	resetAt time.Time
}

// Memory is a process-local Limiter.  Counts are lost on restart and are
// not shared between instances.
type Memory struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
	checks  int
}

// sweepEvery controls how often stale buckets are dropped.
const sweepEvery = 1024

func NewMemory() *Memory {
	return &Memory{buckets: make(map[string]*bucket), now: time.Now}
}

// WithClock replaces the time source; tests use it to step over windows.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Check(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.now()
	m.checks++
	if m.checks%sweepEvery == 0 {
		m.sweep(t)
	}

	b, ok := m.buckets[key]
	if !ok || !t.Before(b.resetAt) {
		m.buckets[key] = &bucket{count: 1, resetAt: t.Add(window)}
		return Result{Allowed: true, Remaining: max(0, limit-1)}, nil
	}
	retry := b.resetAt.Sub(t)
	if b.count >= limit {
		return Result{Allowed: false, Remaining: 0, RetryAfter: retry}, nil
	}
	b.count++
	return Result{Allowed: true, Remaining: max(0, limit-b.count), RetryAfter: retry}, nil
}

// Len reports how many keys are tracked.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}

func (m *Memory) sweep(t time.Time) {
	for k, b := range m.buckets {
		if !t.Before(b.resetAt) {
			delete(m.buckets, k)
		}
	}
}
