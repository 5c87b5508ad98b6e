package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemory_FixedWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	lim := NewMemory().WithClock(clock.Now)
	ctx := context.Background()
	window := time.Minute

	var allowed []bool
	for i := 0; i < 4; i++ {
		res, err := lim.Check(ctx, "signin:1.2.3.4", 3, window)
		require.NoError(t, err)
		allowed = append(allowed, res.Allowed)
	}
	assert.Equal(t, []bool{true, true, true, false}, allowed)

	clock.Advance(window)
	res, err := lim.Check(ctx, "signin:1.2.3.4", 3, window)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Remaining)
}

func TestMemory_DenialRetryAfterShrinks(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	lim := NewMemory().WithClock(clock.Now)
	ctx := context.Background()

	_, _ = lim.Check(ctx, "k", 1, 10*time.Second)

	clock.Advance(2 * time.Second)
	first, _ := lim.Check(ctx, "k", 1, 10*time.Second)
	clock.Advance(3 * time.Second)
	second, _ := lim.Check(ctx, "k", 1, 10*time.Second)

	assert.False(t, first.Allowed)
	assert.False(t, second.Allowed)
	assert.Equal(t, 8*time.Second, first.RetryAfter)
	assert.Equal(t, 5*time.Second, second.RetryAfter)
	assert.Zero(t, second.Remaining)
}

func TestMemory_KeysAreIndependent(t *testing.T) {
	lim := NewMemory()
	ctx := context.Background()

	a, _ := lim.Check(ctx, "forgot:ip:a@x.com", 1, time.Minute)
	b, _ := lim.Check(ctx, "forgot:ip:b@x.com", 1, time.Minute)
	a2, _ := lim.Check(ctx, "forgot:ip:a@x.com", 1, time.Minute)

	assert.True(t, a.Allowed)
	assert.True(t, b.Allowed)
	assert.False(t, a2.Allowed)
}

func TestMemory_RemainingCountsDown(t *testing.T) {
	lim := NewMemory()
	ctx := context.Background()
	for want := 4; want >= 0; want-- {
		res, _ := lim.Check(ctx, "k", 5, time.Minute)
		require.True(t, res.Allowed)
		assert.Equal(t, want, res.Remaining)
	}
}

func TestMemory_SweepDropsStaleBuckets(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	lim := NewMemory().WithClock(clock.Now)
	ctx := context.Background()

	for i := 0; i < sweepEvery-1; i++ {
		_, _ = lim.Check(ctx, fmt.Sprintf("k%d", i), 1, time.Second)
	}
	clock.Advance(time.Minute)
	_, _ = lim.Check(ctx, "fresh", 1, time.Second)

	assert.Equal(t, 1, lim.Len())
}

func TestMemory_ConcurrentNeverExceedsLimit(t *testing.T) {
	lim := NewMemory()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, _ := lim.Check(ctx, "shared", 10, time.Minute)
			if res.Allowed {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, granted)
}

func TestParseScriptResult(t *testing.T) {
	res, err := parseScriptResult([]any{int64(0), int64(-1), int64(1500)})
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, 1500*time.Millisecond, res.RetryAfter)

	_, err = parseScriptResult("nope")
	assert.Error(t, err)
}
