package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript keeps the counter in a plain key whose TTL is the
// window.  Denials do not increment.
var fixedWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window_ms = tonumber(ARGV[2])

	local count = tonumber(redis.call('GET', key))
	if count == nil then
		redis.call('SET', key, 1, 'PX', window_ms)
		return { 1, limit - 1, 0 }
	end

	local ttl = redis.call('PTTL', key)
	if ttl < 0 then
		redis.call('PEXPIRE', key, window_ms)
		ttl = window_ms
	end

	if count >= limit then
		return { 0, 0, ttl }
	end

	count = redis.call('INCR', key)
	return { 1, limit - count, ttl }
`)

// Redis is a Limiter shared by every instance pointing at the same server.
type Redis struct {
	rdb    redis.Scripter
	prefix string
}

func NewRedis(rdb redis.Scripter, prefix string) *Redis {
	if prefix == "" {
		prefix = "rl"
	}
	return &Redis{rdb: rdb, prefix: prefix}
}

func (r *Redis) Check(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	vals, err := fixedWindowScript.Run(ctx, r.rdb, []string{r.prefix + ":" + key}, limit, window.Milliseconds()).Result()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit script: %w", err)
	}
	return parseScriptResult(vals)
}

func parseScriptResult(vals any) (Result, error) {
	arr, ok := vals.([]any)
	if !ok || len(arr) != 3 {
		return Result{}, fmt.Errorf("ratelimit script: unexpected result %#v", vals)
	}
	remaining := asInt64(arr[1])
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:    asInt64(arr[0]) == 1,
		Remaining:  int(remaining),
		RetryAfter: time.Duration(asInt64(arr[2])) * time.Millisecond,
	}, nil
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
