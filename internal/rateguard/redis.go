package rateguard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript implements the same fixed-window contract as MemoryGuard
// atomically in Redis. The first hit on a key opens the window via PEXPIRE;
// the key's natural expiry is the window reset, so there is nothing to purge.
//
// Returns {count, pttl_ms}. count is clamped at quota+1 to keep denied keys
// from growing without bound.
var fixedWindowScript = redis.NewScript(`
-- KEYS[1] = window key
-- ARGV[1] = quota (int)
-- ARGV[2] = window_ms (int)
local current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
else
  -- Ensure TTL exists even if the key somehow lost it
  if redis.call('PTTL', KEYS[1]) < 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[2])
  end
end

local quota = tonumber(ARGV[1])
if current > quota + 1 then
  redis.call('SET', KEYS[1], quota + 1, 'KEEPTTL')
  current = quota + 1
end
return {current, redis.call('PTTL', KEYS[1])}
`)

// RedisGuard is the shared-state implementation for multi-instance
// deployments. Same admission semantics as MemoryGuard.
type RedisGuard struct {
	rdb    *redis.Client
	window time.Duration
	quota  int

	// KeyPrefix namespaces guard keys; defaults to "rateguard:".
	KeyPrefix string
}

func NewRedisGuard(rdb *redis.Client, window time.Duration, quota int) *RedisGuard {
	if window <= 0 {
		window = DefaultWindow
	}
	if quota <= 0 {
		quota = DefaultQuota
	}
	return &RedisGuard{rdb: rdb, window: window, quota: quota, KeyPrefix: "rateguard:"}
}

func (g *RedisGuard) Admit(ctx context.Context, identity string) (Result, error) {
	if g.rdb == nil {
		return Result{}, fmt.Errorf("rateguard: redis client is nil")
	}
	if identity == "" {
		return Result{}, fmt.Errorf("rateguard: identity is required")
	}

	vals, err := fixedWindowScript.Run(ctx, g.rdb,
		[]string{g.KeyPrefix + identity},
		g.quota, g.window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("rateguard: window script: %w", err)
	}
	if len(vals) != 2 {
		return Result{}, fmt.Errorf("rateguard: window script returned %d values", len(vals))
	}

	count, pttl := int(vals[0]), vals[1]
	resetIn := time.Duration(pttl) * time.Millisecond
	if resetIn < 0 {
		resetIn = g.window
	}

	if count > g.quota {
		return Result{Allowed: false, ResetIn: resetIn}, nil
	}
	return Result{Allowed: true, Remaining: g.quota - count, ResetIn: resetIn}, nil
}
