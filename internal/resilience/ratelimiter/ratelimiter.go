// Package ratelimiter implements the shared, tenant-prefixed sliding
// window rate limiter of spec.md sections 4.8 and 5, backed by Redis so
// the limit holds across every process in the fleet, with a local
// golang.org/x/time/rate token bucket layered underneath for
// per-process burst smoothing (grounded on the teacher's
// internal/llm/rate_limiter.go Lua-script sliding window and
// internal/github/client.go local limiter).
package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter enforces "at most Requests operations per tenant in any
// window of length Window" (spec.md section 8 invariant 6).
type Limiter struct {
	redis    *redis.Client
	requests int64
	window   time.Duration
	local    *rate.Limiter
}

func New(client *redis.Client, requestsPerWindow int64, window time.Duration) *Limiter {
	// Local burst control: same steady-state rate, burst of a tenth of
	// requestsPerWindow (at least 1); the Redis check remains the source
	// of truth for the window invariant.
	perSecond := float64(requestsPerWindow) / window.Seconds()
	return &Limiter{
		redis:    client,
		requests: requestsPerWindow,
		window:   window,
		local:    rate.NewLimiter(rate.Limit(perSecond), int(max64(1, requestsPerWindow/10))),
	}
}

var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window_ms)
local count = redis.call('ZCARD', key)
if count >= limit then
	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local retry_ms = window_ms
	if #oldest == 2 then
		retry_ms = window_ms - (now - tonumber(oldest[2]))
	end
	return {0, retry_ms}
end

redis.call('ZADD', key, now, now .. '-' .. math.random())
redis.call('PEXPIRE', key, window_ms)
return {1, 0}
`)

// Allow checks and, if permitted, records one operation for tenant.
// Returns (true, 0) if allowed, (false, retryAfter) if the tenant's
// window is exhausted.
func (l *Limiter) Allow(ctx context.Context, tenant string) (bool, time.Duration, error) {
	if err := l.local.Wait(ctx); err != nil {
		return false, 0, fmt.Errorf("ratelimiter: local wait: %w", err)
	}

	key := fmt.Sprintf("ratelimit:%s", tenant)
	now := float64(time.Now().UnixMilli())
	windowMs := float64(l.window.Milliseconds())

	res, err := slidingWindowScript.Run(ctx, l.redis, []string{key}, now, windowMs, l.requests).Result()
	if err != nil {
		return false, 0, fmt.Errorf("ratelimiter: redis eval: %w", err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return false, 0, fmt.Errorf("ratelimiter: unexpected script result %v", res)
	}
	allowed, _ := vals[0].(int64)
	retryMs, _ := vals[1].(int64)

	if allowed == 1 {
		return true, 0, nil
	}
	return false, time.Duration(retryMs) * time.Millisecond, nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
