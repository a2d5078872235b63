// Package ratelimit implements fixed-window request counting.
package ratelimit

import (
	"context"
	"time"

	"authgate/internal/domain/service"
	"authgate/internal/errors"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// fixedWindow increments the counter and starts the window on the first hit.
// A counter left without a TTL is given one so it cannot block forever.
var fixedWindow = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if count == 1 or ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

type redisLimiter struct {
	client redis.Scripter
}

// NewRedisLimiter counts hits in Redis so limits hold across instances.
func NewRedisLimiter(client redis.Scripter) service.RateLimiter {
	return &redisLimiter{client: client}
}

func (l *redisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	if limit <= 0 || window <= 0 {
		return true, 0, nil
	}

	res, err := fixedWindow.Run(ctx, l.client, []string{keyPrefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, errors.Wrap(err, "rate limit script")
	}

	if len(res) != 2 {
		return false, 0, errors.Errorf("rate limit script returned %d values", len(res))
	}

	count, ttl := res[0], time.Duration(res[1])*time.Millisecond
	if count > int64(limit) {
		return false, ttl, nil
	}

	return true, 0, nil
}

type noopLimiter struct{}

// NewNoopLimiter allows every request.
func NewNoopLimiter() service.RateLimiter {
	return noopLimiter{}
}

func (noopLimiter) Allow(context.Context, string, int, time.Duration) (bool, time.Duration, error) {
	return true, 0, nil
}
