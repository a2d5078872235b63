package service

import (
	"context"
	"time"
)

// RateLimiter counts hits per key within a fixed window.
type RateLimiter interface {
	// Allow records a hit for key. When the limit is exceeded it returns false
	// and how long until the window resets.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, retryAfter time.Duration, err error)
}
