package ratelimit

import (
	"context"
	"log/slog"

	"authgate/config"
	"authgate/internal/domain/lifecycle"
	"authgate/internal/domain/service"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// LimiterParams holds dependencies for creating a RateLimiter
type LimiterParams struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Logger *slog.Logger
}

// NewRateLimiter returns a Redis limiter when rate limiting is enabled and
// Redis is configured, otherwise a limiter that allows everything.
func NewRateLimiter(params LimiterParams) service.RateLimiter {
	cfg := params.Config
	logger := params.Logger

	if cfg.RateLimit == nil || !cfg.RateLimit.Enabled {
		logger.Info("Rate limiting disabled")

		return NewNoopLimiter()
	}

	if cfg.Redis == nil || cfg.Redis.Addr == "" {
		logger.Warn("Rate limiting enabled but redis.addr is empty, requests will not be limited")

		return NewNoopLimiter()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	params.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
			defer cancel()

			// The limiter fails open, so an unreachable Redis must not block startup.
			if err := client.Ping(pingCtx).Err(); err != nil {
				logger.Warn("Redis ping failed", slog.String("addr", cfg.Redis.Addr), slog.Any("error", err))
			}

			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	logger.Info("Using Redis rate limiter", slog.String("addr", cfg.Redis.Addr))

	return NewRedisLimiter(client)
}
