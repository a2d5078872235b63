package middleware

import (
	"log/slog"
	"math"
	"strconv"
	"time"

	"authgate/config"
	deliverycontext "authgate/internal/delivery/context"
	domainerrors "authgate/internal/domain/errors"
	"authgate/internal/domain/service"

	"github.com/labstack/echo/v4"
)

// RateLimitMiddleware throttles credential endpoints per route and client IP.
type RateLimitMiddleware struct {
	limiter service.RateLimiter
	logger  *slog.Logger
}

func NewRateLimitMiddleware(limiter service.RateLimiter, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, logger: logger}
}

// Limit allows window.Limit requests per window.Window. Limiter failures let
// the request through.
func (m *RateLimitMiddleware) Limit(window config.LimitWindow) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if window.Limit <= 0 || window.Window <= 0 {
			return next
		}

		return func(c echo.Context) error {
			key := c.Path() + ":" + c.RealIP()

			allowed, retryAfter, err := m.limiter.Allow(c.Request().Context(), key, window.Limit, window.Window)
			if err != nil {
				deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).
					Warn("Rate limiter unavailable, allowing request", slog.String("key", key), slog.Any("error", err))

				return next(c)
			}

			if !allowed {
				c.Response().Header().Set("Retry-After", retryAfterSeconds(retryAfter))

				return domainerrors.ErrTooManyRequests
			}

			return next(c)
		}
	}
}

// retryAfterSeconds rounds up to whole seconds, at least 1.
func retryAfterSeconds(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}

	return strconv.Itoa(secs)
}
