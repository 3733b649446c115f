package usecase

import (
	"context"
	"log/slog"

	"thrift-stock-service/app/domain"
	"thrift-stock-service/pkg/clock"
)

type rateLimiter struct {
	store domain.CounterStore
	clock clock.Clock
}

func NewRateLimiter(store domain.CounterStore, clk clock.Clock) domain.RateLimiter {
	return &rateLimiter{store, clk}
}

// CheckRateLimit counts one attempt against key. A failing counter store lets
// the request through.
func (l *rateLimiter) CheckRateLimit(ctx context.Context, key string, cfg domain.RateLimitConfig) domain.RateLimitResult {
	count, resetTime, err := l.store.Increment(ctx, key, cfg.Window)
	if err != nil {
		slog.WarnContext(ctx, "[rateLimiter] CheckRateLimit", "increment", err, "key", key)
		return domain.RateLimitResult{
			Allowed:   true,
			Remaining: cfg.MaxAttempts,
			ResetTime: l.clock.Now().Add(cfg.Window),
		}
	}

	result := domain.RateLimitResult{
		Allowed:   count <= cfg.MaxAttempts,
		Remaining: max(cfg.MaxAttempts-count, 0),
		ResetTime: resetTime,
	}
	if !result.Allowed {
		slog.WarnContext(ctx, "[rateLimiter] CheckRateLimit", "exceeded", key, "count", count, "resetTime", resetTime)
	}
	return result
}
