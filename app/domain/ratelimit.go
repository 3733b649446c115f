package domain

import (
	"context"
	"time"
)

type RateLimitConfig struct {
	MaxAttempts int64         `mapstructure:"max_attempts"`
	Window      time.Duration `mapstructure:"window"`
}

type RateLimitResult struct {
	Allowed   bool      `json:"allowed"`
	Remaining int64     `json:"remaining"`
	ResetTime time.Time `json:"reset_time"`
}

// CounterStore holds fixed-window counters. Increment starts a new window when
// the stored one has ended and returns the count after incrementing.
type CounterStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int64, resetTime time.Time, err error)
}

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, cfg RateLimitConfig) RateLimitResult
}

// RateLimitError carries the limiter's verdict so callers can report when to
// retry. It matches ErrRateLimited with errors.Is.
type RateLimitError struct {
	Result RateLimitResult
}

func (e *RateLimitError) Error() string {
	return ErrRateLimited.Error()
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}
