package middleware

import (
	"strconv"
	"time"

	"thrift-stock-service/app/domain"
	"thrift-stock-service/app/handler/api/response"

	"github.com/gofiber/fiber/v2"
)

// KeyByIP scopes a limiter profile to the caller's IP.
func KeyByIP(prefix string) func(c *fiber.Ctx) string {
	return func(c *fiber.Ctx) string {
		return prefix + ":" + c.IP()
	}
}

// RateLimit counts every request against profile and rejects the ones over it
// with 429.
func RateLimit(limiter domain.RateLimiter, profile domain.RateLimitConfig, key func(c *fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		result := limiter.CheckRateLimit(c.Context(), key(c), profile)
		SetRateLimitHeaders(c, profile, result)
		if !result.Allowed {
			status, body := response.FromError(&domain.RateLimitError{Result: result})
			return c.Status(status).JSON(body)
		}
		return c.Next()
	}
}

func SetRateLimitHeaders(c *fiber.Ctx, profile domain.RateLimitConfig, result domain.RateLimitResult) {
	c.Set("X-RateLimit-Limit", strconv.FormatInt(profile.MaxAttempts, 10))
	c.Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime.Unix(), 10))
	if !result.Allowed {
		retryAfter := int64(time.Until(result.ResetTime).Seconds())
		c.Set(fiber.HeaderRetryAfter, strconv.FormatInt(max(retryAfter, 1), 10))
	}
}
