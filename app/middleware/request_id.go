package middleware

import (
	"log/slog"

	"thrift-stock-service/app/domain"
	"thrift-stock-service/pkg/ctxutil"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid/v5"
)

func RequestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get("X-Request-ID")
		if reqID == "" {
			uuidV4, err := uuid.NewV4()
			if err != nil {
				slog.WarnContext(c.Context(), "[RequestIDMiddleware] Error generating UUID", "error", err)
			}
			reqID = uuidV4.String()
		}
		c.Locals(ctxutil.RequestIDKey, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// RequestMetaMiddleware records the caller's IP and user agent for session
// binding and rate-limit keys.
func RequestMetaMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(ctxutil.RequestMetaKey, domain.RequestMeta{
			IP:        c.IP(),
			UserAgent: c.Get(fiber.HeaderUserAgent),
		})
		return c.Next()
	}
}
