package middleware

import (
	"crypto/subtle"
	"log/slog"
	"slices"

	"thrift-stock-service/app/domain"
	"thrift-stock-service/app/handler/api/response"
	"thrift-stock-service/config"
	"thrift-stock-service/pkg"
	"thrift-stock-service/pkg/ctxutil"

	"github.com/gofiber/fiber/v2"
)

type AuthInternalHeader string

const (
	AuthInternalHeaderKey AuthInternalHeader = "X-Internal-Auth"
)

// Authorize admits callers holding one of roles. Services present the shared
// X-Internal-Auth token; admins present a bearer JWT from the login endpoint.
func Authorize(cfg *config.Config, roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, err := resolveRole(c, cfg)
		if err != nil {
			slog.WarnContext(c.Context(), "[middleware] Authorize", "resolveRole", err, "path", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(response.Error(domain.ErrUnauthorized))
		}

		if !slices.Contains(roles, role) {
			slog.WarnContext(c.Context(), "[middleware] Authorize", "role", role, "path", c.Path())
			return c.Status(fiber.StatusForbidden).JSON(response.Error(domain.ErrForbidden))
		}

		c.Locals(ctxutil.RoleKey, role)
		return c.Next()
	}
}

func resolveRole(c *fiber.Ctx, cfg *config.Config) (domain.Role, error) {
	if internal := c.Get(string(AuthInternalHeaderKey)); internal != "" {
		if subtle.ConstantTimeCompare([]byte(internal), []byte(cfg.InternalAuthHeader)) != 1 {
			return "", domain.ErrUnauthorized
		}
		return domain.RoleService, nil
	}

	token, err := pkg.GetTokenFromHeaders(c.Get("Authorization"))
	if err != nil {
		return "", err
	}

	claims, err := pkg.ParseJwtToken(token, cfg.Jwt.SecretKey)
	if err != nil {
		return "", err
	}

	if domain.Role(claims.Role) != domain.RoleAdmin {
		return "", domain.ErrUnauthorized
	}
	return domain.RoleAdmin, nil
}
