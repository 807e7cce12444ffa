package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/project-tracker/backend/internal/auth"
	"github.com/project-tracker/backend/internal/config"
	"github.com/project-tracker/backend/internal/models"
	"github.com/project-tracker/backend/internal/rbac"
	"go.uber.org/zap"
)

const CtxIdentity = "identity"

func AuthMiddleware(cfg *config.Config, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization format"})
		}

		claims, err := auth.ParseJWT(cfg.JWTSecret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		c.Locals(CtxIdentity, claims.Identity(c.IP()))
		return c.Next()
	}
}

// GetIdentity returns the authenticated caller, or nil outside AuthMiddleware.
func GetIdentity(c *fiber.Ctx) *models.Identity {
	id, _ := c.Locals(CtxIdentity).(*models.Identity)
	return id
}

// ElevatedMiddleware requires an admin or owner role.
func ElevatedMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := GetIdentity(c)
		if id == nil || !rbac.IsElevated(id.Role) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin access required"})
		}
		return c.Next()
	}
}
