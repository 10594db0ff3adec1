package middleware

import (
	"strings"

	"go-approval/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// AdminMiddleware guards the shared configuration surfaces (rules,
// categories, default lines). Categories and rules are administrator
// owned; requesters only read them.
func AdminMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
		if !ok || claims == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		for _, role := range claims.Roles {
			if strings.ToLower(role) == "admin" {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Access denied: Admin role required",
		})
	}
}
