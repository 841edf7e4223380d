package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/MemberPortal/app/models"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/usercontext"
)

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error":   "unauthorized",
		"message": "login required",
	})
}

// RequireAuth ensures a logged-in session and returns JSON 401 otherwise.
func RequireAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return unauthorized(c)
	}
	return c.Next()
}

// RequireRole ensures a logged-in user holding one of the roles.
// Anonymous requests get 401, other roles 403.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := usercontext.GetUserContext(c)
		if !uc.IsLoggedIn {
			return unauthorized(c)
		}
		if !uc.HasRole(roles...) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "forbidden",
				"message": "insufficient permissions",
			})
		}
		return c.Next()
	}
}

var (
	RequireMemberOrAdmin = RequireRole(models.ROLE_MEMBER, models.ROLE_ADMIN)
	RequireAdmin         = RequireRole(models.ROLE_ADMIN)
)
