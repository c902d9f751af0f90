package middleware

// roles.go: role-based access control middleware.
// Platform roles are governor, admin, council and cfo; a user may hold several.
// Ownership rules (the governor of *this* league, the owner of *this* team) are
// checked by the domain services, not here.

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/club-league/internal/models"
)

// RequireRole allows only callers holding at least one of roles and answers
// 403 otherwise:
//
//	v1.Post("/rewards/payout", middleware.RequireRole(models.RoleCFO, models.RoleAdmin), handlers.Payout(svc))
//
// RequireRole must be used AFTER Auth, which stores the caller in c.Locals.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok || !actor.HasRole(roles...) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": fiber.Map{"code": "authorization", "message": "insufficient permissions"},
			})
		}
		return c.Next()
	}
}
