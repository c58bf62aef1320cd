package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lotbajar/social/internal/models"
)

// CheckCapability gates a route on the signed-in user's role holding every
// listed capability. Run it after Protected.
func CheckCapability(opt Options, capabilities ...models.CapabilityName) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		for _, capability := range capabilities {
			if !user.HasCapability(c.Context(), opt.Rclient, opt.DB, capability) {
				opt.Logger.Warn(c.Context()).
					WithFields("user_id", user.ID.String(), "capability", string(capability)).
					Logs("Capability denied")
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error": "Insufficient permissions",
				})
			}
		}

		return c.Next()
	}
}
