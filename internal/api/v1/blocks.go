package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lotbajar/social/internal/auth"
	"github.com/lotbajar/social/internal/models"
)

// BlockUser blocks another user. Any follow edges between the two are
// severed and are not restored on unblock.
func (api *API) BlockUser(c *fiber.Ctx) error {
	target, err := models.GetUserBy(c.Context(), api.Redis, api.DB, "username = ?", []interface{}{c.Params("username")})
	if err != nil {
		return api.fail(c, err)
	}

	viewer := auth.CurrentUser(c)
	if err := models.BlockUser(c.Context(), api.Redis, api.DB, viewer.ID, target.ID); err != nil {
		return api.fail(c, err)
	}

	api.Logger.Info(c.Context()).WithFields("blocker_id", viewer.ID.String(), "blocked_id", target.ID.String()).Logs("User blocked")

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "User blocked"})
}

// UnblockUser lifts a block.
func (api *API) UnblockUser(c *fiber.Ctx) error {
	target, err := models.GetUserBy(c.Context(), api.Redis, api.DB, "username = ?", []interface{}{c.Params("username")})
	if err != nil {
		return api.fail(c, err)
	}

	viewer := auth.CurrentUser(c)
	if err := models.UnblockUser(c.Context(), api.Redis, api.DB, viewer.ID, target.ID); err != nil {
		return api.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "User unblocked"})
}

// ListBlocked lists the users the viewer has blocked.
func (api *API) ListBlocked(c *fiber.Ctx) error {
	page, limit := pagination(c)

	viewer := auth.CurrentUser(c)
	blocked, err := models.GetBlockedUsers(c.Context(), api.DB, viewer.ID, page, limit)
	if err != nil {
		return api.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"users": userCards(blocked),
		"page":  page,
		"limit": limit,
	})
}
