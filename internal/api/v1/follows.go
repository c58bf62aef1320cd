package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lotbajar/social/internal/auth"
	"github.com/lotbajar/social/internal/models"
)

// FollowUser subscribes the viewer to another user's posts.
func (api *API) FollowUser(c *fiber.Ctx) error {
	target, err := models.GetUserBy(c.Context(), api.Redis, api.DB, "username = ?", []interface{}{c.Params("username")})
	if err != nil {
		return api.fail(c, err)
	}

	viewer := auth.CurrentUser(c)
	if err := models.FollowUser(c.Context(), api.Redis, api.DB, viewer.ID, target.ID); err != nil {
		return api.fail(c, err)
	}

	api.Logger.Info(c.Context()).WithFields("follower_id", viewer.ID.String(), "following_id", target.ID.String()).Logs("Follow created")

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Following user"})
}

// UnfollowUser removes the viewer's follow edge.
func (api *API) UnfollowUser(c *fiber.Ctx) error {
	target, err := models.GetUserBy(c.Context(), api.Redis, api.DB, "username = ?", []interface{}{c.Params("username")})
	if err != nil {
		return api.fail(c, err)
	}

	viewer := auth.CurrentUser(c)
	if err := models.UnfollowUser(c.Context(), api.Redis, api.DB, viewer.ID, target.ID); err != nil {
		return api.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Unfollowed user"})
}

// ListFollowers lists the users following the given user, most recent
// first.
func (api *API) ListFollowers(c *fiber.Ctx) error {
	target, err := models.GetUserBy(c.Context(), api.Redis, api.DB, "username = ?", []interface{}{c.Params("username")})
	if err != nil {
		return api.fail(c, err)
	}
	page, limit := pagination(c)

	followers, err := models.GetFollowers(c.Context(), api.DB, target.ID, page, limit)
	if err != nil {
		return api.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"users": userCards(followers),
		"page":  page,
		"limit": limit,
	})
}

// ListFollowing lists the users the given user follows, most recent
// first.
func (api *API) ListFollowing(c *fiber.Ctx) error {
	target, err := models.GetUserBy(c.Context(), api.Redis, api.DB, "username = ?", []interface{}{c.Params("username")})
	if err != nil {
		return api.fail(c, err)
	}
	page, limit := pagination(c)

	following, err := models.GetFollowing(c.Context(), api.DB, target.ID, page, limit)
	if err != nil {
		return api.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"users": userCards(following),
		"page":  page,
		"limit": limit,
	})
}

func userCards(users []models.User) []models.UserCard {
	cards := make([]models.UserCard, len(users))
	for i := range users {
		cards[i] = users[i].Card()
	}
	return cards
}
