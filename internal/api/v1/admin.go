package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lotbajar/social/internal/auth"
	"github.com/lotbajar/social/internal/models"
	"github.com/lotbajar/social/pkg/utils"
)

// ListUsers pages through every account for the admin panel.
func (api *API) ListUsers(c *fiber.Ctx) error {
	page, limit := pagination(c)

	users, err := models.GetUsers(c.Context(), api.Redis, api.DB, page, limit)
	if err != nil {
		return api.fail(c, err)
	}

	entries := make([]fiber.Map, len(users))
	for i, u := range users {
		entries[i] = fiber.Map{
			"id":         u.ID,
			"username":   u.Username,
			"email":      u.Email,
			"name":       u.Profile.Name,
			"role":       u.Role.Name,
			"is_active":  u.IsActive,
			"created_at": u.CreatedAt,
			"last_seen":  u.Stats.LastSeen,
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"users": entries,
		"page":  page,
		"limit": limit,
	})
}

// SetUserRole reassigns a user's role. Existing refresh sessions carry the
// old role id and die on their next rotation.
func (api *API) SetUserRole(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return api.fail(c, err)
	}

	type RoleInput struct {
		Role string `json:"role" validate:"required,oneof=member moderator admin"`
	}
	var in RoleInput
	if err := utils.StrictBodyParser(c, &in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request format"})
	}
	if err := api.Validator.Validate(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": err})
	}

	viewer := auth.CurrentUser(c)
	if viewer.ID == id {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You cannot change your own role"})
	}

	role, err := models.GetRoleBy(c.Context(), api.DB, "name = ?", in.Role)
	if err != nil {
		return api.fail(c, err)
	}

	updated, err := models.UpdateUser(c.Context(), api.Redis, api.DB, id, models.WithRoleID(role.ID))
	if err != nil {
		return api.fail(c, err)
	}

	api.Logger.Info(c.Context()).WithFields("admin_id", viewer.ID.String(), "user_id", id.String(), "role", in.Role).Logs("User role changed")

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Role updated",
		"user":    publicUser(updated),
	})
}

// SetUserStatus activates or deactivates an account. Deactivated users
// cannot log in and their live sessions fail on the next request.
func (api *API) SetUserStatus(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return api.fail(c, err)
	}

	type StatusInput struct {
		Active *bool `json:"active" validate:"required"`
	}
	var in StatusInput
	if err := utils.StrictBodyParser(c, &in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request format"})
	}
	if err := api.Validator.Validate(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": err})
	}

	viewer := auth.CurrentUser(c)
	if viewer.ID == id {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You cannot change your own status"})
	}

	updated, err := models.UpdateUser(c.Context(), api.Redis, api.DB, id, models.WithIsActive(*in.Active))
	if err != nil {
		return api.fail(c, err)
	}

	api.Logger.Info(c.Context()).WithFields("admin_id", viewer.ID.String(), "user_id", id.String(), "active", *in.Active).Logs("User status changed")

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Status updated",
		"user":    publicUser(updated),
	})
}

// SiteStats reports row counts for the admin dashboard.
func (api *API) SiteStats(c *fiber.Ctx) error {
	ctx := c.Context()

	counts := fiber.Map{}
	for name, model := range map[string]interface{}{
		"users":     &models.User{},
		"posts":     &models.Post{},
		"comments":  &models.Comment{},
		"reactions": &models.Reaction{},
		"follows":   &models.Follow{},
	} {
		var n int64
		if err := api.DB.WithContext(ctx).Model(model).Count(&n).Error; err != nil {
			return api.fail(c, err)
		}
		counts[name] = n
	}

	openReports, err := models.CountReports(ctx, api.DB, models.ReportStatusOpen)
	if err != nil {
		return api.fail(c, err)
	}
	counts["open_reports"] = openReports

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"stats": counts})
}

// ListInvitations pages through every invitation, or one inviter's with
// ?inviter_id=.
func (api *API) ListInvitations(c *fiber.Ctx) error {
	page, limit := pagination(c)

	var filter *uuid.UUID
	if q := c.Query("inviter_id"); q != "" {
		id, err := uuid.Parse(q)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid inviter id"})
		}
		filter = &id
	}

	invitations, err := models.GetInvitations(c.Context(), api.DB, filter, page, limit)
	if err != nil {
		return api.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"invitations": invitations,
		"page":        page,
		"limit":       limit,
	})
}
