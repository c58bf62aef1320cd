package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lotbajar/social/internal/auth"
	"github.com/lotbajar/social/internal/models"
	"github.com/lotbajar/social/pkg/utils"
)

// ListNotifications pages through the viewer's notifications, newest
// first.
func (api *API) ListNotifications(c *fiber.Ctx) error {
	page, limit := pagination(c)

	viewer := auth.CurrentUser(c)
	notifications, err := models.GetNotifications(c.Context(), api.DB, viewer.ID, page, limit)
	if err != nil {
		return api.fail(c, err)
	}

	unread, err := models.CountUnreadNotifications(c.Context(), api.Redis, api.DB, viewer.ID)
	if err != nil {
		return api.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"notifications": notifications,
		"unread_count":  unread,
		"page":          page,
		"limit":         limit,
	})
}

// MarkNotificationsRead marks the given notifications as read, or all of
// the viewer's when ids is empty.
func (api *API) MarkNotificationsRead(c *fiber.Ctx) error {
	type MarkInput struct {
		IDs []string `json:"ids" validate:"omitempty,dive,uuid"`
	}
	var in MarkInput
	if err := utils.StrictBodyParser(c, &in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request format"})
	}
	if err := api.Validator.Validate(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": err})
	}

	ids := make([]uuid.UUID, 0, len(in.IDs))
	for _, raw := range in.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification id"})
		}
		ids = append(ids, id)
	}

	viewer := auth.CurrentUser(c)
	if err := models.MarkNotificationsRead(c.Context(), api.Redis, api.DB, viewer.ID, ids...); err != nil {
		return api.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Notifications marked read"})
}
