package v1

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lotbajar/social/internal/auth"
	"github.com/lotbajar/social/internal/models"
	"github.com/lotbajar/social/pkg/utils"
)

const invitationTTL = 7 * 24 * time.Hour

// CreateInvitation issues a one-shot registration code for an email
// address and mails it out.
func (api *API) CreateInvitation(c *fiber.Ctx) error {
	type InviteInput struct {
		Email string `json:"email" validate:"required,email"`
	}
	var in InviteInput
	if err := utils.StrictBodyParser(c, &in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request format"})
	}
	if err := api.Validator.Validate(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": err})
	}

	viewer := auth.CurrentUser(c)
	invitation, err := models.NewInvitation(c.Context(), api.Redis, api.DB, in.Email, viewer.ID, invitationTTL)
	if err != nil {
		return api.fail(c, err)
	}

	if err := utils.SendInvitationEmail(c.Context(), api.EmailCfg, invitation.Email, viewer.Username, invitation.Code, invitation.ExpiresAt, api.Logger); err != nil {
		api.Logger.Warn(c.Context()).WithFields("email", invitation.Email, "error", err.Error()).Logs("Invitation email failed")
	}

	api.Logger.Info(c.Context()).WithFields("inviter_id", viewer.ID.String(), "email", invitation.Email).Logs("Invitation created")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Invitation sent",
		"invitation": invitation,
	})
}

// ListMyInvitations lists the invitations the viewer has issued.
func (api *API) ListMyInvitations(c *fiber.Ctx) error {
	page, limit := pagination(c)

	viewer := auth.CurrentUser(c)
	invitations, err := models.GetInvitations(c.Context(), api.DB, &viewer.ID, page, limit)
	if err != nil {
		return api.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"invitations": invitations,
		"page":        page,
		"limit":       limit,
	})
}

// RevokeInvitation cancels a pending invitation. The inviter may revoke
// their own; admins may revoke any.
func (api *API) RevokeInvitation(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return api.fail(c, err)
	}

	invitation, err := models.GetInvitationBy(c.Context(), api.DB, "id = ?", []interface{}{id})
	if err != nil {
		return api.fail(c, err)
	}

	viewer := auth.CurrentUser(c)
	if invitation.InvitedByID != viewer.ID && !viewer.HasCapability(c.Context(), api.Redis, api.DB, models.CapAdminSite) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You can only revoke your own invitations"})
	}

	if err := models.RevokeInvitation(c.Context(), api.DB, id); err != nil {
		return api.fail(c, err)
	}

	api.Logger.Info(c.Context()).WithFields("user_id", viewer.ID.String(), "invitation_id", id.String()).Logs("Invitation revoked")

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Invitation revoked"})
}
