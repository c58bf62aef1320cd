package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lotbajar/social/internal/auth"
	"github.com/lotbajar/social/internal/models"
	"github.com/lotbajar/social/pkg/utils"
)

// ToggleReaction is one press of an emoji button: create, replace or
// delete the caller's single reaction on the subject. The response always
// carries the outcome and the subject's fresh aggregate so the client can
// redraw the whole reaction row from it.
func (api *API) ToggleReaction(c *fiber.Ctx) error {
	type ToggleInput struct {
		SubjectType string    `json:"subject_type" validate:"required,oneof=post comment"`
		SubjectID   uuid.UUID `json:"subject_id" validate:"required"`
		Emoji       string    `json:"emoji" validate:"required,emoji_grapheme"`
	}
	var in ToggleInput
	if err := utils.StrictBodyParser(c, &in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request format"})
	}
	if err := api.Validator.Validate(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": err})
	}

	viewer := auth.CurrentUser(c)

	subject, err := models.ResolveSubject(c.Context(), api.DB, in.SubjectType, in.SubjectID)
	if err != nil {
		return api.fail(c, err)
	}
	if err := models.AuthorizeReaction(c.Context(), api.DB, viewer, subject); err != nil {
		return api.fail(c, err)
	}

	outcome, err := models.ToggleReaction(c.Context(), api.DB, in.SubjectType, in.SubjectID, viewer.ID, in.Emoji,
		api.Config.Reactions.MaxDistinctEmoji)
	if err != nil {
		return api.fail(c, err)
	}

	groups, err := models.AggregateReactions(c.Context(), api.DB, in.SubjectType, in.SubjectID)
	if err != nil {
		return api.fail(c, err)
	}

	api.Logger.Info(c.Context()).
		WithFields("user_id", viewer.ID.String(), "subject_type", in.SubjectType, "subject_id", in.SubjectID.String(), "outcome", string(outcome)).
		Logs("Reaction toggled")

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":          string(outcome),
		"reactions":       groups,
		"viewer_reaction": viewerReactionOf(api, c, in.SubjectType, in.SubjectID),
	})
}

// ListReactions serves a subject's reaction row: the aggregate per emoji
// plus one page of reactors for the selected emoji. With no ?emoji= the
// top emoji is selected; a subject with no reactions yields empty lists.
func (api *API) ListReactions(c *fiber.Ctx) error {
	subjectType := c.Query("subject_type")
	if !models.ValidSubjectType(subjectType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown subject type"})
	}
	subjectID, err := uuid.Parse(c.Query("subject_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid subject_id"})
	}

	viewer := auth.CurrentUser(c)

	subject, err := models.ResolveSubject(c.Context(), api.DB, subjectType, subjectID)
	if err != nil {
		return api.fail(c, err)
	}
	if !subject.ViewableBy(viewer) {
		return api.fail(c, utils.NewError(utils.ErrNotFound.Code, "Resource not found"))
	}

	groups, err := models.AggregateReactions(c.Context(), api.DB, subjectType, subjectID)
	if err != nil {
		return api.fail(c, err)
	}

	selected := c.Query("emoji")
	if selected != "" && !utils.ValidEmoji(selected) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid emoji"})
	}
	if selected == "" && len(groups) > 0 {
		selected = groups[0].Emoji
	}

	var cursor *models.ReactorCursor
	if token := c.Query("cursor"); token != "" {
		if cursor, err = models.DecodeReactorCursor(token); err != nil {
			return api.fail(c, err)
		}
	}

	users := make([]models.UserCard, 0)
	next := ""
	if selected != "" {
		if users, next, err = models.ListReactors(c.Context(), api.DB, subjectType, subjectID, selected, cursor); err != nil {
			return api.fail(c, err)
		}
	}

	resp := fiber.Map{
		"reactions":       groups,
		"selected_emoji":  selected,
		"users":           users,
		"next_cursor":     nil,
		"viewer_reaction": viewerReactionOf(api, c, subjectType, subjectID),
		"page_context":    api.pageContext(c),
	}
	if next != "" {
		resp["next_cursor"] = next
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// viewerReactionOf returns the signed-in viewer's current emoji on the
// subject, or nil for anonymous viewers and non-reactors.
func viewerReactionOf(api *API, c *fiber.Ctx, subjectType string, subjectID uuid.UUID) interface{} {
	viewer := auth.CurrentUser(c)
	if viewer == nil {
		return nil
	}
	reaction, err := models.UserReaction(c.Context(), api.DB, subjectType, subjectID, viewer.ID)
	if err != nil || reaction == nil {
		return nil
	}
	return reaction.Emoji
}
