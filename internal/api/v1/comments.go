package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lotbajar/social/internal/auth"
	"github.com/lotbajar/social/internal/models"
	"github.com/lotbajar/social/pkg/utils"
)

// CreateComment adds a comment to a post, or a reply when
// parent_comment_id is set.
func (api *API) CreateComment(c *fiber.Ctx) error {
	postID, err := paramUUID(c, "id")
	if err != nil {
		return api.fail(c, err)
	}

	type CommentInput struct {
		ParentCommentID *string `json:"parent_comment_id" validate:"omitempty,uuid"`
		Body            string  `json:"body" validate:"required,min=1,max=2000"`
	}
	var in CommentInput
	if err := utils.StrictBodyParser(c, &in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request format"})
	}
	if err := api.Validator.Validate(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": err})
	}

	post, err := models.GetPostBy(c.Context(), api.Redis, api.DB, "id = ?", []interface{}{postID})
	if err != nil {
		return api.fail(c, err)
	}

	viewer := auth.CurrentUser(c)
	if !post.Published && post.AuthorID != viewer.ID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Post not found"})
	}
	if post.AuthorID != viewer.ID {
		blocked, err := models.IsBlockedEitherWay(c.Context(), api.DB, viewer.ID, post.AuthorID)
		if err != nil {
			return api.fail(c, err)
		}
		if blocked {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You cannot comment on this post"})
		}
	}

	comment := &models.Comment{
		Body:     in.Body,
		PostID:   postID,
		AuthorID: viewer.ID,
	}
	if in.ParentCommentID != nil {
		parentID, err := uuid.Parse(*in.ParentCommentID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid parent comment id"})
		}
		comment.ParentCommentID = &parentID
	}

	if err := models.CreateComment(c.Context(), api.Redis, api.DB, comment); err != nil {
		return api.fail(c, err)
	}

	api.Logger.Info(c.Context()).WithFields("user_id", viewer.ID.String(), "comment_id", comment.ID.String()).Logs("Comment created")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Comment created",
		"comment": comment,
	})
}

// ListComments returns a post's comment threads, oldest thread first.
func (api *API) ListComments(c *fiber.Ctx) error {
	postID, err := paramUUID(c, "id")
	if err != nil {
		return api.fail(c, err)
	}
	page, limit := pagination(c)

	post, err := models.GetPostBy(c.Context(), api.Redis, api.DB, "id = ?", []interface{}{postID})
	if err != nil {
		return api.fail(c, err)
	}

	viewer := auth.CurrentUser(c)
	if !post.Published && (viewer == nil || viewer.ID != post.AuthorID) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Post not found"})
	}

	comments, err := models.GetCommentsByPost(c.Context(), api.DB, postID, page, limit)
	if err != nil {
		return api.fail(c, err)
	}

	if viewer != nil {
		hidden, err := models.BlockedIDSet(c.Context(), api.DB, viewer.ID)
		if err != nil {
			return api.fail(c, err)
		}
		comments = filterBlockedComments(comments, hidden)
	}

	commentReactions, err := models.AggregateReactionsForSubjects(c.Context(), api.DB, models.SubjectComment, collectCommentIDs(comments))
	if err != nil {
		return api.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"comments":     renderComments(comments, commentReactions),
		"page_context": api.pageContext(c),
	})
}

// UpdateComment edits the body of the viewer's own comment.
func (api *API) UpdateComment(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return api.fail(c, err)
	}

	type CommentUpdate struct {
		Body string `json:"body" validate:"required,min=1,max=2000"`
	}
	var in CommentUpdate
	if err := utils.StrictBodyParser(c, &in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request format"})
	}
	if err := api.Validator.Validate(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": err})
	}

	comment, err := models.GetCommentBy(c.Context(), api.DB, "id = ?", []interface{}{id})
	if err != nil {
		return api.fail(c, err)
	}

	viewer := auth.CurrentUser(c)
	if comment.AuthorID != viewer.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You can only edit your own comments"})
	}

	updated, err := models.UpdateComment(c.Context(), api.Redis, api.DB, id, in.Body)
	if err != nil {
		return api.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Comment updated",
		"comment": updated,
	})
}

// DeleteComment removes a comment along with its replies and their
// reactions.
func (api *API) DeleteComment(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return api.fail(c, err)
	}

	comment, err := models.GetCommentBy(c.Context(), api.DB, "id = ?", []interface{}{id})
	if err != nil {
		return api.fail(c, err)
	}

	viewer := auth.CurrentUser(c)
	if comment.AuthorID != viewer.ID && !viewer.HasCapability(c.Context(), api.Redis, api.DB, models.CapModerateContent) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You can only delete your own comments"})
	}

	if err := models.DeleteComment(c.Context(), api.Redis, api.DB, id); err != nil {
		return api.fail(c, err)
	}

	api.Logger.Info(c.Context()).WithFields("user_id", viewer.ID.String(), "comment_id", id.String()).Logs("Comment deleted")

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Comment deleted"})
}
