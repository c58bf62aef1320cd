package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lotbajar/social/internal/auth"
	"github.com/lotbajar/social/internal/models"
	"github.com/lotbajar/social/pkg/utils"
)

// CreatePost publishes a new post (or saves a draft when published is
// false).
func (api *API) CreatePost(c *fiber.Ctx) error {
	type PostInput struct {
		Title     string `json:"title" validate:"required,min=1,max=200"`
		Body      string `json:"body" validate:"required,min=1"`
		Excerpt   string `json:"excerpt" validate:"omitempty,max=300"`
		Published *bool  `json:"published"`
	}
	var in PostInput
	if err := utils.StrictBodyParser(c, &in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request format"})
	}
	if err := api.Validator.Validate(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": err})
	}

	viewer := auth.CurrentUser(c)
	published := true
	if in.Published != nil {
		published = *in.Published
	}

	post := &models.Post{
		Title:    in.Title,
		Body:     in.Body,
		Excerpt:  in.Excerpt,
		AuthorID: viewer.ID,
	}
	if err := models.CreatePost(c.Context(), api.Redis, api.DB, post, models.WithPublished(published)); err != nil {
		return api.fail(c, err)
	}

	api.Logger.Info(c.Context()).WithFields("user_id", viewer.ID.String(), "post_id", post.ID.String()).Logs("Post created")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Post created",
		"post":    post,
	})
}

// GetPost serves a post page by slug: the post, its comment threads with
// per-comment reaction rows, and the post's own reaction aggregate.
func (api *API) GetPost(c *fiber.Ctx) error {
	post, err := models.GetPostBy(c.Context(), api.Redis, api.DB, "slug = ?", []interface{}{c.Params("slug")}, "Author")
	if err != nil {
		return api.fail(c, err)
	}

	viewer := auth.CurrentUser(c)
	if !post.Published && (viewer == nil || (viewer.ID != post.AuthorID && !viewer.HasCapability(c.Context(), api.Redis, api.DB, models.CapModerateContent))) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Post not found"})
	}

	var hidden map[uuid.UUID]struct{}
	if viewer != nil {
		if hidden, err = models.BlockedIDSet(c.Context(), api.DB, viewer.ID); err != nil {
			return api.fail(c, err)
		}
		if _, ok := hidden[post.AuthorID]; ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Post not found"})
		}
	}

	comments, err := models.GetCommentsByPost(c.Context(), api.DB, post.ID, 1, 100)
	if err != nil {
		return api.fail(c, err)
	}
	comments = filterBlockedComments(comments, hidden)

	commentIDs := collectCommentIDs(comments)
	commentReactions, err := models.AggregateReactionsForSubjects(c.Context(), api.DB, models.SubjectComment, commentIDs)
	if err != nil {
		return api.fail(c, err)
	}

	postReactions, err := models.AggregateReactions(c.Context(), api.DB, models.SubjectPost, post.ID)
	if err != nil {
		return api.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"post":            post,
		"reactions":       postReactions,
		"viewer_reaction": viewerReactionOf(api, c, models.SubjectPost, post.ID),
		"comments":        renderComments(comments, commentReactions),
		"page_context":    api.pageContext(c),
	})
}

// UpdatePost edits a post. Authors edit their own; moderators may
// unpublish anything but not rewrite it.
func (api *API) UpdatePost(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return api.fail(c, err)
	}

	type PostUpdate struct {
		Title     *string `json:"title" validate:"omitempty,min=1,max=200"`
		Body      *string `json:"body" validate:"omitempty,min=1"`
		Excerpt   *string `json:"excerpt" validate:"omitempty,max=300"`
		Published *bool   `json:"published"`
	}
	var in PostUpdate
	if err := utils.StrictBodyParser(c, &in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request format"})
	}
	if err := api.Validator.Validate(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": err})
	}

	post, err := models.GetPostBy(c.Context(), api.Redis, api.DB, "id = ?", []interface{}{id})
	if err != nil {
		return api.fail(c, err)
	}

	viewer := auth.CurrentUser(c)
	isOwner := post.AuthorID == viewer.ID
	isModerator := viewer.HasCapability(c.Context(), api.Redis, api.DB, models.CapModerateContent)
	if !isOwner && !isModerator {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You can only edit your own posts"})
	}
	if !isOwner && (in.Title != nil || in.Body != nil || in.Excerpt != nil) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Moderators may only change publication state"})
	}

	var opts []models.PostOption
	if in.Title != nil {
		opts = append(opts, models.WithPostTitle(*in.Title))
	}
	if in.Body != nil {
		opts = append(opts, models.WithPostBody(*in.Body))
	}
	if in.Excerpt != nil {
		opts = append(opts, models.WithPostExcerpt(*in.Excerpt))
	}
	if in.Published != nil {
		opts = append(opts, models.WithPublished(*in.Published))
	}
	if len(opts) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Nothing to update"})
	}

	updated, err := models.UpdatePost(c.Context(), api.Redis, api.DB, id, opts...)
	if err != nil {
		return api.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post updated",
		"post":    updated,
	})
}

// DeletePost removes a post, its comments and every reaction on either.
func (api *API) DeletePost(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return api.fail(c, err)
	}

	post, err := models.GetPostBy(c.Context(), api.Redis, api.DB, "id = ?", []interface{}{id})
	if err != nil {
		return api.fail(c, err)
	}

	viewer := auth.CurrentUser(c)
	if post.AuthorID != viewer.ID && !viewer.HasCapability(c.Context(), api.Redis, api.DB, models.CapModerateContent) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You can only delete your own posts"})
	}

	if err := models.DeletePost(c.Context(), api.Redis, api.DB, id); err != nil {
		return api.fail(c, err)
	}

	api.Logger.Info(c.Context()).WithFields("user_id", viewer.ID.String(), "post_id", id.String()).Logs("Post deleted")

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Post deleted"})
}

// filterBlockedComments drops threads and replies whose author is in the
// hidden set.
func filterBlockedComments(comments []models.Comment, hidden map[uuid.UUID]struct{}) []models.Comment {
	if len(hidden) == 0 {
		return comments
	}

	kept := comments[:0]
	for _, comment := range comments {
		if _, ok := hidden[comment.AuthorID]; ok {
			continue
		}
		replies := comment.Replies[:0]
		for _, reply := range comment.Replies {
			if _, ok := hidden[reply.AuthorID]; !ok {
				replies = append(replies, reply)
			}
		}
		comment.Replies = replies
		kept = append(kept, comment)
	}
	return kept
}

func collectCommentIDs(comments []models.Comment) []uuid.UUID {
	var ids []uuid.UUID
	for _, comment := range comments {
		ids = append(ids, comment.ID)
		for _, reply := range comment.Replies {
			ids = append(ids, reply.ID)
		}
	}
	return ids
}

// renderComments shapes comment threads for the post page, attaching each
// comment's reaction aggregate.
func renderComments(comments []models.Comment, reactions map[uuid.UUID][]models.ReactionGroup) []fiber.Map {
	rendered := make([]fiber.Map, len(comments))
	for i, comment := range comments {
		replies := make([]fiber.Map, len(comment.Replies))
		for j, reply := range comment.Replies {
			replies[j] = renderComment(reply, reactions)
		}
		entry := renderComment(comment, reactions)
		entry["replies"] = replies
		rendered[i] = entry
	}
	return rendered
}

func renderComment(comment models.Comment, reactions map[uuid.UUID][]models.ReactionGroup) fiber.Map {
	groups := reactions[comment.ID]
	if groups == nil {
		groups = []models.ReactionGroup{}
	}
	return fiber.Map{
		"id":         comment.ID,
		"body":       comment.Body,
		"author":     comment.Author.Card(),
		"edited":     comment.Edited,
		"created_at": comment.CreatedAt,
		"reactions":  groups,
	}
}
