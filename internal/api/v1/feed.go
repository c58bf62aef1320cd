package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lotbajar/social/internal/auth"
	"github.com/lotbajar/social/internal/models"
)

// Feed serves the reverse-chronological list of published posts as cards:
// author, excerpt, reaction aggregate and comment count per post.
func (api *API) Feed(c *fiber.Ctx) error {
	page, limit := pagination(c)

	posts, err := models.GetFeed(c.Context(), api.Redis, api.DB, page, limit)
	if err != nil {
		return api.fail(c, err)
	}

	viewer := auth.CurrentUser(c)
	if viewer != nil {
		hidden, err := models.BlockedIDSet(c.Context(), api.DB, viewer.ID)
		if err != nil {
			return api.fail(c, err)
		}
		if len(hidden) > 0 {
			kept := posts[:0]
			for _, post := range posts {
				if _, ok := hidden[post.AuthorID]; !ok {
					kept = append(kept, post)
				}
			}
			posts = kept
		}
	}

	postIDs := make([]uuid.UUID, len(posts))
	for i, post := range posts {
		postIDs[i] = post.ID
	}

	reactions, err := models.AggregateReactionsForSubjects(c.Context(), api.DB, models.SubjectPost, postIDs)
	if err != nil {
		return api.fail(c, err)
	}
	commentCounts, err := models.CountCommentsForPosts(c.Context(), api.DB, postIDs)
	if err != nil {
		return api.fail(c, err)
	}

	cards := make([]fiber.Map, len(posts))
	for i, post := range posts {
		groups := reactions[post.ID]
		if groups == nil {
			groups = []models.ReactionGroup{}
		}
		cards[i] = fiber.Map{
			"id":            post.ID,
			"title":         post.Title,
			"slug":          post.Slug,
			"excerpt":       post.Excerpt,
			"author":        post.Author.Card(),
			"published_at":  post.PublishedAt,
			"reactions":     groups,
			"comment_count": commentCounts[post.ID],
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"posts":        cards,
		"page":         page,
		"limit":        limit,
		"page_context": api.pageContext(c),
	})
}
