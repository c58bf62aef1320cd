package models

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	user "github.com/lotbajar/social/internal/models/user"
	storage "github.com/lotbajar/social/pkg/redis"
	"github.com/lotbajar/social/pkg/utils"
	"gorm.io/gorm"
)

type Post struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string     `gorm:"size:200;not null;index:idx_post_title" json:"title" validate:"required,min=1,max=200"`
	Slug        string     `gorm:"size:220;not null;uniqueIndex:idx_post_slug" json:"slug" validate:"omitempty,max=220,slug"`
	Body        string     `gorm:"type:text;not null" json:"body" validate:"required,min=1"`
	Excerpt     string     `gorm:"size:300" json:"excerpt" validate:"omitempty,max=300"`
	Published   bool       `gorm:"default:false;index" json:"published"`
	PublishedAt *time.Time `gorm:"index:idx_post_published_at" json:"published_at"`

	AuthorID uuid.UUID  `gorm:"type:uuid;not null;index:idx_post_author" json:"author_id" validate:"required"`
	EditedAt *time.Time `json:"edited_at,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Author    user.User  `gorm:"foreignKey:AuthorID" json:"author" validate:"-"`
	Comments  []Comment  `gorm:"foreignKey:PostID" json:"comments,omitempty" validate:"-"`
	Reactions []Reaction `gorm:"polymorphic:Subject;polymorphicValue:post" json:"reactions,omitempty" validate:"-"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PostOption configures a Post.
type PostOption func(*Post)

// CreatePost persists a new post, deriving slug and excerpt when absent
// and bumping the author's post counter in the same transaction.
func CreatePost(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, post *Post, opts ...PostOption) error {
	for _, opt := range opts {
		opt(post)
	}

	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	post.Title = strings.TrimSpace(post.Title)
	post.Body = strings.TrimSpace(post.Body)
	if post.AuthorID == uuid.Nil || post.Title == "" || post.Body == "" {
		return utils.NewError(utils.ErrBadRequest.Code, "Required fields missing: author_id, title, body")
	}

	if post.Slug == "" {
		post.Slug = slug.Make(post.Title) + "-" + post.ID.String()[:8]
	}
	if post.Excerpt == "" {
		post.Excerpt = deriveExcerpt(post.Body)
	}
	if post.Published && post.PublishedAt == nil {
		now := time.Now()
		post.PublishedAt = &now
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			if err == gorm.ErrDuplicatedKey {
				return utils.NewError(utils.ErrConflict.Code, "A post with this slug already exists")
			}
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to create post")
		}
		return user.UpdateUserStats(ctx, tx, post.AuthorID, "posts_count", 1)
	})
	if err != nil {
		return err
	}

	storage.CacheJSON(ctx, rclient, "post:"+post.ID.String(), post, 10*time.Minute)
	storage.Invalidate(ctx, rclient, "feed:page:1")
	return nil
}

// deriveExcerpt truncates the body to the excerpt column, cutting on the
// last space so words stay whole.
func deriveExcerpt(body string) string {
	const maxExcerpt = 280
	runes := []rune(body)
	if len(runes) <= maxExcerpt {
		return body
	}
	cut := string(runes[:maxExcerpt])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}

// GetPostBy retrieves a post by condition with optional preloads.
func GetPostBy(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, condition string, args []interface{}, preload ...string) (*Post, error) {
	var post Post
	query := db.WithContext(ctx).Where(condition, args...)
	for _, rel := range preload {
		if rel != "" {
			query = query.Preload(rel)
		}
	}
	if err := query.First(&post).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewError(utils.ErrNotFound.Code, "Post not found")
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to fetch post")
	}

	return &post, nil
}

// GetPosts retrieves posts with pagination and optional filters.
func GetPosts(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, page, limit int, filters ...string) ([]Post, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var posts []Post
	query := db.WithContext(ctx).Preload("Author").Limit(limit).Offset((page - 1) * limit).Order("created_at DESC")
	for _, filter := range filters {
		query = query.Where(filter)
	}
	if err := query.Find(&posts).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to fetch posts")
	}

	return posts, nil
}

// GetFeed lists published posts newest first. The first page is cached
// briefly since it is the hottest read in the app.
func GetFeed(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, page, limit int) ([]Post, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	cacheKey := "feed:page:1"
	if page == 1 {
		var cached []Post
		if storage.FetchJSON(ctx, rclient, cacheKey, &cached) {
			return cached, nil
		}
	}

	var posts []Post
	if err := db.WithContext(ctx).Preload("Author").
		Where("published = ?", true).
		Order("published_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to fetch feed")
	}

	if page == 1 {
		storage.CacheJSON(ctx, rclient, cacheKey, posts, time.Minute)
	}
	return posts, nil
}

// UpdatePost applies options to a post. Content edits stamp EditedAt; a
// publish transition stamps PublishedAt once.
func UpdatePost(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, id uuid.UUID, opts ...PostOption) (*Post, error) {
	post, err := GetPostBy(ctx, rclient, db, "id = ?", []interface{}{id})
	if err != nil {
		return nil, err
	}

	prevTitle, prevBody := post.Title, post.Body
	for _, opt := range opts {
		opt(post)
	}

	if post.Title != prevTitle || post.Body != prevBody {
		now := time.Now()
		post.EditedAt = &now
		if post.Excerpt == "" || prevBody != post.Body {
			post.Excerpt = deriveExcerpt(post.Body)
		}
	}
	if post.Published && post.PublishedAt == nil {
		now := time.Now()
		post.PublishedAt = &now
	}

	if err := db.WithContext(ctx).Save(post).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to update post")
	}

	storage.Invalidate(ctx, rclient, "post:"+post.ID.String(), "feed:page:1")
	return post, nil
}

// DeletePost soft-deletes a post and its comments, hard-deletes every
// reaction hanging off either, and unwinds the counters. Reactions go for
// good so the per-user uniqueness slot frees up.
func DeletePost(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, id uuid.UUID) error {
	post, err := GetPostBy(ctx, rclient, db, "id = ?", []interface{}{id})
	if err != nil {
		return err
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comments []Comment
		if err := tx.Where("post_id = ?", id).Find(&comments).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to load comments")
		}

		commentIDs := make([]uuid.UUID, len(comments))
		perAuthor := map[uuid.UUID]int{}
		for i, c := range comments {
			commentIDs[i] = c.ID
			perAuthor[c.AuthorID]++
		}

		if len(commentIDs) > 0 {
			if err := tx.Where("subject_type = ? AND subject_id IN ?", SubjectComment, commentIDs).Delete(&Reaction{}).Error; err != nil {
				return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to delete comment reactions")
			}
		}
		if err := tx.Where("subject_type = ? AND subject_id = ?", SubjectPost, id).Delete(&Reaction{}).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to delete post reactions")
		}
		if err := tx.Where("post_id = ?", id).Delete(&Comment{}).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to delete comments")
		}
		if err := tx.Delete(post).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to delete post")
		}

		for authorID, n := range perAuthor {
			if err := user.UpdateUserStats(ctx, tx, authorID, "comments_count", -n); err != nil {
				return err
			}
		}
		return user.UpdateUserStats(ctx, tx, post.AuthorID, "posts_count", -1)
	})
	if err != nil {
		return err
	}

	storage.Invalidate(ctx, rclient, "post:"+id.String(), "feed:page:1")
	return nil
}
