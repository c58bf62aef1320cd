package models

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	user "github.com/lotbajar/social/internal/models/user"
	storage "github.com/lotbajar/social/pkg/redis"
	"github.com/lotbajar/social/pkg/utils"
	"gorm.io/gorm"
)

type Comment struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Body            string     `gorm:"type:text;not null" json:"body" validate:"required,min=1,max=2000"`
	PostID          uuid.UUID  `gorm:"type:uuid;not null;index:idx_comment_post" json:"post_id" validate:"required"`
	AuthorID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_comment_author" json:"author_id" validate:"required"`
	ParentCommentID *uuid.UUID `gorm:"type:uuid;index:idx_comment_parent" json:"parent_comment_id,omitempty"`
	Edited          bool       `gorm:"default:false" json:"edited"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Author        user.User  `gorm:"foreignKey:AuthorID" json:"author" validate:"-"`
	Post          Post       `gorm:"foreignKey:PostID" json:"post,omitempty" validate:"-"`
	ParentComment *Comment   `gorm:"foreignKey:ParentCommentID" json:"parent_comment,omitempty" validate:"-"`
	Replies       []Comment  `gorm:"foreignKey:ParentCommentID" json:"replies,omitempty" validate:"-"`
	Reactions     []Reaction `gorm:"polymorphic:Subject;polymorphicValue:comment" json:"reactions,omitempty" validate:"-"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CreateComment persists a comment under a post. Threads are one level
// deep: replying to a reply attaches to that reply's thread root. The post
// author is notified unless they wrote the comment themselves.
func CreateComment(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, comment *Comment) error {
	comment.Body = strings.TrimSpace(comment.Body)
	if comment.PostID == uuid.Nil || comment.AuthorID == uuid.Nil || comment.Body == "" {
		return utils.NewError(utils.ErrBadRequest.Code, "Required fields missing: post_id, author_id, body")
	}

	post, err := GetPostBy(ctx, rclient, db, "id = ?", []interface{}{comment.PostID})
	if err != nil {
		return err
	}

	notifyUserID := post.AuthorID
	notifyType := user.NotifyTypeComment
	notifyMessage := "commented on your post"

	if comment.ParentCommentID != nil {
		var parent Comment
		if err := db.WithContext(ctx).Where("id = ? AND post_id = ?", *comment.ParentCommentID, comment.PostID).First(&parent).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.NewError(utils.ErrNotFound.Code, "Parent comment not found")
			}
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to load parent comment")
		}
		if parent.ParentCommentID != nil {
			comment.ParentCommentID = parent.ParentCommentID
		}
		notifyUserID = parent.AuthorID
		notifyType = user.NotifyTypeReply
		notifyMessage = "replied to your comment"
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to create comment")
		}
		if err := user.UpdateUserStats(ctx, tx, comment.AuthorID, "comments_count", 1); err != nil {
			return err
		}
		if notifyUserID != comment.AuthorID {
			return user.NotifyUser(ctx, nil, tx, notifyUserID, notifyType, &comment.AuthorID, SubjectComment, &comment.ID, notifyMessage)
		}
		return nil
	})
	if err != nil {
		return err
	}

	storage.Invalidate(ctx, rclient, "post:"+comment.PostID.String(), "notifcount:"+notifyUserID.String())
	return nil
}

// GetCommentBy retrieves a comment by condition with optional preloads.
func GetCommentBy(ctx context.Context, db *gorm.DB, condition string, args []interface{}, preload ...string) (*Comment, error) {
	var comment Comment
	query := db.WithContext(ctx).Where(condition, args...)
	for _, rel := range preload {
		if rel != "" {
			query = query.Preload(rel)
		}
	}
	if err := query.First(&comment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewError(utils.ErrNotFound.Code, "Comment not found")
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to fetch comment")
	}

	return &comment, nil
}

// GetCommentsByPost lists a post's top-level comments oldest first, each
// with its replies and authors loaded.
func GetCommentsByPost(ctx context.Context, db *gorm.DB, postID uuid.UUID, page, limit int) ([]Comment, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var comments []Comment
	if err := db.WithContext(ctx).
		Preload("Author").
		Preload("Replies", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC") }).
		Preload("Replies.Author").
		Where("post_id = ? AND parent_comment_id IS NULL", postID).
		Order("created_at ASC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&comments).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to fetch comments")
	}
	return comments, nil
}

// CountCommentsForPosts batches live comment counts per post for feed
// cards.
func CountCommentsForPosts(ctx context.Context, db *gorm.DB, postIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		PostID uuid.UUID
		Count  int64
	}
	if err := db.WithContext(ctx).Model(&Comment{}).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to count comments")
	}
	for _, row := range rows {
		counts[row.PostID] = row.Count
	}
	return counts, nil
}

// UpdateComment replaces the comment body and marks it edited.
func UpdateComment(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, id uuid.UUID, body string) (*Comment, error) {
	comment, err := GetCommentBy(ctx, db, "id = ?", []interface{}{id})
	if err != nil {
		return nil, err
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Comment body cannot be empty")
	}

	if err := db.WithContext(ctx).Model(comment).Updates(map[string]interface{}{
		"body":   body,
		"edited": true,
	}).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to update comment")
	}

	comment.Body = body
	comment.Edited = true
	storage.Invalidate(ctx, rclient, "post:"+comment.PostID.String())
	return comment, nil
}

// DeleteComment soft-deletes a comment and its replies and hard-deletes
// their reactions, unwinding the authors' comment counters.
func DeleteComment(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, id uuid.UUID) error {
	comment, err := GetCommentBy(ctx, db, "id = ?", []interface{}{id})
	if err != nil {
		return err
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var replies []Comment
		if err := tx.Where("parent_comment_id = ?", id).Find(&replies).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to load replies")
		}

		ids := []uuid.UUID{id}
		perAuthor := map[uuid.UUID]int{comment.AuthorID: 1}
		for _, r := range replies {
			ids = append(ids, r.ID)
			perAuthor[r.AuthorID]++
		}

		if err := tx.Where("subject_type = ? AND subject_id IN ?", SubjectComment, ids).Delete(&Reaction{}).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to delete comment reactions")
		}
		if err := tx.Where("id IN ?", ids).Delete(&Comment{}).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to delete comment")
		}

		for authorID, n := range perAuthor {
			if err := user.UpdateUserStats(ctx, tx, authorID, "comments_count", -n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	storage.Invalidate(ctx, rclient, "post:"+comment.PostID.String())
	return nil
}
