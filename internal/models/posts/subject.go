package models

import (
	"context"

	"github.com/google/uuid"
	user "github.com/lotbajar/social/internal/models/user"
	"github.com/lotbajar/social/pkg/utils"
	"gorm.io/gorm"
)

// Subject types reactions and reports can point at.
const (
	SubjectPost    = "post"
	SubjectComment = "comment"
)

// ValidSubjectType reports whether t names a reactable subject type.
func ValidSubjectType(t string) bool {
	return t == SubjectPost || t == SubjectComment
}

// Subject is the resolved target of a reaction or report: enough of the
// post or comment to run visibility and block checks without loading the
// full rows again.
type Subject struct {
	Type         string
	ID           uuid.UUID
	AuthorID     uuid.UUID
	PostID       uuid.UUID
	PostAuthorID uuid.UUID
	Published    bool
}

// ResolveSubject loads the minimal subject fields. A missing or deleted
// subject is NotFound, as is a comment whose post has gone.
func ResolveSubject(ctx context.Context, db *gorm.DB, subjectType string, subjectID uuid.UUID) (*Subject, error) {
	switch subjectType {
	case SubjectPost:
		var post Post
		if err := db.WithContext(ctx).Select("id", "author_id", "published").Where("id = ?", subjectID).First(&post).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, utils.NewError(utils.ErrNotFound.Code, "Post not found")
			}
			return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to resolve subject")
		}
		return &Subject{
			Type:         SubjectPost,
			ID:           post.ID,
			AuthorID:     post.AuthorID,
			PostID:       post.ID,
			PostAuthorID: post.AuthorID,
			Published:    post.Published,
		}, nil

	case SubjectComment:
		var comment Comment
		if err := db.WithContext(ctx).Select("id", "author_id", "post_id").Where("id = ?", subjectID).First(&comment).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, utils.NewError(utils.ErrNotFound.Code, "Comment not found")
			}
			return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to resolve subject")
		}
		var post Post
		if err := db.WithContext(ctx).Select("id", "author_id", "published").Where("id = ?", comment.PostID).First(&post).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, utils.NewError(utils.ErrNotFound.Code, "Comment not found")
			}
			return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to resolve subject")
		}
		return &Subject{
			Type:         SubjectComment,
			ID:           comment.ID,
			AuthorID:     comment.AuthorID,
			PostID:       post.ID,
			PostAuthorID: post.AuthorID,
			Published:    post.Published,
		}, nil

	default:
		return nil, utils.NewError(utils.ErrBadRequest.Code, "Unknown subject type")
	}
}

// ViewableBy reports whether the viewer can see the subject. Drafts are
// visible only to the post's author; moderators get their bypass at the
// handler layer.
func (s *Subject) ViewableBy(viewer *user.User) bool {
	if s.Published {
		return true
	}
	return viewer != nil && viewer.ID == s.PostAuthorID
}

// AuthorizeReaction decides whether the viewer may react to s. Invisible
// subjects read as NotFound so drafts do not leak their existence. A block
// between the viewer and a comment's author forbids reacting to it.
func AuthorizeReaction(ctx context.Context, db *gorm.DB, viewer *user.User, s *Subject) error {
	if !s.ViewableBy(viewer) {
		return utils.NewError(utils.ErrNotFound.Code, subjectNotFoundMessage(s.Type))
	}
	if s.Type == SubjectComment && viewer != nil && viewer.ID != s.AuthorID {
		blocked, err := user.IsBlockedEitherWay(ctx, db, viewer.ID, s.AuthorID)
		if err != nil {
			return err
		}
		if blocked {
			return utils.NewError(utils.ErrForbidden.Code, "You cannot react to this comment")
		}
	}
	return nil
}

func subjectNotFoundMessage(subjectType string) string {
	if subjectType == SubjectComment {
		return "Comment not found"
	}
	return "Post not found"
}
