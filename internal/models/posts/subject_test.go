package models_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lotbajar/social/internal/models"
	"github.com/lotbajar/social/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSubject(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := newTestUser(t, db, "author")
	commenter := newTestUser(t, db, "commenter")
	post := newTestPost(t, db, author, "Resolvable")
	comment := newTestComment(t, db, post, commenter, "hi")

	subject, err := models.ResolveSubject(ctx, db, models.SubjectPost, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubjectPost, subject.Type)
	assert.Equal(t, author.ID, subject.AuthorID)
	assert.Equal(t, author.ID, subject.PostAuthorID)
	assert.True(t, subject.Published)

	subject, err = models.ResolveSubject(ctx, db, models.SubjectComment, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubjectComment, subject.Type)
	assert.Equal(t, commenter.ID, subject.AuthorID)
	assert.Equal(t, post.ID, subject.PostID)
	assert.Equal(t, author.ID, subject.PostAuthorID)

	_, err = models.ResolveSubject(ctx, db, models.SubjectPost, uuid.New())
	require.Error(t, err)
	assert.Equal(t, utils.ErrNotFound.Code, utils.StatusOf(err))

	_, err = models.ResolveSubject(ctx, db, "series", post.ID)
	require.Error(t, err)
	assert.Equal(t, utils.ErrBadRequest.Code, utils.StatusOf(err))
}

func TestSubjectViewableBy(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := newTestUser(t, db, "author")
	stranger := newTestUser(t, db, "stranger")

	draft := &models.Post{Title: "Secret", Body: "wip", AuthorID: author.ID}
	require.NoError(t, models.CreatePost(ctx, nil, db, draft))

	subject, err := models.ResolveSubject(ctx, db, models.SubjectPost, draft.ID)
	require.NoError(t, err)

	assert.True(t, subject.ViewableBy(author))
	assert.False(t, subject.ViewableBy(stranger))
	assert.False(t, subject.ViewableBy(nil), "anonymous viewers cannot see drafts")

	published := newTestPost(t, db, author, "Public")
	open, err := models.ResolveSubject(ctx, db, models.SubjectPost, published.ID)
	require.NoError(t, err)
	assert.True(t, open.ViewableBy(nil))
}

func TestAuthorizeReaction(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := newTestUser(t, db, "author")
	commenter := newTestUser(t, db, "commenter")
	reactor := newTestUser(t, db, "reactor")
	post := newTestPost(t, db, author, "Reactable")
	comment := newTestComment(t, db, post, commenter, "react to me")

	subject, err := models.ResolveSubject(ctx, db, models.SubjectComment, comment.ID)
	require.NoError(t, err)
	require.NoError(t, models.AuthorizeReaction(ctx, db, reactor, subject))

	// A block between reactor and comment author forbids the reaction.
	require.NoError(t, models.BlockUser(ctx, nil, db, commenter.ID, reactor.ID))
	err = models.AuthorizeReaction(ctx, db, reactor, subject)
	require.Error(t, err)
	assert.Equal(t, utils.ErrForbidden.Code, utils.StatusOf(err))

	// The author's own comment is exempt from the block check.
	require.NoError(t, models.AuthorizeReaction(ctx, db, commenter, subject))

	// Drafts read as missing rather than forbidden.
	draft := &models.Post{Title: "Unseen", Body: "wip", AuthorID: author.ID}
	require.NoError(t, models.CreatePost(ctx, nil, db, draft))
	hidden, err := models.ResolveSubject(ctx, db, models.SubjectPost, draft.ID)
	require.NoError(t, err)

	err = models.AuthorizeReaction(ctx, db, reactor, hidden)
	require.Error(t, err)
	assert.Equal(t, utils.ErrNotFound.Code, utils.StatusOf(err))

	require.NoError(t, models.AuthorizeReaction(ctx, db, author, hidden))
}
