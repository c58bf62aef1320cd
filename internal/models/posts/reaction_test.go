package models_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lotbajar/social/internal/models"
	"github.com/lotbajar/social/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestToggleReactionLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := newTestUser(t, db, "author")
	reactor := newTestUser(t, db, "reactor")
	post := newTestPost(t, db, author, "Hello World")

	outcome, err := models.ToggleReaction(ctx, db, models.SubjectPost, post.ID, reactor.ID, "👍", 0)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionCreated, outcome)

	created, err := models.UserReaction(ctx, db, models.SubjectPost, post.ID, reactor.ID)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "👍", created.Emoji)

	outcome, err = models.ToggleReaction(ctx, db, models.SubjectPost, post.ID, reactor.ID, "❤️", 0)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionReplaced, outcome)

	replaced, err := models.UserReaction(ctx, db, models.SubjectPost, post.ID, reactor.ID)
	require.NoError(t, err)
	require.NotNil(t, replaced)
	assert.Equal(t, "❤️", replaced.Emoji)
	assert.Equal(t, created.ID, replaced.ID, "replace must reuse the row, not delete and insert")

	outcome, err = models.ToggleReaction(ctx, db, models.SubjectPost, post.ID, reactor.ID, "❤️", 0)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionDeleted, outcome)

	gone, err := models.UserReaction(ctx, db, models.SubjectPost, post.ID, reactor.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestToggleReactionKeepsSingleRow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := newTestUser(t, db, "author")
	reactor := newTestUser(t, db, "reactor")
	post := newTestPost(t, db, author, "One Row Only")

	for _, emoji := range []string{"👍", "❤️", "🎉", "🎉", "👍", "🔥"} {
		_, err := models.ToggleReaction(ctx, db, models.SubjectPost, post.ID, reactor.ID, emoji, 0)
		require.NoError(t, err)

		var count int64
		require.NoError(t, db.Model(&models.Reaction{}).
			Where("subject_type = ? AND subject_id = ? AND user_id = ?", models.SubjectPost, post.ID, reactor.ID).
			Count(&count).Error)
		assert.LessOrEqual(t, count, int64(1))
	}
}

func TestToggleReactionRoundTripRestoresAggregate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := newTestUser(t, db, "author")
	bystander := newTestUser(t, db, "bystander")
	reactor := newTestUser(t, db, "reactor")
	post := newTestPost(t, db, author, "Round Trip")

	_, err := models.ToggleReaction(ctx, db, models.SubjectPost, post.ID, bystander.ID, "👍", 0)
	require.NoError(t, err)

	before, err := models.AggregateReactions(ctx, db, models.SubjectPost, post.ID)
	require.NoError(t, err)

	_, err = models.ToggleReaction(ctx, db, models.SubjectPost, post.ID, reactor.ID, "🎉", 0)
	require.NoError(t, err)
	_, err = models.ToggleReaction(ctx, db, models.SubjectPost, post.ID, reactor.ID, "🎉", 0)
	require.NoError(t, err)

	after, err := models.AggregateReactions(ctx, db, models.SubjectPost, post.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestToggleReactionDistinctEmojiCap(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := newTestUser(t, db, "author")
	post := newTestPost(t, db, author, "Crowded")

	emojis := []string{"😀", "😁", "😂", "🤣", "😃", "😄", "😅", "😆", "😉", "😊"}
	require.Len(t, emojis, models.DefaultMaxDistinctEmoji)

	users := make([]*models.User, len(emojis))
	for i, emoji := range emojis {
		users[i] = newTestUser(t, db, fmt.Sprintf("reactor%02d", i))
		outcome, err := models.ToggleReaction(ctx, db, models.SubjectPost, post.ID, users[i].ID, emoji, 0)
		require.NoError(t, err)
		require.Equal(t, models.ReactionCreated, outcome)
	}

	latecomer := newTestUser(t, db, "latecomer")
	_, err := models.ToggleReaction(ctx, db, models.SubjectPost, post.ID, latecomer.ID, "🚀", 0)
	require.Error(t, err)
	assert.Equal(t, utils.ErrUnprocessable.Code, utils.StatusOf(err))

	// An emoji already on the subject is still open to newcomers.
	outcome, err := models.ToggleReaction(ctx, db, models.SubjectPost, post.ID, latecomer.ID, "😀", 0)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionCreated, outcome)

	// Deleting the sole 😊 frees a slot for a new distinct emoji.
	outcome, err = models.ToggleReaction(ctx, db, models.SubjectPost, post.ID, users[9].ID, "😊", 0)
	require.NoError(t, err)
	require.Equal(t, models.ReactionDeleted, outcome)

	outcome, err = models.ToggleReaction(ctx, db, models.SubjectPost, post.ID, users[9].ID, "🚀", 0)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionCreated, outcome)
}

func TestToggleReactionValidation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := newTestUser(t, db, "author")
	reactor := newTestUser(t, db, "reactor")
	post := newTestPost(t, db, author, "Strict")

	for name, emoji := range map[string]string{
		"empty":          "",
		"plain text":     "ok",
		"two graphemes":  "👍👍",
		"invalid utf8":   string([]byte{0xff, 0xfe}),
		"too many runes": "👨‍👩‍👧‍👦👨‍👩‍👧‍👦👨‍👩‍👧‍👦",
	} {
		_, err := models.ToggleReaction(ctx, db, models.SubjectPost, post.ID, reactor.ID, emoji, 0)
		require.Error(t, err, name)
		assert.Equal(t, utils.ErrBadRequest.Code, utils.StatusOf(err), name)
	}

	// Multi-codepoint single graphemes are legitimate emoji.
	for _, emoji := range []string{"👍🏽", "👨‍👩‍👧"} {
		outcome, err := models.ToggleReaction(ctx, db, models.SubjectPost, post.ID, reactor.ID, emoji, 0)
		require.NoError(t, err, emoji)
		require.NotEqual(t, models.ToggleOutcome(""), outcome)
		_, err = models.ToggleReaction(ctx, db, models.SubjectPost, post.ID, reactor.ID, emoji, 0)
		require.NoError(t, err)
	}

	_, err := models.ToggleReaction(ctx, db, "page", post.ID, reactor.ID, "👍", 0)
	require.Error(t, err)
	assert.Equal(t, utils.ErrBadRequest.Code, utils.StatusOf(err))

	_, err = models.ToggleReaction(ctx, db, models.SubjectPost, uuid.New(), reactor.ID, "👍", 0)
	require.Error(t, err)
	assert.Equal(t, utils.ErrNotFound.Code, utils.StatusOf(err))
}

// The walkthrough from the reaction design: two users pile onto 👍, one
// switches to ❤️, then un-reacts entirely.
func TestToggleReactionScenario(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := newTestUser(t, db, "author")
	alice := newTestUser(t, db, "alice")
	bob := newTestUser(t, db, "bob")
	post := newTestPost(t, db, author, "Scenario")

	aggregate := func() []models.ReactionGroup {
		groups, err := models.AggregateReactions(ctx, db, models.SubjectPost, post.ID)
		require.NoError(t, err)
		return groups
	}

	_, err := models.ToggleReaction(ctx, db, models.SubjectPost, post.ID, alice.ID, "👍", 0)
	require.NoError(t, err)
	assert.Equal(t, []models.ReactionGroup{{Emoji: "👍", Count: 1}}, aggregate())

	_, err = models.ToggleReaction(ctx, db, models.SubjectPost, post.ID, bob.ID, "👍", 0)
	require.NoError(t, err)
	assert.Equal(t, []models.ReactionGroup{{Emoji: "👍", Count: 2}}, aggregate())

	outcome, err := models.ToggleReaction(ctx, db, models.SubjectPost, post.ID, alice.ID, "❤️", 0)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionReplaced, outcome)
	assert.ElementsMatch(t, []models.ReactionGroup{{Emoji: "👍", Count: 1}, {Emoji: "❤️", Count: 1}}, aggregate())

	outcome, err = models.ToggleReaction(ctx, db, models.SubjectPost, post.ID, alice.ID, "❤️", 0)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionDeleted, outcome)
	assert.Equal(t, []models.ReactionGroup{{Emoji: "👍", Count: 1}}, aggregate())
}

func TestAggregateReactionsOrdering(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := newTestUser(t, db, "author")
	post := newTestPost(t, db, author, "Ordered")

	// 👍 three times, ❤️ and 🎉 once each; the tie breaks on emoji bytes.
	for i := 0; i < 3; i++ {
		u := newTestUser(t, db, fmt.Sprintf("thumbs%d", i))
		_, err := models.ToggleReaction(ctx, db, models.SubjectPost, post.ID, u.ID, "👍", 0)
		require.NoError(t, err)
	}
	heart := newTestUser(t, db, "heart")
	_, err := models.ToggleReaction(ctx, db, models.SubjectPost, post.ID, heart.ID, "❤️", 0)
	require.NoError(t, err)
	party := newTestUser(t, db, "party")
	_, err = models.ToggleReaction(ctx, db, models.SubjectPost, post.ID, party.ID, "🎉", 0)
	require.NoError(t, err)

	groups, err := models.AggregateReactions(ctx, db, models.SubjectPost, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.ReactionGroup{
		{Emoji: "👍", Count: 3},
		{Emoji: "❤️", Count: 1},
		{Emoji: "🎉", Count: 1},
	}, groups)

	var total int64
	require.NoError(t, db.Model(&models.Reaction{}).
		Where("subject_type = ? AND subject_id = ?", models.SubjectPost, post.ID).
		Count(&total).Error)
	var sum int64
	for _, g := range groups {
		sum += g.Count
	}
	assert.Equal(t, total, sum)
}

func TestAggregateReactionsEmptySubject(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := newTestUser(t, db, "author")
	post := newTestPost(t, db, author, "Quiet")

	groups, err := models.AggregateReactions(ctx, db, models.SubjectPost, post.ID)
	require.NoError(t, err)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)

	users, next, err := models.ListReactors(ctx, db, models.SubjectPost, post.ID, "👍", nil)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.Empty(t, next)
}

func TestAggregateReactionsForSubjects(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := newTestUser(t, db, "author")
	first := newTestPost(t, db, author, "First")
	second := newTestPost(t, db, author, "Second")
	silent := newTestPost(t, db, author, "Silent")

	alice := newTestUser(t, db, "alice")
	bob := newTestUser(t, db, "bob")
	for _, u := range []*models.User{alice, bob} {
		_, err := models.ToggleReaction(ctx, db, models.SubjectPost, first.ID, u.ID, "👍", 0)
		require.NoError(t, err)
	}
	_, err := models.ToggleReaction(ctx, db, models.SubjectPost, second.ID, alice.ID, "🎉", 0)
	require.NoError(t, err)

	byID, err := models.AggregateReactionsForSubjects(ctx, db, models.SubjectPost,
		[]uuid.UUID{first.ID, second.ID, silent.ID})
	require.NoError(t, err)
	assert.Equal(t, []models.ReactionGroup{{Emoji: "👍", Count: 2}}, byID[first.ID])
	assert.Equal(t, []models.ReactionGroup{{Emoji: "🎉", Count: 1}}, byID[second.ID])
	assert.NotContains(t, byID, silent.ID)

	empty, err := models.AggregateReactionsForSubjects(ctx, db, models.SubjectPost, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListReactorsKeysetPagination(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := newTestUser(t, db, "author")
	post := newTestPost(t, db, author, "Popular")

	total := models.ReactorsPageSize + 5
	base := time.Now().Add(-time.Hour)
	reactors := make([]*models.User, total)
	for i := 0; i < total; i++ {
		reactors[i] = newTestUser(t, db, fmt.Sprintf("reactor%02d", i))
		reaction := &models.Reaction{
			SubjectType: models.SubjectPost,
			SubjectID:   post.ID,
			UserID:      reactors[i].ID,
			Emoji:       "👍",
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, db.Create(reaction).Error)
	}

	page1, next, err := models.ListReactors(ctx, db, models.SubjectPost, post.ID, "👍", nil)
	require.NoError(t, err)
	require.Len(t, page1, models.ReactorsPageSize)
	require.NotEmpty(t, next)
	assert.Equal(t, reactors[total-1].ID, page1[0].ID, "newest reaction leads")
	assert.Equal(t, reactors[total-models.ReactorsPageSize].ID, page1[len(page1)-1].ID)

	// A reaction landing after page one was served must not shift page two.
	newcomer := newTestUser(t, db, "newcomer")
	late := &models.Reaction{
		SubjectType: models.SubjectPost,
		SubjectID:   post.ID,
		UserID:      newcomer.ID,
		Emoji:       "👍",
		CreatedAt:   base.Add(time.Duration(total) * time.Second),
	}
	require.NoError(t, db.Create(late).Error)

	cursor, err := models.DecodeReactorCursor(next)
	require.NoError(t, err)
	page2, next2, err := models.ListReactors(ctx, db, models.SubjectPost, post.ID, "👍", cursor)
	require.NoError(t, err)
	assert.Empty(t, next2)
	require.Len(t, page2, total-models.ReactorsPageSize)
	assert.Equal(t, reactors[4].ID, page2[0].ID)
	assert.Equal(t, reactors[0].ID, page2[len(page2)-1].ID)
}

func TestReactorCursorCodec(t *testing.T) {
	now := time.Now()
	id := uuid.New()
	token := models.ReactorCursor{CreatedAt: now, ID: id}.Encode()

	cursor, err := models.DecodeReactorCursor(token)
	require.NoError(t, err)
	assert.True(t, cursor.CreatedAt.Equal(now))
	assert.Equal(t, id, cursor.ID)

	for name, bad := range map[string]string{
		"not base64":   "!!!not-base64!!!",
		"no separator": base64.RawURLEncoding.EncodeToString([]byte("nocolonhere")),
		"bad nanos":    base64.RawURLEncoding.EncodeToString([]byte("abc:" + id.String())),
		"bad uuid":     base64.RawURLEncoding.EncodeToString([]byte("12345:not-a-uuid")),
	} {
		_, err := models.DecodeReactorCursor(bad)
		require.Error(t, err, name)
		assert.Equal(t, utils.ErrBadRequest.Code, utils.StatusOf(err), name)
	}
}

// The unique index on (subject_type, subject_id, user_id) is what turns a
// racing double-create into a conflict instead of a second row.
func TestReactionUniqueIndexGuard(t *testing.T) {
	db := newTestDB(t)
	author := newTestUser(t, db, "author")
	reactor := newTestUser(t, db, "reactor")
	post := newTestPost(t, db, author, "Guarded")

	first := &models.Reaction{SubjectType: models.SubjectPost, SubjectID: post.ID, UserID: reactor.ID, Emoji: "👍"}
	require.NoError(t, db.Create(first).Error)

	dupe := &models.Reaction{SubjectType: models.SubjectPost, SubjectID: post.ID, UserID: reactor.ID, Emoji: "🎉"}
	err := db.Create(dupe).Error
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestReactionsOnComments(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := newTestUser(t, db, "author")
	commenter := newTestUser(t, db, "commenter")
	reactor := newTestUser(t, db, "reactor")
	post := newTestPost(t, db, author, "Threaded")
	comment := newTestComment(t, db, post, commenter, "Nice one")

	outcome, err := models.ToggleReaction(ctx, db, models.SubjectComment, comment.ID, reactor.ID, "👍", 0)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionCreated, outcome)

	// Post and comment aggregates stay separate even though the comment
	// hangs off the post.
	postGroups, err := models.AggregateReactions(ctx, db, models.SubjectPost, post.ID)
	require.NoError(t, err)
	assert.Empty(t, postGroups)

	commentGroups, err := models.AggregateReactions(ctx, db, models.SubjectComment, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.ReactionGroup{{Emoji: "👍", Count: 1}}, commentGroups)
}
