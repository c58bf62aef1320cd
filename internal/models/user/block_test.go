package models_test

import (
	"context"
	"testing"

	models "github.com/lotbajar/social/internal/models/user"
	"github.com/lotbajar/social/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockUserSeversFollows(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := newTestUser(t, db, "alice")
	bob := newTestUser(t, db, "bob")

	require.NoError(t, models.FollowUser(ctx, nil, db, alice.ID, bob.ID))
	require.NoError(t, models.FollowUser(ctx, nil, db, bob.ID, alice.ID))

	require.NoError(t, models.BlockUser(ctx, nil, db, alice.ID, bob.ID))

	for _, pair := range [][2]*models.User{{alice, bob}, {bob, alice}} {
		following, err := models.IsFollowing(ctx, db, pair[0].ID, pair[1].ID)
		require.NoError(t, err)
		assert.False(t, following, "%s should no longer follow %s", pair[0].Username, pair[1].Username)
	}

	for _, u := range []*models.User{alice, bob} {
		reloaded, err := models.GetUserBy(ctx, nil, db, "id = ?", []interface{}{u.ID})
		require.NoError(t, err)
		assert.Equal(t, 0, reloaded.Stats.FollowersCount, u.Username)
		assert.Equal(t, 0, reloaded.Stats.FollowingCount, u.Username)
	}

	blocked, err := models.IsBlockedEitherWay(ctx, db, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, blocked)

	// Symmetric regardless of argument order.
	blocked, err = models.IsBlockedEitherWay(ctx, db, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestBlockUserRejectsDuplicateAndSelf(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := newTestUser(t, db, "alice")
	bob := newTestUser(t, db, "bob")

	require.NoError(t, models.BlockUser(ctx, nil, db, alice.ID, bob.ID))

	err := models.BlockUser(ctx, nil, db, alice.ID, bob.ID)
	require.Error(t, err)
	assert.Equal(t, utils.ErrConflict.Code, utils.StatusOf(err))

	err = models.BlockUser(ctx, nil, db, alice.ID, alice.ID)
	require.Error(t, err)
	assert.Equal(t, utils.ErrBadRequest.Code, utils.StatusOf(err))
}

func TestUnblockUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := newTestUser(t, db, "alice")
	bob := newTestUser(t, db, "bob")

	require.NoError(t, models.FollowUser(ctx, nil, db, alice.ID, bob.ID))
	require.NoError(t, models.BlockUser(ctx, nil, db, alice.ID, bob.ID))
	require.NoError(t, models.UnblockUser(ctx, nil, db, alice.ID, bob.ID))

	blocked, err := models.IsBlockedEitherWay(ctx, db, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, blocked)

	// Severed follows stay severed after the block lifts.
	following, err := models.IsFollowing(ctx, db, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)

	err = models.UnblockUser(ctx, nil, db, alice.ID, bob.ID)
	require.Error(t, err)
	assert.Equal(t, utils.ErrNotFound.Code, utils.StatusOf(err))
}

func TestBlockedIDSetCoversBothDirections(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := newTestUser(t, db, "alice")
	bob := newTestUser(t, db, "bob")
	carol := newTestUser(t, db, "carol")
	dave := newTestUser(t, db, "dave")

	require.NoError(t, models.BlockUser(ctx, nil, db, alice.ID, bob.ID))
	require.NoError(t, models.BlockUser(ctx, nil, db, carol.ID, alice.ID))

	set, err := models.BlockedIDSet(ctx, db, alice.ID)
	require.NoError(t, err)
	assert.Contains(t, set, bob.ID, "outgoing block")
	assert.Contains(t, set, carol.ID, "incoming block")
	assert.NotContains(t, set, dave.ID)
	assert.Len(t, set, 2)
}

func TestGetBlockedUsers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := newTestUser(t, db, "alice")
	bob := newTestUser(t, db, "bob")
	carol := newTestUser(t, db, "carol")

	require.NoError(t, models.BlockUser(ctx, nil, db, alice.ID, bob.ID))
	require.NoError(t, models.BlockUser(ctx, nil, db, alice.ID, carol.ID))
	require.NoError(t, models.BlockUser(ctx, nil, db, carol.ID, alice.ID))

	mine, err := models.GetBlockedUsers(ctx, db, alice.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, mine, 2, "only outgoing blocks are listed")
	assert.ElementsMatch(t, []string{"bob", "carol"}, []string{mine[0].Username, mine[1].Username})
}
