package models_test

import (
	"context"
	"testing"
	"time"

	models "github.com/lotbajar/social/internal/models/user"
	"github.com/lotbajar/social/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvitation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	inviter := newTestUser(t, db, "inviter")

	invitation, err := models.NewInvitation(ctx, nil, db, "friend@example.com", inviter.ID, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Len(t, invitation.Code, 32, "16 random bytes hex encoded")
	assert.True(t, invitation.Pending(time.Now()))
	assert.Equal(t, inviter.ID, invitation.InvitedByID)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), invitation.ExpiresAt, time.Minute)
}

func TestNewInvitationConflicts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	inviter := newTestUser(t, db, "inviter")

	_, err := models.NewInvitation(ctx, nil, db, "friend@example.com", inviter.ID, time.Hour)
	require.NoError(t, err)

	// One pending invitation per address.
	_, err = models.NewInvitation(ctx, nil, db, "friend@example.com", inviter.ID, time.Hour)
	require.Error(t, err)
	assert.Equal(t, utils.ErrConflict.Code, utils.StatusOf(err))

	// An address that already registered cannot be invited.
	_, err = models.NewInvitation(ctx, nil, db, "inviter@example.com", inviter.ID, time.Hour)
	require.Error(t, err)
	assert.Equal(t, utils.ErrConflict.Code, utils.StatusOf(err))
}

func TestAcceptInvitation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	inviter := newTestUser(t, db, "inviter")
	joiner := newTestUser(t, db, "joiner")

	invitation, err := models.NewInvitation(ctx, nil, db, "friend@example.com", inviter.ID, time.Hour)
	require.NoError(t, err)

	require.NoError(t, models.AcceptInvitation(ctx, db, invitation.Code, joiner.ID))

	spent, err := models.GetInvitationBy(ctx, db, "code = ?", []interface{}{invitation.Code})
	require.NoError(t, err)
	require.NotNil(t, spent.AcceptedAt)
	require.NotNil(t, spent.AcceptedByID)
	assert.Equal(t, joiner.ID, *spent.AcceptedByID)
	assert.False(t, spent.Pending(time.Now()))

	// Codes are single use.
	err = models.AcceptInvitation(ctx, db, invitation.Code, joiner.ID)
	require.Error(t, err)
	assert.Equal(t, utils.ErrForbidden.Code, utils.StatusOf(err))
}

func TestAcceptInvitationRejectsExpiredAndUnknown(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	inviter := newTestUser(t, db, "inviter")
	joiner := newTestUser(t, db, "joiner")

	expired, err := models.NewInvitation(ctx, nil, db, "late@example.com", inviter.ID, -time.Hour)
	require.NoError(t, err)

	err = models.AcceptInvitation(ctx, db, expired.Code, joiner.ID)
	require.Error(t, err)
	assert.Equal(t, utils.ErrForbidden.Code, utils.StatusOf(err))

	err = models.AcceptInvitation(ctx, db, "no-such-code", joiner.ID)
	require.Error(t, err)
	assert.Equal(t, utils.ErrForbidden.Code, utils.StatusOf(err))
}

func TestRevokeInvitation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	inviter := newTestUser(t, db, "inviter")
	joiner := newTestUser(t, db, "joiner")

	invitation, err := models.NewInvitation(ctx, nil, db, "friend@example.com", inviter.ID, time.Hour)
	require.NoError(t, err)

	require.NoError(t, models.RevokeInvitation(ctx, db, invitation.ID))

	err = models.AcceptInvitation(ctx, db, invitation.Code, joiner.ID)
	require.Error(t, err, "revoked codes cannot be spent")

	err = models.RevokeInvitation(ctx, db, invitation.ID)
	require.Error(t, err)
	assert.Equal(t, utils.ErrConflict.Code, utils.StatusOf(err))

	err = models.RevokeInvitation(ctx, db, joiner.ID)
	require.Error(t, err)
	assert.Equal(t, utils.ErrNotFound.Code, utils.StatusOf(err))
}

func TestGetInvitationsFilterByInviter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	first := newTestUser(t, db, "first")
	second := newTestUser(t, db, "second")

	_, err := models.NewInvitation(ctx, nil, db, "a@example.com", first.ID, time.Hour)
	require.NoError(t, err)
	_, err = models.NewInvitation(ctx, nil, db, "b@example.com", first.ID, time.Hour)
	require.NoError(t, err)
	_, err = models.NewInvitation(ctx, nil, db, "c@example.com", second.ID, time.Hour)
	require.NoError(t, err)

	all, err := models.GetInvitations(ctx, db, nil, 1, 20)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	for _, inv := range all {
		assert.NotEmpty(t, inv.InvitedBy.Username, "inviter should be preloaded")
	}

	own, err := models.GetInvitations(ctx, db, &first.ID, 1, 20)
	require.NoError(t, err)
	assert.Len(t, own, 2)
}
