package models_test

import (
	"context"
	"testing"

	models "github.com/lotbajar/social/internal/models/user"
	"github.com/lotbajar/social/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedRolesIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// The helper seeded once; a second run must not duplicate anything.
	require.NoError(t, models.SeedRoles(ctx, db, nil))

	var roleCount int64
	require.NoError(t, db.Model(&models.Role{}).Count(&roleCount).Error)
	assert.Equal(t, int64(len(models.RoleGrants)), roleCount)

	var capCount int64
	require.NoError(t, db.Model(&models.Capability{}).Count(&capCount).Error)
	assert.Equal(t, int64(len(models.AllCapabilities)), capCount)

	member, err := models.GetRoleBy(ctx, db, "name = ?", "member")
	require.NoError(t, err)
	assert.Len(t, member.Capabilities, len(models.RoleGrants["member"]))
}

func TestRoleGrantsMatrix(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	cases := []struct {
		role     string
		granted  []models.CapabilityName
		withheld []models.CapabilityName
	}{
		{
			role:     "member",
			granted:  []models.CapabilityName{models.CapReact, models.CapCreatePost, models.CapInviteUser},
			withheld: []models.CapabilityName{models.CapModerateContent, models.CapAdminSite},
		},
		{
			role:     "moderator",
			granted:  []models.CapabilityName{models.CapReact, models.CapModerateContent},
			withheld: []models.CapabilityName{models.CapAdminSite},
		},
		{
			role:    "admin",
			granted: []models.CapabilityName{models.CapReact, models.CapModerateContent, models.CapAdminSite},
		},
	}

	for _, tc := range cases {
		role, err := models.GetRoleBy(ctx, db, "name = ?", tc.role)
		require.NoError(t, err, tc.role)
		for _, capability := range tc.granted {
			assert.True(t, role.Grants(capability), "%s should grant %s", tc.role, capability)
		}
		for _, capability := range tc.withheld {
			assert.False(t, role.Grants(capability), "%s should not grant %s", tc.role, capability)
		}
	}
}

func TestValidCapability(t *testing.T) {
	for _, capability := range models.AllCapabilities {
		assert.True(t, models.ValidCapability(capability))
	}
	assert.False(t, models.ValidCapability("fly"))
	assert.False(t, models.ValidCapability(""))
}

func TestRoleCapabilitiesLookup(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	moderator, err := models.GetRoleBy(ctx, db, "name = ?", "moderator")
	require.NoError(t, err)

	names, err := models.RoleCapabilities(ctx, nil, db, moderator.ID)
	require.NoError(t, err)

	expected := make([]string, 0, len(models.RoleGrants["moderator"]))
	for _, capability := range models.RoleGrants["moderator"] {
		expected = append(expected, string(capability))
	}
	assert.ElementsMatch(t, expected, names)
}

func TestGetRoleByMissing(t *testing.T) {
	db := newTestDB(t)

	_, err := models.GetRoleBy(context.Background(), db, "name = ?", "superuser")
	require.Error(t, err)
	assert.Equal(t, utils.ErrNotFound.Code, utils.StatusOf(err))
}
