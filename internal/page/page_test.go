package page_test

import (
	"context"
	"testing"

	"github.com/lotbajar/social/internal/models"
	"github.com/lotbajar/social/internal/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.RegisterModels()...))
	require.NoError(t, models.SeedRoles(context.Background(), db, nil))
	return db
}

func TestComposeAnonymous(t *testing.T) {
	pctx, err := page.Compose(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	assert.False(t, pctx.SignedIn)
	assert.Nil(t, pctx.User)
	assert.Empty(t, pctx.Capabilities)
	assert.Zero(t, pctx.NotificationCount)
}

func TestComposeSignedIn(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	viewer, err := models.NewUser(ctx, nil, db, "viewer", "viewer@example.com", "sup3rsecret",
		models.WithIsActive(true),
		models.WithName("Viewer"),
	)
	require.NoError(t, err)

	pctx, err := page.Compose(ctx, nil, db, viewer)
	require.NoError(t, err)
	assert.True(t, pctx.SignedIn)
	require.NotNil(t, pctx.User)
	assert.Equal(t, "viewer", pctx.User.Username)
	assert.Contains(t, pctx.Capabilities, string(models.CapReact))
	assert.Contains(t, pctx.Capabilities, string(models.CapCreatePost))
	assert.NotContains(t, pctx.Capabilities, string(models.CapModerateContent))
	assert.Zero(t, pctx.NotificationCount)

	require.NoError(t, models.NotifyUser(ctx, nil, db, viewer.ID, models.NotifyTypeFollow, nil, "", nil, "someone followed you"))

	pctx, err = page.Compose(ctx, nil, db, viewer)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pctx.NotificationCount)
}
