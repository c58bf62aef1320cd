package models_test

import (
	"context"
	"testing"

	models "github.com/lotbajar/social/internal/models/user"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the user-domain
// tables and the default roles seeded.
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

	require.NoError(t, db.AutoMigrate(
		&models.Capability{},
		&models.Role{},
		&models.User{},
		&models.Follow{},
		&models.Block{},
		&models.Notification{},
		&models.Invitation{},
	))
	require.NoError(t, models.SeedRoles(context.Background(), db, nil))
	return db
}

func newTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	u, err := models.NewUser(context.Background(), nil, db, username, username+"@example.com", "not-a-real-hash",
		models.WithIsActive(true))
	require.NoError(t, err)
	return u
}
