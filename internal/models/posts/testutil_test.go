package models_test

import (
	"context"
	"testing"

	"github.com/lotbajar/social/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the full schema and
// the default roles seeded. Capping the pool at one connection keeps every
// query on the same in-memory instance.
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

func newTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	u, err := models.NewUser(context.Background(), nil, db, username, username+"@example.com", "not-a-real-hash",
		models.WithIsActive(true), models.WithName(username))
	require.NoError(t, err)
	return u
}

func newTestPost(t *testing.T, db *gorm.DB, author *models.User, title string) *models.Post {
	t.Helper()

	post := &models.Post{Title: title, Body: "Body of " + title, AuthorID: author.ID}
	require.NoError(t, models.CreatePost(context.Background(), nil, db, post, models.WithPublished(true)))
	return post
}

func newTestComment(t *testing.T, db *gorm.DB, post *models.Post, author *models.User, body string) *models.Comment {
	t.Helper()

	comment := &models.Comment{PostID: post.ID, AuthorID: author.ID, Body: body}
	require.NoError(t, models.CreateComment(context.Background(), nil, db, comment))
	return comment
}
