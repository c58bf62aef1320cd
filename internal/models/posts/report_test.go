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

func TestCreateReport(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := newTestUser(t, db, "author")
	reporter := newTestUser(t, db, "reporter")
	post := newTestPost(t, db, author, "Suspicious")

	report := &models.Report{
		ReporterID:  reporter.ID,
		SubjectType: models.SubjectPost,
		SubjectID:   post.ID,
		Reason:      "spam",
		Notes:       "looks automated",
	}
	require.NoError(t, models.CreateReport(ctx, db, report))
	assert.Equal(t, models.ReportStatusOpen, report.Status)

	// One open report per reporter and subject.
	dupe := &models.Report{ReporterID: reporter.ID, SubjectType: models.SubjectPost, SubjectID: post.ID, Reason: "spam"}
	err := models.CreateReport(ctx, db, dupe)
	require.Error(t, err)
	assert.Equal(t, utils.ErrConflict.Code, utils.StatusOf(err))

	// A second reporter may still flag the same subject.
	other := newTestUser(t, db, "other")
	second := &models.Report{ReporterID: other.ID, SubjectType: models.SubjectPost, SubjectID: post.ID, Reason: "harassment"}
	require.NoError(t, models.CreateReport(ctx, db, second))
}

func TestCreateReportRequiresSubject(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	reporter := newTestUser(t, db, "reporter")

	report := &models.Report{ReporterID: reporter.ID, SubjectType: models.SubjectPost, SubjectID: uuid.New(), Reason: "spam"}
	err := models.CreateReport(ctx, db, report)
	require.Error(t, err)
	assert.Equal(t, utils.ErrNotFound.Code, utils.StatusOf(err))
}

func TestResolveReportFlow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := newTestUser(t, db, "author")
	reporter := newTestUser(t, db, "reporter")
	moderator := newTestUser(t, db, "moderator")
	post := newTestPost(t, db, author, "Flagged")

	report := &models.Report{ReporterID: reporter.ID, SubjectType: models.SubjectPost, SubjectID: post.ID, Reason: "other"}
	require.NoError(t, models.CreateReport(ctx, db, report))

	resolved, err := models.ResolveReport(ctx, nil, db, report.ID, moderator.ID, false, false)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedByID)
	assert.Equal(t, moderator.ID, *resolved.ResolvedByID)
	assert.NotNil(t, resolved.ResolvedAt)

	notifications, err := models.GetNotifications(ctx, db, reporter.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotifyTypeReportResolved, notifications[0].Type)

	// Closing twice is a conflict.
	_, err = models.ResolveReport(ctx, nil, db, report.ID, moderator.ID, false, false)
	require.Error(t, err)
	assert.Equal(t, utils.ErrConflict.Code, utils.StatusOf(err))

	// The content stayed up.
	kept, err := models.GetPostBy(ctx, nil, db, "id = ?", []interface{}{post.ID})
	require.NoError(t, err)
	assert.True(t, kept.Published)
}

func TestResolveReportDismiss(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := newTestUser(t, db, "author")
	reporter := newTestUser(t, db, "reporter")
	moderator := newTestUser(t, db, "moderator")
	post := newTestPost(t, db, author, "Fine Actually")

	report := &models.Report{ReporterID: reporter.ID, SubjectType: models.SubjectPost, SubjectID: post.ID, Reason: "spam"}
	require.NoError(t, models.CreateReport(ctx, db, report))

	dismissed, err := models.ResolveReport(ctx, nil, db, report.ID, moderator.ID, true, false)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusDismissed, dismissed.Status)
}

func TestResolveReportRemovesPost(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := newTestUser(t, db, "author")
	reporter := newTestUser(t, db, "reporter")
	moderator := newTestUser(t, db, "moderator")
	post := newTestPost(t, db, author, "Taken Down")

	report := &models.Report{ReporterID: reporter.ID, SubjectType: models.SubjectPost, SubjectID: post.ID, Reason: "inappropriate"}
	require.NoError(t, models.CreateReport(ctx, db, report))

	_, err := models.ResolveReport(ctx, nil, db, report.ID, moderator.ID, false, true)
	require.NoError(t, err)

	unpublished, err := models.GetPostBy(ctx, nil, db, "id = ?", []interface{}{post.ID})
	require.NoError(t, err)
	assert.False(t, unpublished.Published, "offending posts are unpublished, not erased")
}

func TestResolveReportRemovesComment(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := newTestUser(t, db, "author")
	troll := newTestUser(t, db, "troll")
	reporter := newTestUser(t, db, "reporter")
	moderator := newTestUser(t, db, "moderator")
	post := newTestPost(t, db, author, "Targeted")
	comment := newTestComment(t, db, post, troll, "offensive")

	report := &models.Report{ReporterID: reporter.ID, SubjectType: models.SubjectComment, SubjectID: comment.ID, Reason: "harassment"}
	require.NoError(t, models.CreateReport(ctx, db, report))

	_, err := models.ResolveReport(ctx, nil, db, report.ID, moderator.ID, false, true)
	require.NoError(t, err)

	_, err = models.GetCommentBy(ctx, db, "id = ?", []interface{}{comment.ID})
	require.Error(t, err)
	assert.Equal(t, utils.ErrNotFound.Code, utils.StatusOf(err))
}

func TestGetReportsQueue(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := newTestUser(t, db, "author")
	reporter := newTestUser(t, db, "reporter")
	moderator := newTestUser(t, db, "moderator")
	first := newTestPost(t, db, author, "First Flag")
	second := newTestPost(t, db, author, "Second Flag")

	reportA := &models.Report{ReporterID: reporter.ID, SubjectType: models.SubjectPost, SubjectID: first.ID, Reason: "spam"}
	require.NoError(t, models.CreateReport(ctx, db, reportA))
	reportB := &models.Report{ReporterID: reporter.ID, SubjectType: models.SubjectPost, SubjectID: second.ID, Reason: "spam"}
	require.NoError(t, models.CreateReport(ctx, db, reportB))

	open, err := models.GetReports(ctx, db, models.ReportStatusOpen, 1, 20)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, reportA.ID, open[0].ID, "the queue drains oldest first")
	assert.Equal(t, "reporter", open[0].Reporter.Username, "reporter should be preloaded")

	_, err = models.ResolveReport(ctx, nil, db, reportA.ID, moderator.ID, false, false)
	require.NoError(t, err)

	openCount, err := models.CountReports(ctx, db, models.ReportStatusOpen)
	require.NoError(t, err)
	assert.Equal(t, int64(1), openCount)

	resolvedCount, err := models.CountReports(ctx, db, models.ReportStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resolvedCount)
}
