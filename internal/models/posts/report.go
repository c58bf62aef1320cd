package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	user "github.com/lotbajar/social/internal/models/user"
	storage "github.com/lotbajar/social/pkg/redis"
	"github.com/lotbajar/social/pkg/utils"
	"gorm.io/gorm"
)

// Report statuses and resolution actions.
const (
	ReportStatusOpen      = "open"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
)

// Report is a user flag on a post or comment, queued for moderators.
type Report struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReporterID  uuid.UUID `gorm:"type:uuid;not null;index:idx_report_reporter" json:"reporter_id" validate:"required"`
	SubjectType string    `gorm:"size:20;not null;index:idx_report_subject,priority:1" json:"subject_type" validate:"required,oneof=post comment"`
	SubjectID   uuid.UUID `gorm:"type:uuid;not null;index:idx_report_subject,priority:2" json:"subject_id" validate:"required"`
	Reason      string    `gorm:"size:100;not null" json:"reason" validate:"required,oneof=spam inappropriate harassment other"`
	Notes       string    `gorm:"size:500" json:"notes" validate:"omitempty,max=500"`
	Status      string    `gorm:"size:20;default:'open';index" json:"status"`

	ResolvedByID *uuid.UUID `gorm:"type:uuid" json:"resolved_by_id,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Reporter   user.User  `gorm:"foreignKey:ReporterID" json:"reporter" validate:"-"`
	ResolvedBy *user.User `gorm:"foreignKey:ResolvedByID" json:"resolved_by,omitempty" validate:"-"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// CreateReport files a report against a subject. The subject must exist
// and the reporter may hold only one open report per subject.
func CreateReport(ctx context.Context, db *gorm.DB, report *Report) error {
	if _, err := ResolveSubject(ctx, db, report.SubjectType, report.SubjectID); err != nil {
		return err
	}

	var open int64
	if err := db.WithContext(ctx).Model(&Report{}).
		Where("reporter_id = ? AND subject_type = ? AND subject_id = ? AND status = ?",
			report.ReporterID, report.SubjectType, report.SubjectID, ReportStatusOpen).
		Count(&open).Error; err != nil {
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to check existing reports")
	}
	if open > 0 {
		return utils.NewError(utils.ErrConflict.Code, "You already reported this")
	}

	report.Status = ReportStatusOpen
	if err := db.WithContext(ctx).Create(report).Error; err != nil {
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to create report")
	}
	return nil
}

// GetReports lists reports for the moderation queue, oldest open first so
// the queue drains in order. Status narrows the listing when non-empty.
func GetReports(ctx context.Context, db *gorm.DB, status string, page, limit int) ([]Report, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := db.WithContext(ctx).Preload("Reporter").Order("created_at ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var reports []Report
	if err := query.Offset((page - 1) * limit).Limit(limit).Find(&reports).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to list reports")
	}
	return reports, nil
}

// GetReportBy retrieves a single report by condition.
func GetReportBy(ctx context.Context, db *gorm.DB, condition string, args ...interface{}) (*Report, error) {
	var report Report
	if err := db.WithContext(ctx).Preload("Reporter").Where(condition, args...).First(&report).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewError(utils.ErrNotFound.Code, "Report not found")
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to fetch report")
	}
	return &report, nil
}

// ResolveReport closes an open report. When removeSubject is set the
// offending content goes with it: posts are unpublished, comments are
// deleted with their reactions. The reporter is notified either way.
func ResolveReport(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, id, moderatorID uuid.UUID, dismiss, removeSubject bool) (*Report, error) {
	report, err := GetReportBy(ctx, db, "id = ?", id)
	if err != nil {
		return nil, err
	}
	if report.Status != ReportStatusOpen {
		return nil, utils.NewError(utils.ErrConflict.Code, "Report already handled")
	}

	status := ReportStatusResolved
	if dismiss {
		status = ReportStatusDismissed
	}

	now := time.Now()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Report{}).
			Where("id = ? AND status = ?", id, ReportStatusOpen).
			Updates(map[string]interface{}{
				"status":         status,
				"resolved_by_id": moderatorID,
				"resolved_at":    now,
			})
		if res.Error != nil {
			return utils.WrapError(res.Error, utils.ErrInternalServerError.Code, "Failed to resolve report")
		}
		if res.RowsAffected == 0 {
			return utils.NewError(utils.ErrConflict.Code, "Report already handled")
		}

		return user.NotifyUser(ctx, nil, tx, report.ReporterID, user.NotifyTypeReportResolved, &moderatorID,
			report.SubjectType, &report.SubjectID, "your report was reviewed")
	})
	if err != nil {
		return nil, err
	}

	if removeSubject && !dismiss {
		switch report.SubjectType {
		case SubjectPost:
			if _, err := UpdatePost(ctx, rclient, db, report.SubjectID, WithPublished(false)); err != nil && utils.StatusOf(err) != utils.ErrNotFound.Code {
				return nil, err
			}
		case SubjectComment:
			if err := DeleteComment(ctx, rclient, db, report.SubjectID); err != nil && utils.StatusOf(err) != utils.ErrNotFound.Code {
				return nil, err
			}
		}
	}

	storage.Invalidate(ctx, rclient, "notifcount:"+report.ReporterID.String())

	report.Status = status
	report.ResolvedByID = &moderatorID
	report.ResolvedAt = &now
	return report, nil
}

// CountReports returns how many reports sit in a status, for the admin
// dashboard.
func CountReports(ctx context.Context, db *gorm.DB, status string) (int64, error) {
	var count int64
	query := db.WithContext(ctx).Model(&Report{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to count reports")
	}
	return count, nil
}
