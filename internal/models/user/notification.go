package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	storage "github.com/lotbajar/social/pkg/redis"
	"github.com/lotbajar/social/pkg/utils"
	"gorm.io/gorm"
)

// Notification types. Reaction events deliberately produce none; a toggle
// touches the reactions table and nothing else.
const (
	NotifyTypeFollow         = "follow"
	NotifyTypeComment        = "comment"
	NotifyTypeReply          = "reply"
	NotifyTypeInviteAccepted = "invite_accepted"
	NotifyTypeReportResolved = "report_resolved"
)

type Notification struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Type        string     `gorm:"size:50;not null" json:"type"`
	ActorID     *uuid.UUID `gorm:"type:uuid" json:"actor_id,omitempty"`
	SubjectType string     `gorm:"size:20" json:"subject_type,omitempty"`
	SubjectID   *uuid.UUID `gorm:"type:uuid" json:"subject_id,omitempty"`
	Message     string     `gorm:"size:255;not null" json:"message"`
	IsRead      bool       `gorm:"default:false" json:"is_read"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// NotifyUser records a notification for userID. Safe to call inside a
// transaction by passing the tx as db; pass a nil rclient there and
// invalidate the unread counter after commit.
func NotifyUser(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, userID uuid.UUID, ntype string, actorID *uuid.UUID, subjectType string, subjectID *uuid.UUID, message string) error {
	n := &Notification{
		UserID:      userID,
		Type:        ntype,
		ActorID:     actorID,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Message:     message,
	}
	if err := db.WithContext(ctx).Create(n).Error; err != nil {
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to create notification")
	}

	storage.Invalidate(ctx, rclient, "notifcount:"+userID.String())
	return nil
}

// GetNotifications lists a user's notifications, newest first.
func GetNotifications(ctx context.Context, db *gorm.DB, userID uuid.UUID, page, limit int) ([]Notification, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var notifications []Notification
	if err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to list notifications")
	}
	return notifications, nil
}

// CountUnreadNotifications returns the unread badge count, cached briefly
// since it renders on every page.
func CountUnreadNotifications(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, userID uuid.UUID) (int64, error) {
	cacheKey := "notifcount:" + userID.String()

	var count int64
	if storage.FetchJSON(ctx, rclient, cacheKey, &count) {
		return count, nil
	}

	if err := db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to count notifications")
	}

	storage.CacheJSON(ctx, rclient, cacheKey, count, time.Minute)
	return count, nil
}

// MarkNotificationsRead marks the given notifications read, or all of the
// user's notifications when ids is empty.
func MarkNotificationsRead(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, userID uuid.UUID, ids ...uuid.UUID) error {
	query := db.WithContext(ctx).Model(&Notification{}).Where("user_id = ?", userID)
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	if err := query.Update("is_read", true).Error; err != nil {
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to mark notifications read")
	}

	storage.Invalidate(ctx, rclient, "notifcount:"+userID.String())
	return nil
}
