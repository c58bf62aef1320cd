package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	storage "github.com/lotbajar/social/pkg/redis"
	"github.com/lotbajar/social/pkg/utils"
	"gorm.io/gorm"
)

// Invitation is a one-shot registration code. A code is spendable while it
// is unaccepted, unrevoked and unexpired; AcceptInvitation consumes it with
// a single guarded UPDATE so concurrent registrations cannot share one.
type Invitation struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string     `gorm:"size:100;not null;index" json:"email" validate:"required,email"`
	Code         string     `gorm:"size:64;not null;unique" json:"code"`
	InvitedByID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"invited_by_id"`
	ExpiresAt    time.Time  `gorm:"not null" json:"expires_at"`
	AcceptedByID *uuid.UUID `gorm:"type:uuid" json:"accepted_by_id,omitempty"`
	AcceptedAt   *time.Time `json:"accepted_at,omitempty"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	InvitedBy User `gorm:"foreignKey:InvitedByID" json:"invited_by" validate:"-"`
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Pending reports whether the invitation can still be spent.
func (i *Invitation) Pending(now time.Time) bool {
	return i.AcceptedAt == nil && i.RevokedAt == nil && now.Before(i.ExpiresAt)
}

// NewInvitation issues an invitation code for email. At most one pending
// invitation per address; a registered user with that email also blocks it.
func NewInvitation(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, email string, invitedByID uuid.UUID, ttl time.Duration) (*Invitation, error) {
	var taken int64
	if err := db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Count(&taken).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to check email")
	}
	if taken > 0 {
		return nil, utils.NewError(utils.ErrConflict.Code, "A user with this email already exists")
	}

	now := time.Now()
	var pending int64
	if err := db.WithContext(ctx).Model(&Invitation{}).
		Where("email = ? AND accepted_at IS NULL AND revoked_at IS NULL AND expires_at > ?", email, now).
		Count(&pending).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to check pending invitations")
	}
	if pending > 0 {
		return nil, utils.NewError(utils.ErrConflict.Code, "An invitation for this email is already pending")
	}

	code, err := utils.GenerateRandomToken(16)
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to generate invitation code")
	}

	invitation := &Invitation{
		Email:       email,
		Code:        code,
		InvitedByID: invitedByID,
		ExpiresAt:   now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(invitation).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to create invitation")
	}

	return invitation, nil
}

// GetInvitationBy loads a single invitation by an arbitrary condition.
func GetInvitationBy(ctx context.Context, db *gorm.DB, condition string, args []interface{}) (*Invitation, error) {
	var invitation Invitation
	if err := db.WithContext(ctx).Where(condition, args...).First(&invitation).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewError(utils.ErrNotFound.Code, "Invitation not found")
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to get invitation")
	}
	return &invitation, nil
}

// AcceptInvitation spends the code for userID. The guarded UPDATE is the
// consume point: zero rows affected means the code was already spent,
// revoked or expired.
func AcceptInvitation(ctx context.Context, db *gorm.DB, code string, userID uuid.UUID) error {
	now := time.Now()
	res := db.WithContext(ctx).Model(&Invitation{}).
		Where("code = ? AND accepted_at IS NULL AND revoked_at IS NULL AND expires_at > ?", code, now).
		Updates(map[string]interface{}{
			"accepted_by_id": userID,
			"accepted_at":    now,
		})
	if res.Error != nil {
		return utils.WrapError(res.Error, utils.ErrInternalServerError.Code, "Failed to accept invitation")
	}
	if res.RowsAffected == 0 {
		return utils.NewError(utils.ErrForbidden.Code, "Invitation code is invalid or has expired")
	}
	return nil
}

// RevokeInvitation withdraws an unspent invitation.
func RevokeInvitation(ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	now := time.Now()
	res := db.WithContext(ctx).Model(&Invitation{}).
		Where("id = ? AND accepted_at IS NULL AND revoked_at IS NULL", id).
		Update("revoked_at", now)
	if res.Error != nil {
		return utils.WrapError(res.Error, utils.ErrInternalServerError.Code, "Failed to revoke invitation")
	}
	if res.RowsAffected == 0 {
		var invitation Invitation
		if err := db.WithContext(ctx).Where("id = ?", id).First(&invitation).Error; err != nil {
			return utils.NewError(utils.ErrNotFound.Code, "Invitation not found")
		}
		return utils.NewError(utils.ErrConflict.Code, "Invitation already accepted or revoked")
	}
	return nil
}

// GetInvitations lists invitations for the admin panel, newest first.
// inviterID narrows to one inviter when non-nil.
func GetInvitations(ctx context.Context, db *gorm.DB, inviterID *uuid.UUID, page, limit int) ([]Invitation, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := db.WithContext(ctx).Preload("InvitedBy").Order("created_at DESC")
	if inviterID != nil {
		query = query.Where("invited_by_id = ?", *inviterID)
	}

	var invitations []Invitation
	if err := query.Offset((page - 1) * limit).Limit(limit).Find(&invitations).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to list invitations")
	}
	return invitations, nil
}
