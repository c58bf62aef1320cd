package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	storage "github.com/lotbajar/social/pkg/redis"
	"github.com/lotbajar/social/pkg/utils"
	"gorm.io/gorm"
)

// Block is a directed block edge. Visibility and interaction rules treat
// the edge as symmetric; see IsBlockedEitherWay.
type Block struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BlockerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_block_pair,priority:1;index" json:"blocker_id"`
	BlockedID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_block_pair,priority:2;index" json:"blocked_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Blocker User `gorm:"foreignKey:BlockerID" json:"blocker" validate:"-"`
	Blocked User `gorm:"foreignKey:BlockedID" json:"blocked" validate:"-"`
}

func (b *Block) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BlockUser creates a block edge and severs any follow edges between the
// two users in the same transaction.
func BlockUser(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, blockerID, blockedID uuid.UUID) error {
	if blockerID == blockedID {
		return utils.NewError(utils.ErrBadRequest.Code, "Cannot block yourself")
	}

	if _, err := GetUserBy(ctx, rclient, db, "id = ?", []interface{}{blockedID}); err != nil {
		return err
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		block := &Block{BlockerID: blockerID, BlockedID: blockedID}
		if err := tx.Create(block).Error; err != nil {
			if err == gorm.ErrDuplicatedKey {
				return utils.NewError(utils.ErrConflict.Code, "Already blocked this user")
			}
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to block user")
		}
		if err := severFollow(ctx, tx, blockerID, blockedID); err != nil {
			return err
		}
		return severFollow(ctx, tx, blockedID, blockerID)
	})
	if err != nil {
		return err
	}

	storage.Invalidate(ctx, rclient, "user:"+blockerID.String(), "user:"+blockedID.String())
	return nil
}

// severFollow deletes the follower->following edge if present and fixes
// both counters. Used when a block is created.
func severFollow(ctx context.Context, tx *gorm.DB, followerID, followingID uuid.UUID) error {
	res := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&Follow{})
	if res.Error != nil {
		return utils.WrapError(res.Error, utils.ErrInternalServerError.Code, "Failed to sever follow")
	}
	if res.RowsAffected == 0 {
		return nil
	}
	if err := UpdateUserStats(ctx, tx, followerID, "following_count", -1); err != nil {
		return err
	}
	return UpdateUserStats(ctx, tx, followingID, "followers_count", -1)
}

// UnblockUser removes the block edge. Severed follows are not restored.
func UnblockUser(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, blockerID, blockedID uuid.UUID) error {
	res := db.WithContext(ctx).Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).Delete(&Block{})
	if res.Error != nil {
		return utils.WrapError(res.Error, utils.ErrInternalServerError.Code, "Failed to unblock user")
	}
	if res.RowsAffected == 0 {
		return utils.NewError(utils.ErrNotFound.Code, "User is not blocked")
	}

	storage.Invalidate(ctx, rclient, "user:"+blockerID.String(), "user:"+blockedID.String())
	return nil
}

// IsBlockedEitherWay reports whether a block exists between the two users
// in either direction.
func IsBlockedEitherWay(ctx context.Context, db *gorm.DB, a, b uuid.UUID) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error; err != nil {
		return false, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to check block state")
	}
	return count > 0, nil
}

// BlockedIDSet collects every user blocked by or blocking userID, for
// filtering feeds and comment threads in one pass.
func BlockedIDSet(ctx context.Context, db *gorm.DB, userID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	var blocks []Block
	if err := db.WithContext(ctx).
		Where("blocker_id = ? OR blocked_id = ?", userID, userID).
		Find(&blocks).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to load blocks")
	}

	set := make(map[uuid.UUID]struct{}, len(blocks))
	for _, b := range blocks {
		if b.BlockerID == userID {
			set[b.BlockedID] = struct{}{}
		} else {
			set[b.BlockerID] = struct{}{}
		}
	}
	return set, nil
}

// GetBlockedUsers lists the users blockerID has blocked, newest first.
func GetBlockedUsers(ctx context.Context, db *gorm.DB, blockerID uuid.UUID, page, limit int) ([]User, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var users []User
	if err := db.WithContext(ctx).Model(&User{}).
		Joins("JOIN blocks ON blocks.blocked_id = users.id").
		Where("blocks.blocker_id = ?", blockerID).
		Order("blocks.created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&users).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to list blocked users")
	}
	return users, nil
}
