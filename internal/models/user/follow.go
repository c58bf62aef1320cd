package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	storage "github.com/lotbajar/social/pkg/redis"
	"github.com/lotbajar/social/pkg/utils"
	"gorm.io/gorm"
)

// Follow is one directed edge in the follow graph. The unique pair index
// makes double-follows impossible regardless of request interleaving.
type Follow struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FollowerID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair,priority:1;index" json:"follower_id"`
	FollowingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair,priority:2;index" json:"following_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	Follower  User `gorm:"foreignKey:FollowerID" json:"follower" validate:"-"`
	Following User `gorm:"foreignKey:FollowingID" json:"following" validate:"-"`
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// FollowUser creates a follow edge from follower to following, bumps both
// stats counters and notifies the followed user.
func FollowUser(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, followerID, followingID uuid.UUID) error {
	if followerID == followingID {
		return utils.NewError(utils.ErrBadRequest.Code, "Cannot follow yourself")
	}

	if _, err := GetUserBy(ctx, rclient, db, "id = ?", []interface{}{followingID}); err != nil {
		return err
	}

	blocked, err := IsBlockedEitherWay(ctx, db, followerID, followingID)
	if err != nil {
		return err
	}
	if blocked {
		return utils.NewError(utils.ErrForbidden.Code, "Cannot follow this user")
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		follow := &Follow{FollowerID: followerID, FollowingID: followingID}
		if err := tx.Create(follow).Error; err != nil {
			if err == gorm.ErrDuplicatedKey {
				return utils.NewError(utils.ErrConflict.Code, "Already following this user")
			}
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to follow user")
		}
		if err := UpdateUserStats(ctx, tx, followerID, "following_count", 1); err != nil {
			return err
		}
		if err := UpdateUserStats(ctx, tx, followingID, "followers_count", 1); err != nil {
			return err
		}
		return NotifyUser(ctx, nil, tx, followingID, NotifyTypeFollow, &followerID, "user", &followerID, "started following you")
	})
	if err != nil {
		return err
	}

	storage.Invalidate(ctx, rclient, "user:"+followerID.String(), "user:"+followingID.String(), "notifcount:"+followingID.String())
	return nil
}

// UnfollowUser removes the follow edge and adjusts both counters.
func UnfollowUser(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, followerID, followingID uuid.UUID) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&Follow{})
		if res.Error != nil {
			return utils.WrapError(res.Error, utils.ErrInternalServerError.Code, "Failed to unfollow user")
		}
		if res.RowsAffected == 0 {
			return utils.NewError(utils.ErrNotFound.Code, "Not following this user")
		}
		if err := UpdateUserStats(ctx, tx, followerID, "following_count", -1); err != nil {
			return err
		}
		return UpdateUserStats(ctx, tx, followingID, "followers_count", -1)
	})
	if err != nil {
		return err
	}

	storage.Invalidate(ctx, rclient, "user:"+followerID.String(), "user:"+followingID.String())
	return nil
}

// IsFollowing reports whether follower currently follows following.
func IsFollowing(ctx context.Context, db *gorm.DB, followerID, followingID uuid.UUID) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error; err != nil {
		return false, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to check follow state")
	}
	return count > 0, nil
}

// GetFollowers lists the users following userID, newest follow first.
func GetFollowers(ctx context.Context, db *gorm.DB, userID uuid.UUID, page, limit int) ([]User, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var users []User
	if err := db.WithContext(ctx).Model(&User{}).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.following_id = ?", userID).
		Order("follows.created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&users).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to list followers")
	}
	return users, nil
}

// GetFollowing lists the users userID follows, newest follow first.
func GetFollowing(ctx context.Context, db *gorm.DB, userID uuid.UUID, page, limit int) ([]User, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var users []User
	if err := db.WithContext(ctx).Model(&User{}).
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&users).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to list following")
	}
	return users, nil
}
