package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	storage "github.com/lotbajar/social/pkg/redis"
	"github.com/lotbajar/social/pkg/utils"
	"gorm.io/gorm"
)

type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Username        string    `gorm:"size:255;not null;unique" json:"username" validate:"required,min=3,max=255,alphanum"`
	Email           string    `gorm:"size:100;not null;unique" json:"email" validate:"required,email"`
	Password        string    `gorm:"size:255;not null" json:"-" validate:"required,min=6"`
	IsActive        bool      `gorm:"default:false" json:"is_active"`
	IsEmailVerified bool      `gorm:"default:false" json:"is_email_verified"`
	RoleID          uuid.UUID `gorm:"type:uuid;not null" json:"role_id"`
	Role            Role      `gorm:"foreignKey:RoleID" json:"role"`

	Profile struct {
		Name      string `gorm:"size:100" json:"name" validate:"omitempty,max=100"`
		Bio       string `gorm:"type:text;size:255" json:"bio" validate:"omitempty,max=255"`
		AvatarURL string `gorm:"type:text;size:255" json:"avatar_url" validate:"omitempty,url"`
		Location  string `gorm:"size:100" json:"location" validate:"omitempty,max=100"`
		Website   string `gorm:"type:text;size:255" json:"website" validate:"omitempty,url"`
		Pronouns  string `gorm:"size:100" json:"pronouns" validate:"omitempty,max=100"`
	} `gorm:"embedded"`

	Stats struct {
		PostsCount     int       `gorm:"default:0" json:"posts_count"`
		CommentsCount  int       `gorm:"default:0" json:"comments_count"`
		FollowersCount int       `gorm:"default:0" json:"followers_count"`
		FollowingCount int       `gorm:"default:0" json:"following_count"`
		LastSeen       time.Time `json:"last_seen"`
	} `gorm:"embedded"`

	Notifications []Notification `gorm:"foreignKey:UserID" json:"notifications,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Stats.LastSeen.IsZero() {
		u.Stats.LastSeen = time.Now()
	}
	return nil
}

// UserCard is the compact projection embedded in reactor lists, follow
// lists and the page context.
type UserCard struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url"`
}

// Card returns the compact projection of the user.
func (u *User) Card() UserCard {
	return UserCard{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Profile.Name,
		AvatarURL: u.Profile.AvatarURL,
	}
}

type UpdateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=255,alphanum"`
	Email    *string `json:"email" validate:"omitempty,email,max=100"`
	Password *string `json:"password" validate:"omitempty,min=6"`

	Profile *struct {
		Name      *string `json:"name" validate:"omitempty,max=100"`
		Bio       *string `json:"bio" validate:"omitempty,max=255"`
		AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
		Location  *string `json:"location" validate:"omitempty,max=100"`
		Website   *string `json:"website" validate:"omitempty,url"`
		Pronouns  *string `json:"pronouns" validate:"omitempty,max=100"`
	} `json:"profile"`
}

// UserOption configures a User.
type UserOption func(*User)

// NewUser creates a user with the default member role. The password must
// arrive already hashed.
func NewUser(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, username, email, password string, opts ...UserOption) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "User creation canceled")
	}

	var memberRole Role
	if err := db.WithContext(ctx).Where("name = ?", "member").First(&memberRole).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Default 'member' role not found")
	}

	u := &User{
		Username: username,
		Email:    email,
		Password: password,
		RoleID:   memberRole.ID,
	}

	for _, opt := range opts {
		opt(u)
	}

	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			return nil, utils.NewError(utils.ErrConflict.Code, "Username or email already taken")
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to create user in database")
	}

	storage.CacheJSON(ctx, rclient, "user:"+u.ID.String(), u, 10*time.Minute)
	return u, nil
}

// GetUserBy retrieves a user by condition, with optional preloading of
// relationships.
func GetUserBy(ctx context.Context, redisClient *storage.RedisClient, gormDB *gorm.DB, condition string, args []interface{}, preload ...string) (*User, error) {
	var u User
	query := gormDB.WithContext(ctx).Where(condition, args...)
	for _, p := range preload {
		if p != "" {
			query = query.Preload(p)
		}
	}
	if err := query.First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewError(utils.ErrNotFound.Code, "User not found")
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to get user")
	}

	return &u, nil
}

// GetUsers retrieves users with pagination and optional filters.
func GetUsers(ctx context.Context, redisClient *storage.RedisClient, gormDB *gorm.DB, page, limit int, filters ...string) ([]User, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var users []User
	query := gormDB.WithContext(ctx).Preload("Role").Order("created_at DESC").Offset((page - 1) * limit).Limit(limit)
	for _, f := range filters {
		query = query.Where(f)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to get users")
	}

	return users, nil
}

// UpdateUser applies options to a user and refreshes the cache.
func UpdateUser(ctx context.Context, redisClient *storage.RedisClient, gormDB *gorm.DB, id uuid.UUID, opts ...UserOption) (*User, error) {
	u, err := GetUserBy(ctx, redisClient, gormDB, "id = ?", []interface{}{id})
	if err != nil {
		return nil, err
	}

	for _, opt := range opts {
		opt(u)
	}

	if err := gormDB.WithContext(ctx).Save(u).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			return nil, utils.NewError(utils.ErrConflict.Code, "Username or email already taken")
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to update user")
	}

	storage.CacheJSON(ctx, redisClient, "user:"+u.ID.String(), u, 10*time.Minute)
	return u, nil
}

// DeleteUser soft-deletes a user and clears the cache.
func DeleteUser(ctx context.Context, redisClient *storage.RedisClient, gormDB *gorm.DB, id uuid.UUID) error {
	u, err := GetUserBy(ctx, redisClient, gormDB, "id = ?", []interface{}{id})
	if err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).Delete(u).Error; err != nil {
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to delete user")
	}

	storage.Invalidate(ctx, redisClient, "user:"+id.String())
	return nil
}

// Activate marks the user's email as verified and the account as active.
// OTP verification happens in the auth layer before this is called.
func (u *User) Activate(ctx context.Context, redisClient *storage.RedisClient, gormDB *gorm.DB) error {
	u.IsEmailVerified = true
	u.IsActive = true
	if err := gormDB.WithContext(ctx).Model(u).Updates(map[string]interface{}{
		"is_email_verified": true,
		"is_active":         true,
	}).Error; err != nil {
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to activate user")
	}

	storage.CacheJSON(ctx, redisClient, "user:"+u.ID.String(), u, 10*time.Minute)
	return nil
}

// UpdateLastSeen refreshes the user's last seen timestamp without touching
// other columns.
func (u *User) UpdateLastSeen(ctx context.Context, redisClient *storage.RedisClient, gormDB *gorm.DB) error {
	u.Stats.LastSeen = time.Now()
	if err := gormDB.WithContext(ctx).Model(u).UpdateColumn("last_seen", u.Stats.LastSeen).Error; err != nil {
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to update last seen")
	}

	storage.Invalidate(ctx, redisClient, "user:"+u.ID.String())
	return nil
}

// UpdateUserStats atomically adjusts a counter column on the user row.
// Column must be one of the stats columns; delta may be negative.
func UpdateUserStats(ctx context.Context, gormDB *gorm.DB, userID uuid.UUID, column string, delta int) error {
	switch column {
	case "posts_count", "comments_count", "followers_count", "following_count":
	default:
		return utils.NewError(utils.ErrInternalServerError.Code, "Unknown stats column: "+column)
	}
	if err := gormDB.WithContext(ctx).Model(&User{}).Where("id = ?", userID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error; err != nil {
		return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to update user stats")
	}
	return nil
}

// HasCapability checks whether the user's role grants the capability,
// serving the role's capability set from cache when possible.
func (u *User) HasCapability(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, capability CapabilityName) bool {
	names, err := RoleCapabilities(ctx, rclient, db, u.RoleID)
	if err != nil {
		return false
	}
	for _, n := range names {
		if n == string(capability) {
			return true
		}
	}
	return false
}
