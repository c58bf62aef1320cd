package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	storage "github.com/lotbajar/social/pkg/redis"
	"github.com/lotbajar/social/pkg/utils"
	"gorm.io/gorm"
)

// CapabilityName is one of the enumerated capability identifiers. The set is
// closed: seeding and handlers reject anything outside AllCapabilities.
type CapabilityName string

const (
	CapReact            CapabilityName = "react"
	CapCreatePost       CapabilityName = "create_post"
	CapEditOwnPost      CapabilityName = "edit_own_post"
	CapDeleteOwnPost    CapabilityName = "delete_own_post"
	CapCreateComment    CapabilityName = "create_comment"
	CapEditOwnComment   CapabilityName = "edit_own_comment"
	CapDeleteOwnComment CapabilityName = "delete_own_comment"
	CapFollowUser       CapabilityName = "follow_user"
	CapBlockUser        CapabilityName = "block_user"
	CapReportContent    CapabilityName = "report_content"
	CapModerateContent  CapabilityName = "moderate_content"
	CapInviteUser       CapabilityName = "invite_user"
	CapAdminSite        CapabilityName = "admin_site"
)

// AllCapabilities enumerates every capability the application knows about.
var AllCapabilities = []CapabilityName{
	CapReact,
	CapCreatePost,
	CapEditOwnPost,
	CapDeleteOwnPost,
	CapCreateComment,
	CapEditOwnComment,
	CapDeleteOwnComment,
	CapFollowUser,
	CapBlockUser,
	CapReportContent,
	CapModerateContent,
	CapInviteUser,
	CapAdminSite,
}

// ValidCapability reports whether name belongs to the enumerated set.
func ValidCapability(name CapabilityName) bool {
	for _, c := range AllCapabilities {
		if c == name {
			return true
		}
	}
	return false
}

type Role struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string       `gorm:"size:50;not null;unique" json:"name" validate:"required"`
	Capabilities []Capability `gorm:"many2many:role_capabilities;" json:"capabilities"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

type Capability struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:50;not null;unique" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r *Role) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (c *Capability) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CapabilityNames flattens the role's capabilities for membership tests.
func (r *Role) CapabilityNames() []string {
	names := make([]string, len(r.Capabilities))
	for i, c := range r.Capabilities {
		names[i] = c.Name
	}
	return names
}

// Grants reports whether the role carries the given capability.
func (r *Role) Grants(name CapabilityName) bool {
	for _, c := range r.Capabilities {
		if c.Name == string(name) {
			return true
		}
	}
	return false
}

// RoleGrants maps each seeded role to its capability set.
var RoleGrants = map[string][]CapabilityName{
	"member": {
		CapReact, CapCreatePost, CapEditOwnPost, CapDeleteOwnPost,
		CapCreateComment, CapEditOwnComment, CapDeleteOwnComment,
		CapFollowUser, CapBlockUser, CapReportContent, CapInviteUser,
	},
	"moderator": {
		CapReact, CapCreatePost, CapEditOwnPost, CapDeleteOwnPost,
		CapCreateComment, CapEditOwnComment, CapDeleteOwnComment,
		CapFollowUser, CapBlockUser, CapReportContent, CapInviteUser,
		CapModerateContent,
	},
	"admin": {
		CapReact, CapCreatePost, CapEditOwnPost, CapDeleteOwnPost,
		CapCreateComment, CapEditOwnComment, CapDeleteOwnComment,
		CapFollowUser, CapBlockUser, CapReportContent, CapInviteUser,
		CapModerateContent, CapAdminSite,
	},
}

// SeedRoles initializes the default roles and their capability grants.
// Reseeding is idempotent; Append deduplicates on the join table.
func SeedRoles(ctx context.Context, gormDB *gorm.DB, redisClient *storage.RedisClient) error {
	for name, grants := range RoleGrants {
		var role Role
		if err := gormDB.WithContext(ctx).Where(Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
			return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to seed role: "+name)
		}

		for _, grant := range grants {
			if !ValidCapability(grant) {
				return utils.NewError(utils.ErrInternalServerError.Code, "Unknown capability in role grants: "+string(grant))
			}
			var capability Capability
			if err := gormDB.WithContext(ctx).Where(Capability{Name: string(grant)}).FirstOrCreate(&capability).Error; err != nil {
				return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to seed capability: "+string(grant))
			}
			if err := gormDB.WithContext(ctx).Model(&role).Association("Capabilities").Append(&capability); err != nil {
				return utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to grant capability: "+string(grant))
			}
		}

		var seeded Role
		if err := gormDB.WithContext(ctx).Preload("Capabilities").First(&seeded, "id = ?", role.ID).Error; err == nil {
			storage.CacheJSON(ctx, redisClient, "caps:role:"+role.ID.String(), seeded.CapabilityNames(), 10*time.Minute)
		}
	}

	return nil
}

// GetRoleBy retrieves a role by condition with its capabilities loaded.
func GetRoleBy(ctx context.Context, gormDB *gorm.DB, condition string, args ...interface{}) (*Role, error) {
	var role Role
	if err := gormDB.WithContext(ctx).Preload("Capabilities").Where(condition, args...).First(&role).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewError(utils.ErrNotFound.Code, "Role not found")
		}
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "Failed to get role")
	}
	return &role, nil
}

// RoleCapabilities returns the capability names of a role, serving from
// cache when possible.
func RoleCapabilities(ctx context.Context, redisClient *storage.RedisClient, gormDB *gorm.DB, roleID uuid.UUID) ([]string, error) {
	cacheKey := "caps:role:" + roleID.String()

	var names []string
	if storage.FetchJSON(ctx, redisClient, cacheKey, &names) {
		return names, nil
	}

	role, err := GetRoleBy(ctx, gormDB, "id = ?", roleID)
	if err != nil {
		return nil, err
	}

	names = role.CapabilityNames()
	storage.CacheJSON(ctx, redisClient, cacheKey, names, 10*time.Minute)
	return names, nil
}
