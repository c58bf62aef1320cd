// Package page composes the per-request page context: everything the
// shell of a page needs about the viewer. It is built explicitly from the
// request's user and passed along; nothing here is ambient or global.
package page

import (
	"context"

	"github.com/lotbajar/social/internal/models"
	user "github.com/lotbajar/social/internal/models/user"
	storage "github.com/lotbajar/social/pkg/redis"
	"gorm.io/gorm"
)

// Context is the viewer's page context. Anonymous viewers get the zero
// shape with SignedIn false.
type Context struct {
	SignedIn          bool             `json:"signed_in"`
	User              *models.UserCard `json:"user,omitempty"`
	Capabilities      []string         `json:"capabilities,omitempty"`
	NotificationCount int64            `json:"notification_count"`
}

// Compose builds the page context for the given viewer. A nil viewer is
// an anonymous request and never touches the database.
func Compose(ctx context.Context, rclient *storage.RedisClient, db *gorm.DB, viewer *models.User) (*Context, error) {
	if viewer == nil {
		return &Context{}, nil
	}

	card := viewer.Card()

	capabilities, err := user.RoleCapabilities(ctx, rclient, db, viewer.RoleID)
	if err != nil {
		return nil, err
	}

	unread, err := models.CountUnreadNotifications(ctx, rclient, db, viewer.ID)
	if err != nil {
		return nil, err
	}

	return &Context{
		SignedIn:          true,
		User:              &card,
		Capabilities:      capabilities,
		NotificationCount: unread,
	}, nil
}
