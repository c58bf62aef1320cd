package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lotbajar/social/internal/models"
	"github.com/lotbajar/social/pkg/logger"
	storage "github.com/lotbajar/social/pkg/redis"
	"gorm.io/gorm"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

// Options carries the auth layer's dependencies. Handlers and middleware
// receive it explicitly; there is no package-level state.
type Options struct {
	DB        *gorm.DB
	Rclient   *storage.RedisClient
	Logger    *logger.Logger
	JWTSecret []byte
}

// New builds auth options from the app's shared dependencies.
func New(db *gorm.DB, rclient *storage.RedisClient, log *logger.Logger, jwtSecret string) Options {
	return Options{
		DB:        db,
		Rclient:   rclient,
		Logger:    log,
		JWTSecret: []byte(jwtSecret),
	}
}

// refreshSession is what the refresh store keeps per token: the owner and
// the IP the session was minted for.
type refreshSession struct {
	UserID string `json:"user_id"`
	RoleID string `json:"role_id"`
	IP     string `json:"ip"`
}

// StoreRefreshToken records a refresh session in Redis for its lifetime.
func (opt Options) StoreRefreshToken(ctx context.Context, token string, userID, roleID uuid.UUID, ip string) error {
	session := refreshSession{UserID: userID.String(), RoleID: roleID.String(), IP: ip}
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return opt.Rclient.Set(ctx, "refresh:"+token, data, refreshTokenTTL).Err()
}

// loadRefreshSession fetches and decodes a refresh session, nil when the
// token is unknown or expired.
func (opt Options) loadRefreshSession(ctx context.Context, token string) *refreshSession {
	data, err := opt.Rclient.Get(ctx, "refresh:"+token).Result()
	if err != nil || data == "" {
		return nil
	}
	var session refreshSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil
	}
	return &session
}

// RevokeTokens blacklists both tokens for their remaining lifetimes and
// drops the refresh session. Used on logout.
func (opt Options) RevokeTokens(ctx context.Context, accessToken, refreshToken string) {
	if accessToken != "" {
		opt.Rclient.Set(ctx, "blacklist:access:"+accessToken, "1", accessTokenTTL)
	}
	if refreshToken != "" {
		opt.Rclient.Set(ctx, "blacklist:refresh:"+refreshToken, "1", refreshTokenTTL)
		opt.Rclient.Del(ctx, "refresh:"+refreshToken)
	}
}

func (opt Options) isBlacklisted(ctx context.Context, kind, token string) bool {
	if token == "" {
		return false
	}
	return opt.Rclient.Exists(ctx, "blacklist:"+kind+":"+token).Val() > 0
}

// SetAuthCookies writes both token cookies on the response.
func SetAuthCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Expires:  time.Now().Add(accessTokenTTL),
		HTTPOnly: true,
		SameSite: "Strict",
		Path:     "/",
	})
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Expires:  time.Now().Add(refreshTokenTTL),
		HTTPOnly: true,
		SameSite: "Strict",
		Path:     "/",
	})
}

// ClearAuthCookies expires both token cookies.
func ClearAuthCookies(c *fiber.Ctx) {
	c.ClearCookie("access_token")
	c.ClearCookie("refresh_token")
}

// CurrentUser returns the authenticated user placed by the middleware, or
// nil on anonymous requests.
func CurrentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals("current_user").(*models.User)
	return u
}

// loadUser resolves a user by ID, serving from the cache when it can.
// Deactivated accounts fail here so their sessions die with them.
func (opt Options) loadUser(ctx context.Context, userID string) (*models.User, error) {
	var cached models.User
	if storage.FetchJSON(ctx, opt.Rclient, "user:"+userID, &cached) && cached.ID != uuid.Nil {
		if !cached.IsActive {
			return nil, ErrInactiveUser
		}
		return &cached, nil
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, err
	}
	user, err := models.GetUserBy(ctx, opt.Rclient, opt.DB, "id = ?", []interface{}{id}, "Role")
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	storage.CacheJSON(ctx, opt.Rclient, "user:"+userID, user, 30*time.Minute)
	return user, nil
}
