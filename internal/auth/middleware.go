package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lotbajar/social/internal/models"
)

// Protected requires a signed-in user. It validates the access token,
// transparently rotating via the refresh token when the access token is
// missing or expired, and stores the loaded user in the request locals.
func Protected(opt Options) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, status, msg := opt.authenticate(c)
		if user == nil {
			return c.Status(status).JSON(fiber.Map{"error": msg})
		}

		c.Locals("user_id", user.ID.String())
		c.Locals("current_user", user)
		return c.Next()
	}
}

// OptionalAuth resolves the user when valid credentials ride along but
// lets anonymous requests through untouched.
func OptionalAuth(opt Options) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Cookies("access_token") == "" && c.Cookies("refresh_token") == "" {
			return c.Next()
		}

		user, _, _ := opt.authenticate(c)
		if user != nil {
			c.Locals("user_id", user.ID.String())
			c.Locals("current_user", user)
		}
		return c.Next()
	}
}

// Refresh is the explicit token rotation endpoint for clients that renew
// proactively instead of waiting for an expired access token.
func Refresh(opt Options) fiber.Handler {
	return func(c *fiber.Ctx) error {
		refreshToken := c.Cookies("refresh_token")
		if refreshToken == "" || opt.isBlacklisted(c.Context(), "refresh", refreshToken) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
		}
		if _, err := opt.refreshTokens(c, refreshToken); err != nil {
			ClearAuthCookies(c)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Session expired, log in again"})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Tokens refreshed"})
	}
}

// authenticate resolves the current user from the token cookies. A nil
// user comes back with the status and message to respond with.
func (opt Options) authenticate(c *fiber.Ctx) (*models.User, int, string) {
	ctx := c.Context()
	accessToken := c.Cookies("access_token")
	refreshToken := c.Cookies("refresh_token")

	if opt.isBlacklisted(ctx, "access", accessToken) {
		opt.Logger.Warn(ctx).WithFields("path", c.Path()).Logs("Attempted use of blacklisted access token")
		return nil, fiber.StatusUnauthorized, "Access token has been invalidated"
	}
	if opt.isBlacklisted(ctx, "refresh", refreshToken) {
		opt.Logger.Warn(ctx).WithFields("path", c.Path()).Logs("Attempted use of blacklisted refresh token")
		return nil, fiber.StatusUnauthorized, "Refresh token has been invalidated"
	}

	claims, err := opt.VerifyToken(accessToken)
	if err != nil {
		if err != ErrExpiredToken && accessToken != "" {
			opt.Logger.Warn(ctx).WithFields("error", err.Error()).Logs("Access token invalid")
			return nil, fiber.StatusUnauthorized, "Invalid access token"
		}
		claims, err = opt.refreshTokens(c, refreshToken)
		if err != nil {
			return nil, fiber.StatusUnauthorized, "Token refresh failed"
		}
	}

	user, err := opt.loadUser(ctx, claims.UserID)
	if err != nil {
		opt.Logger.Warn(ctx).WithFields("user_id", claims.UserID).Logs("User not found during authentication")
		ClearAuthCookies(c)
		return nil, fiber.StatusUnauthorized, "User not found"
	}

	if claims.RoleID != user.RoleID.String() {
		opt.Logger.Warn(ctx).WithFields("user_id", claims.UserID, "token_role", claims.RoleID, "user_role", user.RoleID.String()).Logs("Role mismatch")
		return nil, fiber.StatusForbidden, "Role mismatch"
	}

	return user, 0, ""
}

// refreshTokens rotates the session: spends the refresh token, mints a new
// pair and sets fresh cookies. The session is IP-pinned.
func (opt Options) refreshTokens(c *fiber.Ctx, refreshToken string) (*Claims, error) {
	ctx := c.Context()
	if refreshToken == "" {
		return nil, ErrInvalidToken
	}

	session := opt.loadRefreshSession(ctx, refreshToken)
	if session == nil {
		opt.Logger.Warn(ctx).Logs("Invalid or expired refresh token")
		return nil, ErrInvalidToken
	}
	if session.IP != c.IP() {
		opt.Logger.Warn(ctx).WithFields("user_id", session.UserID).Logs("Refresh token IP mismatch")
		opt.Rclient.Del(ctx, "refresh:"+refreshToken)
		return nil, ErrInvalidToken
	}

	user, err := opt.loadUser(ctx, session.UserID)
	if err != nil {
		opt.Logger.Warn(ctx).WithFields("user_id", session.UserID).Logs("User not found during token refresh")
		ClearAuthCookies(c)
		return nil, ErrInvalidToken
	}
	if session.RoleID != "" && session.RoleID != user.RoleID.String() {
		opt.Logger.Warn(ctx).WithFields("user_id", session.UserID).Logs("Role changed since refresh token was issued")
		opt.Rclient.Del(ctx, "refresh:"+refreshToken)
		return nil, ErrInvalidToken
	}

	newAccessToken, err := opt.GenerateAccessToken(user.ID.String(), user.RoleID.String())
	if err != nil {
		opt.Logger.Error(ctx).WithFields("error", err.Error()).Logs("Failed to generate access token")
		return nil, err
	}
	newRefreshToken := GenerateRefreshToken()
	if err := opt.StoreRefreshToken(ctx, newRefreshToken, user.ID, user.RoleID, c.IP()); err != nil {
		opt.Logger.Error(ctx).WithFields("error", err.Error()).Logs("Failed to store refresh session")
		return nil, err
	}
	opt.Rclient.Del(ctx, "refresh:"+refreshToken)

	SetAuthCookies(c, newAccessToken, newRefreshToken)
	opt.Logger.Info(ctx).WithFields("user_id", user.ID.String()).Logs("Tokens refreshed")

	return &Claims{UserID: user.ID.String(), RoleID: user.RoleID.String()}, nil
}
