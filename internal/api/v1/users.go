package v1

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lotbajar/social/internal/auth"
	"github.com/lotbajar/social/internal/models"
	"github.com/lotbajar/social/pkg/utils"
	"gorm.io/gorm"
)

// Register creates an account from a pending invitation. The code is spent
// in the same transaction that creates the user, so it cannot be reused.
func (api *API) Register(c *fiber.Ctx) error {
	type RegisterInput struct {
		InvitationCode  string `json:"invitation_code" validate:"required,min=16"`
		Name            string `json:"name" validate:"omitempty,max=100"`
		Username        string `json:"username" validate:"required,min=3,max=50,alphanum"`
		Email           string `json:"email" validate:"required,email,max=100"`
		Password        string `json:"password" validate:"required,min=6,eqfield=ConfirmPassword"`
		ConfirmPassword string `json:"confirm_password" validate:"required,min=6"`
	}
	ui := new(RegisterInput)
	if err := utils.StrictBodyParser(c, ui); err != nil {
		api.Logger.Warn(c.Context()).WithFields("error", err.Error()).Logs("Failed to parse registration body")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request format"})
	}
	if err := api.Validator.Validate(ui); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": err})
	}

	ui.Email = strings.ToLower(strings.TrimSpace(ui.Email))

	invitation, err := models.GetInvitationBy(c.Context(), api.DB, "code = ?", []interface{}{ui.InvitationCode})
	if err != nil || !invitation.Pending(time.Now()) {
		api.Logger.Warn(c.Context()).WithFields("email", ui.Email).Logs("Registration with invalid invitation code")
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "A valid invitation is required to register"})
	}
	if !strings.EqualFold(invitation.Email, ui.Email) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Invitation was issued for a different email address"})
	}

	hashedPass, err := utils.HashPassword(ui.Password)
	if err != nil {
		api.Logger.Error(c.Context()).WithFields("error", err.Error()).Logs("Failed to hash password")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process password"})
	}

	var user *models.User
	err = api.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		user, txErr = models.NewUser(c.Context(), api.Redis, tx, ui.Username, ui.Email, hashedPass, models.WithName(ui.Name))
		if txErr != nil {
			return txErr
		}
		if txErr = models.AcceptInvitation(c.Context(), tx, ui.InvitationCode, user.ID); txErr != nil {
			return txErr
		}
		return models.NotifyUser(c.Context(), nil, tx, invitation.InvitedByID, models.NotifyTypeInviteAccepted,
			&user.ID, "user", &user.ID, "your invitation was accepted")
	})
	if err != nil {
		return api.fail(c, err)
	}

	gotp, err := utils.GenerateOTP()
	if err != nil {
		api.Logger.Error(c.Context()).WithFields("error", err.Error()).Logs("Failed to generate OTP")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate activation code"})
	}
	token, err := utils.GenerateRandomToken(32)
	if err != nil {
		api.Logger.Error(c.Context()).WithFields("error", err.Error()).Logs("Failed to generate activation token")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate activation token"})
	}

	if otpHash, err := utils.HashOTP(gotp); err == nil {
		api.Redis.Set(c.Context(), "otp:"+token, otpHash, 24*time.Hour)
		api.Redis.Set(c.Context(), "activate:"+token, user.ID.String(), 24*time.Hour)
	} else {
		api.Logger.Error(c.Context()).WithFields("error", err.Error()).Logs("Failed to hash OTP")
	}

	if err := utils.SendActivationEmail(c.Context(), api.EmailCfg, ui.Email, ui.Username, token, gotp, api.Logger); err != nil {
		api.Logger.Warn(c.Context()).WithFields("error", err.Error()).Logs("Activation email failed, user created anyway")
	}

	api.Logger.Info(c.Context()).WithFields("user_id", user.ID.String()).Logs(fmt.Sprintf("User registered: %s", ui.Username))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registration successful. Check your email to activate your account.",
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

// Activate verifies the emailed OTP and switches the account on.
func (api *API) Activate(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Activation token missing"})
	}

	type ActivateRequest struct {
		OTP int64 `json:"otp" validate:"required"`
	}
	var ar ActivateRequest
	if err := utils.StrictBodyParser(c, &ar); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request format"})
	}
	if err := api.Validator.Validate(ar); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": err})
	}

	userID, err := api.Redis.Get(c.Context(), "activate:"+token).Result()
	if err != nil || userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid or expired activation token"})
	}

	otpHash, err := api.Redis.Get(c.Context(), "otp:"+token).Result()
	if err != nil || otpHash == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid or expired activation code"})
	}
	if err := utils.CompareOTP(otpHash, ar.OTP); err != nil {
		api.Logger.Warn(c.Context()).WithFields("user_id", userID).Logs("Invalid OTP provided")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid activation code"})
	}

	user, err := models.GetUserBy(c.Context(), api.Redis, api.DB, "id = ?", []interface{}{userID})
	if err != nil {
		return api.fail(c, err)
	}
	if err := user.Activate(c.Context(), api.Redis, api.DB); err != nil {
		return api.fail(c, err)
	}

	api.Redis.Del(c.Context(), "otp:"+token, "activate:"+token)
	api.Logger.Info(c.Context()).WithFields("user_id", user.ID.String()).Logs(fmt.Sprintf("User activated: %s", user.Username))

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Account activated successfully. Please log in now!",
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

// Login checks credentials and issues the cookie pair. Attempts are rate
// limited per source IP.
func (api *API) Login(c *fiber.Ctx) error {
	type LoginRequest struct {
		Email    string `json:"email" validate:"required,email,max=100"`
		Password string `json:"password" validate:"required,min=6,max=100"`
	}
	var lr LoginRequest
	if err := utils.StrictBodyParser(c, &lr); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request format"})
	}

	ipKey := "login:ip:" + c.IP()
	if count, err := api.Redis.Get(c.Context(), ipKey).Int(); err == nil && count >= 5 {
		api.Logger.Warn(c.Context()).WithFields("ip", c.IP()).Logs("Login rate limit exceeded")
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many login attempts. Try again later."})
	}
	api.Redis.Incr(c.Context(), ipKey)
	api.Redis.Expire(c.Context(), ipKey, 15*time.Minute)

	if err := api.Validator.Validate(lr); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": err})
	}

	lr.Email = strings.ToLower(strings.TrimSpace(lr.Email))

	user, err := models.GetUserBy(c.Context(), api.Redis, api.DB, "email = ?", []interface{}{lr.Email})
	if err != nil {
		api.Logger.Warn(c.Context()).WithFields("email", lr.Email).Logs("Login for unknown email")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}
	if !user.IsActive || !user.IsEmailVerified {
		api.Logger.Warn(c.Context()).WithFields("user_id", user.ID.String()).Logs("Login attempt on inactive account")
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Account not activated. Check your email."})
	}
	if err := utils.ComparePasswords(user.Password, lr.Password); err != nil {
		api.Logger.Warn(c.Context()).WithFields("email", lr.Email).Logs("Invalid password provided")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}

	accessToken, err := api.Auth.GenerateAccessToken(user.ID.String(), user.RoleID.String())
	if err != nil {
		api.Logger.Error(c.Context()).WithFields("error", err.Error()).Logs("Failed to generate access token")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process login"})
	}
	refreshToken := auth.GenerateRefreshToken()
	if err := api.Auth.StoreRefreshToken(c.Context(), refreshToken, user.ID, user.RoleID, c.IP()); err != nil {
		api.Logger.Warn(c.Context()).WithFields("error", err.Error()).Logs("Failed to store refresh session")
	}

	auth.SetAuthCookies(c, accessToken, refreshToken)
	api.Redis.Del(c.Context(), ipKey)

	go user.UpdateLastSeen(c.UserContext(), api.Redis, api.DB)

	api.Logger.Info(c.Context()).WithFields("user_id", user.ID.String()).Logs(fmt.Sprintf("User logged in: %s", user.Username))

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Login successful",
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"name":     user.Profile.Name,
			"avatar":   user.Profile.AvatarURL,
		},
	})
}

// Logout blacklists the current tokens and expires the cookies.
func (api *API) Logout(c *fiber.Ctx) error {
	api.Auth.RevokeTokens(c.Context(), c.Cookies("access_token"), c.Cookies("refresh_token"))
	auth.ClearAuthCookies(c)

	c.Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
	c.Set("Pragma", "no-cache")

	api.Logger.Info(c.Context()).Logs("User logged out")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Logout successful"})
}

// Me returns the signed-in user's own record with the page context.
func (api *API) Me(c *fiber.Ctx) error {
	user := auth.CurrentUser(c)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user":         user,
		"page_context": api.pageContext(c),
	})
}

// GetUser serves a public profile with their recent published posts.
// Blocked pairs see each other as missing.
func (api *API) GetUser(c *fiber.Ctx) error {
	username := c.Params("username")
	profile, err := models.GetUserBy(c.Context(), api.Redis, api.DB, "username = ?", []interface{}{username})
	if err != nil {
		return api.fail(c, err)
	}

	viewer := auth.CurrentUser(c)
	isFollowing := false
	if viewer != nil && viewer.ID != profile.ID {
		blocked, err := models.IsBlockedEitherWay(c.Context(), api.DB, viewer.ID, profile.ID)
		if err != nil {
			return api.fail(c, err)
		}
		if blocked {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		if isFollowing, err = models.IsFollowing(c.Context(), api.DB, viewer.ID, profile.ID); err != nil {
			return api.fail(c, err)
		}
	}

	recentPosts, err := api.publishedPostsOf(c, profile)
	if err != nil {
		return api.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user":         publicUser(profile),
		"is_following": isFollowing,
		"recent_posts": recentPosts,
		"page_context": api.pageContext(c),
	})
}

// UpdateMe applies partial profile updates to the signed-in user.
func (api *API) UpdateMe(c *fiber.Ctx) error {
	user := auth.CurrentUser(c)

	var req models.UpdateUserRequest
	if err := utils.StrictBodyParser(c, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request format"})
	}
	if err := api.Validator.Validate(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": err})
	}

	var opts []models.UserOption
	if req.Username != nil {
		opts = append(opts, models.WithUsername(*req.Username))
	}
	if req.Email != nil {
		opts = append(opts, models.WithEmail(strings.ToLower(strings.TrimSpace(*req.Email))))
	}
	if req.Password != nil {
		hashed, err := utils.HashPassword(*req.Password)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process password"})
		}
		opts = append(opts, models.WithPassword(hashed))
	}
	if req.Profile != nil {
		if req.Profile.Name != nil {
			opts = append(opts, models.WithName(*req.Profile.Name))
		}
		if req.Profile.Bio != nil {
			opts = append(opts, models.WithBio(*req.Profile.Bio))
		}
		if req.Profile.AvatarURL != nil {
			opts = append(opts, models.WithAvatarURL(*req.Profile.AvatarURL))
		}
		if req.Profile.Location != nil {
			opts = append(opts, models.WithLocation(*req.Profile.Location))
		}
		if req.Profile.Website != nil {
			opts = append(opts, models.WithWebsite(*req.Profile.Website))
		}
		if req.Profile.Pronouns != nil {
			opts = append(opts, models.WithPronouns(*req.Profile.Pronouns))
		}
	}
	if len(opts) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Nothing to update"})
	}

	updated, err := models.UpdateUser(c.Context(), api.Redis, api.DB, user.ID, opts...)
	if err != nil {
		return api.fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Profile updated",
		"user":    publicUser(updated),
	})
}

func (api *API) publishedPostsOf(c *fiber.Ctx, profile *models.User) ([]fiber.Map, error) {
	posts, err := models.GetPosts(c.Context(), api.Redis, api.DB, 1, 10,
		fmt.Sprintf("author_id = '%s' AND published = true", profile.ID))
	if err != nil {
		return nil, err
	}

	cards := make([]fiber.Map, len(posts))
	for i, p := range posts {
		cards[i] = fiber.Map{
			"id":           p.ID,
			"title":        p.Title,
			"slug":         p.Slug,
			"excerpt":      p.Excerpt,
			"published_at": p.PublishedAt,
		}
	}
	return cards, nil
}

// publicUser is the profile projection safe to show anyone.
func publicUser(u *models.User) fiber.Map {
	return fiber.Map{
		"id":         u.ID,
		"username":   u.Username,
		"name":       u.Profile.Name,
		"bio":        u.Profile.Bio,
		"avatar_url": u.Profile.AvatarURL,
		"location":   u.Profile.Location,
		"website":    u.Profile.Website,
		"pronouns":   u.Profile.Pronouns,
		"created_at": u.CreatedAt,
		"stats": fiber.Map{
			"posts":     u.Stats.PostsCount,
			"comments":  u.Stats.CommentsCount,
			"followers": u.Stats.FollowersCount,
			"following": u.Stats.FollowingCount,
		},
	}
}
