// Package v1 holds the HTTP handlers for the first API version. Handlers
// hang off API so every dependency is explicit and test doubles are easy.
package v1

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lotbajar/social/internal/auth"
	"github.com/lotbajar/social/internal/config"
	"github.com/lotbajar/social/internal/page"
	"github.com/lotbajar/social/pkg/logger"
	storage "github.com/lotbajar/social/pkg/redis"
	"github.com/lotbajar/social/pkg/utils"
	"gorm.io/gorm"
)

type API struct {
	DB        *gorm.DB
	Redis     *storage.RedisClient
	Logger    *logger.Logger
	Config    *config.Config
	Auth      auth.Options
	Validator *utils.Validator
	EmailCfg  utils.EmailConfig
}

// New wires the handler set from the app's shared dependencies.
func New(cfg *config.Config, db *gorm.DB, rclient *storage.RedisClient, log *logger.Logger) *API {
	return &API{
		DB:        db,
		Redis:     rclient,
		Logger:    log,
		Config:    cfg,
		Auth:      auth.New(db, rclient, log, cfg.JWT.Secret),
		Validator: utils.NewValidator(),
		EmailCfg: utils.EmailConfig{
			SMTPHost:     cfg.Email.SMTPHost,
			SMTPPort:     cfg.Email.SMTPPort,
			SMTPUsername: cfg.Email.SMTPUsername,
			SMTPPassword: cfg.Email.SMTPPassword,
			AppURL:       cfg.Email.AppURL,
			FromEmail:    cfg.Email.FromEmail,
		},
	}
}

// fail translates a model-layer error into its HTTP response, logging the
// ones that are our fault.
func (api *API) fail(c *fiber.Ctx, err error) error {
	if utils.StatusOf(err) >= fiber.StatusInternalServerError {
		api.Logger.Error(c.Context()).WithFields("error", err.Error(), "path", c.Path()).Logs("Request failed")
	}
	return utils.HandleError(c, err)
}

// pageContext composes the viewer's page context, degrading to the
// anonymous shape if composition fails mid-request.
func (api *API) pageContext(c *fiber.Ctx) *page.Context {
	pc, err := page.Compose(c.Context(), api.Redis, api.DB, auth.CurrentUser(c))
	if err != nil {
		api.Logger.Warn(c.Context()).WithFields("error", err.Error()).Logs("Failed to compose page context")
		return &page.Context{}
	}
	return pc
}

// pagination reads ?page= and ?limit= with sane bounds.
func pagination(c *fiber.Ctx) (int, int) {
	pageNum, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if pageNum < 1 {
		pageNum = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return pageNum, limit
}

// paramUUID parses a UUID path parameter.
func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, utils.NewError(utils.ErrBadRequest.Code, "Invalid "+name)
	}
	return id, nil
}
