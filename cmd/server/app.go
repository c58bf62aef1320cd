package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	routes "github.com/lotbajar/social/internal/api"
	"github.com/lotbajar/social/internal/config"
	"github.com/lotbajar/social/internal/db"
	"github.com/lotbajar/social/internal/models"
	"github.com/lotbajar/social/pkg/logger"
	storage "github.com/lotbajar/social/pkg/redis"
	"github.com/lotbajar/social/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	if cfg.JWT.Secret == "" {
		panic("SOCIAL_JWT_SECRET must be set")
	}

	log, err := logger.NewLogger()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	rclient, err := storage.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password)
	if err != nil {
		log.Error(ctx).WithMeta(utils.Map{"error": err.Error()}).Logs("Failed to initialize Redis")
		panic(err)
	}

	gormDB, err := db.NewDB(ctx, cfg.DSN(), models.RegisterModels(), db.WithLogger(log))
	if err != nil {
		log.Error(ctx).WithMeta(utils.Map{"error": err.Error()}).Logs("Failed to initialize PostgreSQL database")
		panic("DB init failed")
	}
	defer db.CloseDB(log)

	if err := models.SeedRoles(ctx, gormDB, rclient); err != nil {
		log.Error(ctx).WithMeta(utils.Map{"error": err.Error()}).Logs("Failed to seed roles")
		panic("Role seeding failed")
	}

	app := fiber.New(fiber.Config{
		AppName: "social",
	})
	routes.NewRoutes(ctx, app, cfg, gormDB, log, rclient)

	go func() {
		if err := app.Listen(cfg.Server.Addr); err != nil {
			log.Error(ctx).WithMeta(utils.Map{"error": err.Error()}).Logs("Server stopped")
			stop()
		}
	}()
	log.Info(ctx).WithFields("addr", cfg.Server.Addr).Logs("Server started")

	<-ctx.Done()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error(context.Background()).WithMeta(utils.Map{"error": err.Error()}).Logs("Graceful shutdown failed")
	}
}
