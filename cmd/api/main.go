package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/zvms-dev/zvms-api/internal/config"
	"github.com/zvms-dev/zvms-api/internal/database"
	"github.com/zvms-dev/zvms-api/internal/handler"
	"github.com/zvms-dev/zvms-api/internal/middleware"
	"github.com/zvms-dev/zvms-api/internal/models"
	"github.com/zvms-dev/zvms-api/internal/repository"
	"github.com/zvms-dev/zvms-api/internal/router"
	"github.com/zvms-dev/zvms-api/internal/service"
	cloud "github.com/zvms-dev/zvms-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Activity{},
		&models.RegistrationClass{},
		&models.ActivityMember{},
		&models.Trophy{},
		&models.TrophyAward{},
		&models.TrophyMember{},
		&models.Notification{},
		&models.ExportJob{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	defer natsConn.Close()

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	accrual := service.AccrualConfig{
		PrizeQuota:   cfg.PrizeQuota,
		Discount:     cfg.DiscountEnabled,
		DiscountRate: cfg.DiscountRate,
		DiscountCap:  cfg.DiscountCap,
		DiscountBase: cfg.DiscountBase,
	}

	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	trophyRepo := repository.NewTrophyRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	exportRepo := repository.NewExportRepository(db)

	userService := service.NewUserService(userRepo, activityRepo, validate, cfg.JWTSecret, cfg.TokenTTL, logger)
	groupService := service.NewGroupService(groupRepo, logger)
	activityService := service.NewActivityService(activityRepo, validate, uploader, logger)
	trophyService := service.NewTrophyService(trophyRepo, validate, logger)
	transitionService := service.NewTransitionService(activityRepo, trophyRepo, logger)
	timesheetService := service.NewTimesheetService(userRepo, activityRepo, trophyRepo, logger)
	notificationService := service.NewNotificationService(notificationRepo, redisClient, natsConn, validate, logger)
	exportService := service.NewExportService(exportRepo, userRepo, timesheetService, accrual, logger)

	userHandler := handler.NewUserHandler(userService, timesheetService, accrual, logger)
	activityHandler := handler.NewActivityHandler(activityService, transitionService, userService, logger)
	trophyHandler := handler.NewTrophyHandler(trophyService, transitionService, userService, logger)
	groupHandler := handler.NewGroupHandler(groupService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, userService, logger)
	exportHandler := handler.NewExportHandler(exportService, userService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		UserHandler:         userHandler,
		ActivityHandler:     activityHandler,
		TrophyHandler:       trophyHandler,
		GroupHandler:        groupHandler,
		NotificationHandler: notificationHandler,
		ExportHandler:       exportHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
