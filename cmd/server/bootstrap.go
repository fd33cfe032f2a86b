package main

import (
	"context"

	"github.com/mmbmurphy/banner-content-app-sub001/internal/config"
	"github.com/mmbmurphy/banner-content-app-sub001/internal/handlers"
	"github.com/mmbmurphy/banner-content-app-sub001/internal/models"
	"github.com/mmbmurphy/banner-content-app-sub001/internal/services"
	"github.com/mmbmurphy/banner-content-app-sub001/internal/utils"
	"github.com/mmbmurphy/banner-content-app-sub001/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg            *config.Config
	taskQueue      services.TaskQueue
	worker         *services.Worker
	scheduler      *services.PublishScheduler
	authHandler    *handlers.AuthHandler
	teamHandler    *handlers.TeamHandler
	sessionHandler *handlers.SessionHandler
	reviewHandler  *handlers.ReviewHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	if err := models.SeedDefaultData(&cfg.Anthropic); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	services.InitSystemLogger(models.GetDB())
	services.StartLogCleanupScheduler(models.GetDB())

	// Task queue for async generation (Redis if enabled, sync fallback)
	aiService := services.NewAIService(models.GetDB(), &cfg.Anthropic)
	processGenerate := func(ctx context.Context, task *services.GenerateTask) error {
		_, err := aiService.GenerateStep(ctx, task.SessionID, task.UserID, task.Step)
		return err
	}

	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(processGenerate)
	}

	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(processGenerate)
			worker.Start()
		}
	}

	// Publish sweep + orphan-migration sweep
	scheduler := services.NewPublishScheduler(models.GetDB(), cfg)
	if err := scheduler.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}

	authHandler := handlers.NewAuthHandler(models.GetDB(), cfg)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		cfg:            cfg,
		taskQueue:      taskQueue,
		worker:         worker,
		scheduler:      scheduler,
		authHandler:    authHandler,
		teamHandler:    handlers.NewTeamHandler(models.GetDB()),
		sessionHandler: handlers.NewSessionHandler(models.GetDB(), cfg),
		reviewHandler:  handlers.NewReviewHandler(models.GetDB()),
	}
}

// shutdown gracefully stops all background services.
func (s *appServices) shutdown() {
	s.scheduler.Stop()
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
	logger.Infof("All background services stopped")
}
