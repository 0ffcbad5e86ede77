package main

import (
	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/config"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/middleware"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/models"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/services"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/utils"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/pkg/logger"
	"gorm.io/gorm"
)

// appServices holds the long-lived services shared by the routes.
type appServices struct {
	db         *gorm.DB
	cfg        *config.Config
	hub        *services.SSEHub
	taskQueue  services.TaskQueue
	worker     *services.Worker
	automation *services.AutomationService
	logCleanup *services.LogCleanupScheduler
	limiter    *middleware.RateLimiter
}

// bootstrap opens the database and starts the queue, worker and schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	db := models.GetDB()

	services.InitSystemLogger(db)

	logCleanup := services.NewLogCleanupScheduler(db, cfg.Log)
	if err := logCleanup.Start(); err != nil {
		logger.Warn().Err(err).Str("cron", cfg.Log.CleanupCron).Msg("Failed to schedule system log cleanup")
	}

	// Notification intents go through Redis when it is enabled and reachable,
	// otherwise they are delivered in-process.
	notificationService := services.NewNotificationService(db)
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(notificationService.Deliver)
	}

	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.NewWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(notificationService.Deliver)
			if err := worker.Start(); err != nil {
				logger.Error().Err(err).Msg("Failed to start notification worker")
			}
		}
	}

	hub := services.GetSSEHub()
	automation := services.NewAutomationService(db, taskQueue, hub, cfg.Automation)
	if !cfg.Automation.Enabled {
		logger.Warn().Msg("Checklist status automation is disabled")
	}

	return &appServices{
		db:         db,
		cfg:        cfg,
		hub:        hub,
		taskQueue:  taskQueue,
		worker:     worker,
		automation: automation,
		logCleanup: logCleanup,
		limiter:    middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	}
}

// shutdown stops background work in reverse start order.
func (s *appServices) shutdown() {
	s.limiter.Close()
	s.logCleanup.Stop()
	logger.Info().Msg("Schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		if err := s.taskQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close task queue")
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}
