package main

import (
	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/handlers"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/middleware"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS(svc.cfg.Server.CORSOrigins))

	healthHandler := handlers.NewHealthHandler(svc.db, svc.taskQueue, svc.hub)
	r.GET("/health", healthHandler.CheckHealth)

	ruleHandler := handlers.NewCompletionRuleHandler(svc.db)
	checklistHandler := handlers.NewChecklistHandler(svc.db, svc.automation)
	workItemHandler := handlers.NewWorkItemHandler(svc.db)
	notificationHandler := handlers.NewNotificationHandler(svc.db)
	sseHandler := handlers.NewSSEHandler(svc.hub)
	systemLogHandler := handlers.NewSystemLogHandler(svc.db)

	api := r.Group("/api")
	{
		api.GET("/health", healthHandler.CheckHealth)

		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.PUT("/checklist-items/:id", svc.limiter.Middleware(), checklistHandler.ToggleItem)
			protected.GET("/checklists/:id/completion", checklistHandler.GetCompletion)

			protected.GET("/work-items/:entity_type/:id/completion", workItemHandler.GetCompletion)
			protected.GET("/work-items/:entity_type/:id/status-history", workItemHandler.StatusHistory)

			protected.GET("/completion-rules", ruleHandler.List)

			protected.GET("/notifications", notificationHandler.List)
			protected.GET("/events/status-changes", sseHandler.StreamStatusChanges)
		}

		admin := api.Group("")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired(), middleware.AuditLog())
		{
			admin.POST("/completion-rules", ruleHandler.Upsert)
			admin.POST("/completion-rules/preview", ruleHandler.Preview)
			admin.DELETE("/completion-rules/:id", ruleHandler.Deactivate)

			admin.POST("/checklists/:id/evaluate", checklistHandler.Evaluate)

			admin.GET("/system-logs", systemLogHandler.List)
			admin.GET("/system-logs/modules", systemLogHandler.GetModules)
		}
	}
}
