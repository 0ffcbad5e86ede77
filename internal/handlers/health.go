package handlers

import (
	"net/http"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/models"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db    *gorm.DB
	queue services.TaskQueue
	hub   *services.SSEHub
}

func NewHealthHandler(db *gorm.DB, queue services.TaskQueue, hub *services.SSEHub) *HealthHandler {
	return &HealthHandler{db: db, queue: queue, hub: hub}
}

// CheckHealth reports database reachability, queue mode and live SSE clients.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"
	status := http.StatusOK

	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	queueMode := "sync"
	if h.queue != nil && h.queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	var activeRules int64
	if dbStatus == "ok" {
		h.db.WithContext(c.Request.Context()).Model(&models.CompletionActionRule{}).
			Where("is_active = ?", true).
			Count(&activeRules)
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"service": "status-automation",
		"components": gin.H{
			"database":     dbStatus,
			"queue_mode":   queueMode,
			"sse_clients":  h.hub.ClientCount(),
			"active_rules": activeRules,
		},
	})
}
