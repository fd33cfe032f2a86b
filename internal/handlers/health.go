package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/mmbmurphy/banner-content-app-sub001/internal/models"
	"github.com/mmbmurphy/banner-content-app-sub001/internal/services"
)

// HealthHandler provides the health check endpoint.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	taskQueue := services.GetTaskQueue()
	queueMode := "sync"
	if taskQueue != nil && taskQueue.IsAsync() {
		queueMode = "async (Redis)"
	}

	var inProgress int64
	models.GetDB().Model(&models.Session{}).
		Where("status = ?", models.SessionStatusInProgress).
		Count(&inProgress)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "banner-content-app",
		"components": gin.H{
			"database":             dbStatus,
			"queue_mode":           queueMode,
			"sessions_in_progress": inProgress,
		},
	})
}
