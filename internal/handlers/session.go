package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmbmurphy/banner-content-app-sub001/internal/config"
	"github.com/mmbmurphy/banner-content-app-sub001/internal/middleware"
	"github.com/mmbmurphy/banner-content-app-sub001/internal/services"
	"github.com/mmbmurphy/banner-content-app-sub001/pkg/response"
	"gorm.io/gorm"
)

type SessionHandler struct {
	sessionService  *services.SessionService
	activityService *services.ActivityService
	aiService       *services.AIService
	exportService   *services.ExportService
}

func NewSessionHandler(db *gorm.DB, cfg *config.Config) *SessionHandler {
	return &SessionHandler{
		sessionService:  services.NewSessionService(db),
		activityService: services.NewActivityService(db),
		aiService:       services.NewAIService(db, &cfg.Anthropic),
		exportService:   services.NewExportService(db, &cfg.Integrations),
	}
}

// Create starts a new pipeline session
// POST /api/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	var req services.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	view, err := h.sessionService.Create(middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// List returns the caller's visible sessions
// GET /api/sessions
func (h *SessionHandler) List(c *gin.Context) {
	views, err := h.sessionService.List(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, views)
}

// Get returns one session with its document
// GET /api/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	view, err := h.sessionService.Get(c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// Update saves step data
// PUT /api/sessions/:id
func (h *SessionHandler) Update(c *gin.Context) {
	var req services.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	view, err := h.sessionService.Update(c.Param("id"), middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// Duplicate copies a session. Anonymous callers are allowed for team-less
// sessions; the route sits behind OptionalAuth.
// POST /api/sessions/:id/duplicate
func (h *SessionHandler) Duplicate(c *gin.Context) {
	view, err := h.sessionService.Duplicate(c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// MigrateOrphans back-fills team ownership on legacy sessions
// POST /api/sessions/migrate-orphans (admin)
func (h *SessionHandler) MigrateOrphans(c *gin.Context) {
	result, err := h.sessionService.MigrateOrphans()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// RecordActivity appends an activity entry
// POST /api/sessions/:id/activity
func (h *SessionHandler) RecordActivity(c *gin.Context) {
	var req services.RecordActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	entry, err := h.activityService.Record(c.Param("id"), middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// ListActivity returns a session's activity, newest first
// GET /api/sessions/:id/activity?limit=
func (h *SessionHandler) ListActivity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	entries, err := h.activityService.List(c.Param("id"), middleware.GetUserID(c), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, entries)
}

// Generate runs content generation for one step, inline or queued
// POST /api/sessions/:id/generate
func (h *SessionHandler) Generate(c *gin.Context) {
	var req struct {
		Step  string `json:"step" binding:"required"`
		Async bool   `json:"async"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if req.Async {
		queue := services.GetTaskQueue()
		if queue == nil {
			response.ServerError(c, "task queue not initialized")
			return
		}
		task := &services.GenerateTask{
			SessionID: c.Param("id"),
			UserID:    middleware.GetUserID(c),
			Step:      req.Step,
		}
		if err := queue.Enqueue(task); err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, gin.H{"queued": true, "async": queue.IsAsync()})
		return
	}

	view, err := h.aiService.GenerateStep(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), req.Step)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// Export pushes session content to an external target
// POST /api/sessions/:id/export
func (h *SessionHandler) Export(c *gin.Context) {
	var req services.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	view, err := h.exportService.Export(c.Param("id"), middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}
