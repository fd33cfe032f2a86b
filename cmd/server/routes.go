package main

import (
	"github.com/gin-gonic/gin"
	"github.com/mmbmurphy/banner-content-app-sub001/internal/handlers"
	"github.com/mmbmurphy/banner-content-app-sub001/internal/middleware"
	"github.com/mmbmurphy/banner-content-app-sub001/internal/models"
	"github.com/mmbmurphy/banner-content-app-sub001/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for generation and export routes (upstream API spend)
	expensiveLimiter := middleware.NewRateLimiter(1, 5)

	healthHandler := handlers.NewHealthHandler()
	r.GET("/health", healthHandler.CheckHealth)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/refresh", svc.authHandler.Refresh)
			auth.GET("/config", svc.authHandler.GetAuthConfig)
		}

		// Anonymous-capable: duplicating a team-less session needs no auth
		api.POST("/sessions/:id/duplicate", middleware.OptionalAuth(), svc.sessionHandler.Duplicate)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Teams
			protected.POST("/teams", svc.teamHandler.Create)
			protected.GET("/teams", svc.teamHandler.List)
			protected.GET("/teams/:id/members", svc.teamHandler.ListMembers)
			protected.PUT("/teams/:id/members", svc.teamHandler.UpdateMemberRole)
			protected.DELETE("/teams/:id/members", svc.teamHandler.RemoveMember)

			// Invites
			protected.POST("/teams/:id/invites", svc.teamHandler.CreateInvite)
			protected.GET("/teams/:id/invites", svc.teamHandler.ListInvites)
			protected.DELETE("/teams/:id/invites", svc.teamHandler.CancelInvite)
			protected.GET("/invites", svc.teamHandler.ListMyInvites)
			protected.POST("/invites/accept", svc.teamHandler.AcceptInvite)

			// Sessions
			protected.POST("/sessions", svc.sessionHandler.Create)
			protected.GET("/sessions", svc.sessionHandler.List)
			protected.GET("/sessions/:id", svc.sessionHandler.Get)
			protected.PUT("/sessions/:id", svc.sessionHandler.Update)

			// Activity log
			protected.GET("/sessions/:id/activity", svc.sessionHandler.ListActivity)
			protected.POST("/sessions/:id/activity", svc.sessionHandler.RecordActivity)

			// Generation + export (rate limited)
			protected.POST("/sessions/:id/generate", expensiveLimiter.Middleware(), svc.sessionHandler.Generate)
			protected.POST("/sessions/:id/export", expensiveLimiter.Middleware(), svc.sessionHandler.Export)

			// Reviews
			protected.POST("/reviews", svc.reviewHandler.Create)
			protected.GET("/reviews", svc.reviewHandler.List)
			protected.PUT("/reviews/:id/respond", svc.reviewHandler.Respond)
			protected.DELETE("/reviews/:id", svc.reviewHandler.Cancel)
		}

		// Admin only routes (audited)
		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired(), middleware.AuditLog())
		{
			llmConfigHandler := handlers.NewLLMConfigHandler(models.GetDB())
			admin.GET("/llm-configs", llmConfigHandler.List)
			admin.GET("/llm-configs/:id", llmConfigHandler.Get)
			admin.POST("/llm-configs", llmConfigHandler.Create)
			admin.PUT("/llm-configs/:id", llmConfigHandler.Update)
			admin.DELETE("/llm-configs/:id", llmConfigHandler.Delete)

			admin.POST("/sessions/migrate-orphans", svc.sessionHandler.MigrateOrphans)

			systemLogHandler := handlers.NewSystemLogHandler(models.GetDB())
			admin.GET("/system-logs", systemLogHandler.List)
		}
	}
}
