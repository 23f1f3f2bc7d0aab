// Package router wires every route group to its handlers and middleware.
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dsarena/exam-backend/internal/config"
	"github.com/dsarena/exam-backend/internal/handler"
	"github.com/dsarena/exam-backend/internal/middleware"
	"github.com/dsarena/exam-backend/internal/response"
	"github.com/dsarena/exam-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth  *handler.AuthHandler
	Exam  *handler.ExamHandler
	Admin *handler.AdminHandler
	WS    *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so every response carries tracing metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Auth Group (Public) ────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/candidate", handlers.Auth.CandidateEnter)
		auth.POST("/admin/login", handlers.Auth.AdminLogin)
		auth.GET("/me", middleware.RequireCandidateJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Exam Group (Candidate JWT) ─────────────────────────────────
	exam := router.Group("/api/v1/exam")
	exam.Use(middleware.RequireCandidateJWT(authService))
	{
		exam.POST("/sessions", handlers.Exam.StartSession)
		exam.GET("/sessions/active", handlers.Exam.ResumeSession)
		exam.GET("/sessions/:session_id", handlers.Exam.SessionState)
		exam.POST("/sessions/:session_id/run", handlers.Exam.RunCode)
		exam.POST("/sessions/:session_id/violations", handlers.Exam.ReportViolation)
		exam.POST("/sessions/:session_id/submit", handlers.Exam.SubmitSession)
	}

	// ─── 3. WebSocket Group (Candidate WS Auth) ────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireCandidateWSAuth(authService))
	{
		ws.GET("/exam/sessions/:session_id/stream", handlers.WS.ProctorStream)
	}

	// ─── 4. Admin Group (Admin JWT) ────────────────────────────────────
	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.RequireAdminJWT(authService))
	{
		admin.GET("/sessions", handlers.Admin.ListSessions)
		admin.GET("/sessions/export", handlers.Admin.ExportResults)
		admin.GET("/sessions/:session_id", handlers.Admin.GetSession)
		admin.POST("/sessions/:session_id/fix-stale", handlers.Admin.FixStaleSession)
		admin.POST("/sessions/:session_id/revoke", handlers.Admin.RevokeSession)

		admin.POST("/eligibility/approve-all", handlers.Admin.ApproveAllRetakes)
		admin.POST("/eligibility/:user_id/approve", handlers.Admin.ApproveRetake)
		admin.DELETE("/users/:user_id/history", handlers.Admin.DeleteUserHistory)

		admin.POST("/instances", handlers.Admin.CreateInstance)
		admin.GET("/instances", handlers.Admin.ListInstances)
		admin.GET("/instances/:instance_id", handlers.Admin.GetInstance)
		admin.POST("/instances/:instance_id/activate", handlers.Admin.ActivateInstance)
		admin.POST("/instances/:instance_id/complete", handlers.Admin.CompleteInstance)
		admin.DELETE("/instances/:instance_id", handlers.Admin.DeleteInstance)
		admin.POST("/instances/:instance_id/questions", handlers.Admin.AddInstanceQuestion)
	}

	return router
}
