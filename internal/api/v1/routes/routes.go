package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"voicescribe/internal/api/middleware"
	"voicescribe/internal/api/v1/handlers"
	"voicescribe/internal/api/v1/services"
)

// ServiceContainer holds all services needed by handlers
type ServiceContainer struct {
	TranscriptionService services.TranscriptionService
	AnalysisService      services.AnalysisService
	UsageService         services.UsageService
	WebhookService       services.WebhookService
	WebhookSecret        string
	Auth                 gin.HandlerFunc
	Logger               *slog.Logger
}

// RegisterRoutes registers all v1 API routes
func RegisterRoutes(router *gin.RouterGroup, container *ServiceContainer) {
	// provider callbacks authenticate with the webhook secret, not a user token
	if container.WebhookService != nil {
		webhookHandler := handlers.NewWebhookHandler(container.WebhookService, container.WebhookSecret, container.Logger)
		router.POST("/webhooks/assemblyai", webhookHandler.AssemblyAI)
	}

	authed := router.Group("")
	authed.Use(container.Auth)

	transcriptionHandler := handlers.NewTranscriptionHandler(container.TranscriptionService, container.Logger)
	transcriptions := authed.Group("/transcriptions")
	{
		transcriptions.POST("", transcriptionHandler.Upload)
		transcriptions.GET("", transcriptionHandler.List)
		transcriptions.GET("/:id", transcriptionHandler.Get)
		transcriptions.POST("/:id/start", transcriptionHandler.Start)
		transcriptions.POST("/:id/cancel", transcriptionHandler.Cancel)
		transcriptions.POST("/:id/retry", transcriptionHandler.Retry)
		transcriptions.GET("/:id/events", transcriptionHandler.Events)
	}

	if container.AnalysisService != nil {
		analysisHandler := handlers.NewAnalysisHandler(container.AnalysisService, container.Logger)
		transcriptions.POST("/:id/analysis", analysisHandler.Analyze)
		transcriptions.POST("/:id/ask", analysisHandler.Ask)
	}

	usageHandler := handlers.NewUsageHandler(container.UsageService)
	authed.GET("/user/usage", usageHandler.Usage)

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("/users/:id/limits", usageHandler.GetUserLimits)
		admin.PUT("/users/:id/limits", usageHandler.SetUserLimits)
		admin.DELETE("/users/:id/usage/:period", usageHandler.ResetUsage)
		admin.GET("/settings/limits", usageHandler.GetDefaultLimits)
		admin.PUT("/settings/limits", usageHandler.SetDefaultLimits)
	}
}
