package routes

import (
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/leadpulse-id/outreach-service/environments"
	"github.com/leadpulse-id/outreach-service/handlers"
	"github.com/leadpulse-id/outreach-service/internal/middlewares"
)

// RegisterRoutes registers all API routes with middleware
func RegisterRoutes(
	e *echo.Echo,
	healthHandler *handlers.HealthHandler,
	nurtureHandler *handlers.NurtureHandler,
	blastHandler *handlers.BlastHandler,
	workerHandler *handlers.WorkerHandler,
	cfg *environments.Config,
) {
	e.GET("/health", healthHandler.Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 base group
	v1 := e.Group("/api/v1")

	// Nurturing routes with their own API key
	nurture := v1.Group("/nurture", middlewares.APIKeyAuth(cfg.Auth.NurtureAPIKey))

	nurture.POST("/tick", nurtureHandler.RunTick)
	nurture.POST("/enroll", nurtureHandler.EnrollLead)
	nurture.GET("/leads/:id/diagnose", nurtureHandler.DiagnoseLead)
	nurture.POST("/leads/:id/pause", nurtureHandler.PauseLead)
	nurture.POST("/leads/:id/resume", nurtureHandler.ResumeLead)
	nurture.POST("/quick-messages/preview", nurtureHandler.PreviewQuickMessage)

	// Blast routes share the blast API key with the worker controls
	blasts := v1.Group("/blasts", middlewares.APIKeyAuth(cfg.Auth.BlastAPIKey))

	blasts.POST("", blastHandler.CreateBlast)
	blasts.GET("", blastHandler.ListBlasts)
	blasts.GET("/:id", blastHandler.GetBlast)

	workerGroup := v1.Group("/blast-worker", middlewares.APIKeyAuth(cfg.Auth.BlastAPIKey))

	workerGroup.POST("/start", workerHandler.StartWorker)
	workerGroup.POST("/stop", workerHandler.StopWorker)
	workerGroup.GET("/status", workerHandler.GetWorkerStatus)
}
