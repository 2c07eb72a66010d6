package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/leadpulse-id/outreach-service/environments"
	"github.com/leadpulse-id/outreach-service/handlers"
	"github.com/leadpulse-id/outreach-service/internal/repository"
	"github.com/leadpulse-id/outreach-service/internal/service"
	"github.com/leadpulse-id/outreach-service/internal/worker"
	"github.com/leadpulse-id/outreach-service/pkg/database"
	"github.com/leadpulse-id/outreach-service/pkg/logger"
	"github.com/leadpulse-id/outreach-service/pkg/notifier"
	"github.com/leadpulse-id/outreach-service/pkg/redis"
	"github.com/leadpulse-id/outreach-service/pkg/validator"
	"github.com/leadpulse-id/outreach-service/pkg/wagateway"
	"github.com/leadpulse-id/outreach-service/routes"

	_ "github.com/leadpulse-id/outreach-service/docs" // swagger docs
)

// @title LeadPulse Outreach Service API
// @version 1.0
// @description Automated WhatsApp nurturing and broadcast engine for LeadPulse CRM

// @contact.name API Support
// @contact.email platform@leadpulse.id

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @schemes http https
func main() {
	logger.Init()

	// Load config
	cfg := environments.Load()

	// Hard-fail if required secrets are missing
	if cfg.Auth.NurtureAPIKey == "" {
		logger.Fatalf("NURTURE_API_KEY is required but not set")
	}
	if cfg.Auth.BlastAPIKey == "" {
		logger.Fatalf("BLAST_API_KEY is required but not set")
	}

	logger.Infof("Starting LeadPulse Outreach Service...")

	// Init DB
	db, err := database.NewMySQLDB(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed data
	if os.Getenv("SEED_DATA") == "true" {
		if err := database.SeedTestData(db); err != nil {
			logger.Warnf("Failed to seed test data: %v", err)
		}
	}

	// Init redis; the service degrades to DB-only settings reads without it
	var redisClient *redis.Client
	redisClient, err = redis.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Warnf("Redis not available, caching disabled: %v", err)
		redisClient = nil
	}

	// Realtime notifier is optional the same way
	var eventBus *notifier.Notifier
	if cfg.Broker.URL != "" {
		eventBus, err = notifier.New(cfg.Broker)
		if err != nil {
			logger.Warnf("AMQP broker not available, realtime events disabled: %v", err)
			eventBus = nil
		}
	}

	// Dispatch gateway client
	gatewayClient := wagateway.NewClient(cfg.Gateway)
	logger.Infof("WA gateway configured: %s", gatewayClient.GetURL())

	// Repositories
	leadRepo := repository.NewLeadRepository(db)
	planRepo := repository.NewPlanRepository(db)
	engagementRepo := repository.NewEngagementRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	followUpRepo := repository.NewFollowUpRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	blastRepo := repository.NewBlastRepository(db)

	// Services
	nurtureService := service.NewNurtureService(
		engagementRepo,
		planRepo,
		leadRepo,
		messageRepo,
		followUpRepo,
		settingsRepo,
		redisClient,
		gatewayClient,
		eventBus,
	)

	diagnoseService := service.NewDiagnoseService(
		engagementRepo,
		planRepo,
		leadRepo,
		messageRepo,
		followUpRepo,
		settingsRepo,
		gatewayClient,
	)

	blastService := service.NewBlastService(
		blastRepo,
		leadRepo,
		messageRepo,
		settingsRepo,
		gatewayClient,
		eventBus,
	)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Blast worker
	blastWorker := worker.NewBlastWorker(blastService, cfg.Blast.PollInterval)

	// Handlers
	healthHandler := handlers.NewHealthHandler(db, redisClient, eventBus)
	nurtureHandler := handlers.NewNurtureHandler(nurtureService, diagnoseService)
	blastHandler := handlers.NewBlastHandler(blastService)
	workerHandler := handlers.NewWorkerHandler(blastWorker, ctx)

	// Auto-start blast worker
	if os.Getenv("AUTO_START_BLAST_WORKER") != "false" {
		logger.Infof("Auto-starting blast worker...")
		if err := blastWorker.Start(ctx); err != nil {
			logger.Warnf("Failed to auto-start blast worker: %v", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"x-lp-auth-key",
		},
	}))

	// Setup routes
	routes.RegisterRoutes(e, healthHandler, nurtureHandler, blastHandler, workerHandler, cfg)

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Infof("Server starting on http://localhost%s", addr)
		logger.Infof("Swagger docs available at http://localhost%s/swagger/index.html", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Shutting down gracefully...")

	// Cancel context to signal all goroutines to stop
	cancel()

	// Stop the blast worker first (with timeout)
	if blastWorker.IsRunning() {
		logger.Infof("Stopping blast worker...")
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()

		done := make(chan error, 1)
		go func() {
			done <- blastWorker.Stop()
		}()

		select {
		case err := <-done:
			if err != nil {
				logger.Errorf("Error stopping blast worker: %v", err)
			} else {
				logger.Infof("Blast worker stopped successfully")
			}
		case <-stopCtx.Done():
			logger.Warnf("Blast worker stop timeout, forcing shutdown")
		}
	}

	// Shutdown HTTP server (with timeout)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Infof("Shutting down HTTP server...")
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	} else {
		logger.Infof("HTTP server stopped successfully")
	}

	// Close database connection
	logger.Infof("Closing database connection...")
	if err := db.Close(); err != nil {
		logger.Errorf("Error closing database: %v", err)
	}

	// Close Redis connection
	if redisClient != nil {
		logger.Infof("Closing Redis connection...")
		if err := redisClient.Close(); err != nil {
			logger.Errorf("Error closing Redis: %v", err)
		}
	}

	// Close broker channel
	if eventBus != nil {
		eventBus.Close()
	}

	logger.Infof("Graceful shutdown completed")
}
