package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"actiongate/internal/config"
	"actiongate/internal/database"
	"actiongate/internal/handlers"
	"actiongate/internal/lock"
	"actiongate/internal/logger"
	"actiongate/internal/middleware"
	"actiongate/internal/scheduler"
	"actiongate/internal/services"
	"actiongate/internal/validator"

	_ "actiongate/internal/docs" // Import swagger docs
)

// @title           Actiongate API
// @version         1.0
// @description     Actiongate is a governed action service: proposed actions pass guardrail, threshold and segregation-of-duties checks before approval and execution, with a full audit trail.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and a service identity token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Redis backs the per-tenant detect batch lock
	rdb := redis.NewClient(&redis.Options{
		Addr:     appConfig.RedisAddr,
		Password: appConfig.RedisPassword,
		DB:       appConfig.RedisDB,
	})
	defer rdb.Close()
	locker := lock.NewLocker(rdb, appConfig.DetectLockTTL)

	// Register custom validation tags
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	auditService := services.NewAuditService(db)
	guardrailService := services.NewGuardrailService(db, auditService)
	thresholdService := services.NewThresholdService(db, auditService)
	sodService := services.NewSoDService(db, auditService, services.StaticRoleResolver{})
	actionService := services.NewActionService(
		db,
		guardrailService,
		thresholdService,
		sodService,
		auditService,
		services.NoopExecutor{},
		services.PayloadEvidenceChecker{},
	)
	detectInterval := time.Duration(appConfig.DetectIntervalMinutes) * time.Minute
	detectWindow := time.Duration(appConfig.DetectWindowMinutes) * time.Minute
	detectService := services.NewDetectService(db, locker, services.NoopDetector{}, auditService, appConfig.DetectEnabled, detectInterval)

	// Every configured tenant starts with the default SoD rule set
	for _, tenantID := range appConfig.DetectTenantIDs {
		if err := sodService.SeedDefaults(tenantID, 1); err != nil {
			return fmt.Errorf("failed to seed SoD defaults for tenant %d: %w", tenantID, err)
		}
	}

	// Initialize handlers
	actionHandler := handlers.NewActionHandler(actionService)
	guardrailHandler := handlers.NewGuardrailHandler(guardrailService)
	thresholdHandler := handlers.NewThresholdHandler(thresholdService)
	sodHandler := handlers.NewSoDHandler(sodService)
	auditHandler := handlers.NewAuditHandler(auditService)
	detectHandler := handlers.NewDetectHandler(detectService, detectWindow)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group; every route requires a resolved tenant identity
	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireIdentity())

	// Action routes
	actions := v1.Group("/actions")
	actions.POST("/simulate", actionHandler.Simulate)
	actions.POST("/propose", actionHandler.Propose)
	actions.GET("", actionHandler.ListActions)
	actions.GET("/:id", actionHandler.GetAction)
	actions.POST("/:id/approve", actionHandler.Approve)
	actions.POST("/:id/execute", actionHandler.Execute)
	actions.POST("/:id/cancel", actionHandler.Cancel)

	// Guardrail routes
	guardrails := v1.Group("/guardrails")
	guardrails.POST("", guardrailHandler.CreateGuardrail)
	guardrails.POST("/evaluate", guardrailHandler.EvaluateGuardrails)
	guardrails.GET("", guardrailHandler.ListGuardrails)
	guardrails.PUT("/:id", guardrailHandler.UpdateGuardrail)
	guardrails.DELETE("/:id", guardrailHandler.DeleteGuardrail)

	// Threshold routes
	thresholds := v1.Group("/thresholds")
	thresholds.POST("", thresholdHandler.UpsertThreshold)
	thresholds.GET("", thresholdHandler.ListThresholds)
	thresholds.DELETE("/:id", thresholdHandler.DeleteThreshold)

	// SoD rule routes
	sodRules := v1.Group("/sod-rules")
	sodRules.GET("", sodHandler.ListRules)
	sodRules.PATCH("/:rule_key", sodHandler.PatchRule)

	// Audit routes
	auditEvents := v1.Group("/audit-events")
	auditEvents.GET("", auditHandler.ListEvents)
	auditEvents.GET("/:id", auditHandler.GetEvent)

	// Detect routes
	detect := v1.Group("/detect")
	detect.POST("/run", detectHandler.TriggerRun)
	detect.GET("/runs", detectHandler.ListRuns)
	detect.GET("/runs/:id", detectHandler.GetRun)
	detect.GET("/scheduler/status", detectHandler.GetSchedulerStatus)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sched *scheduler.Scheduler
	if appConfig.DetectEnabled {
		sched = scheduler.New(detectService, appConfig.DetectTenantIDs, detectInterval, detectWindow)
		sched.Start(ctx)
		log.Infof("Detect scheduler enabled: every %s over a %s window for %d tenant(s)",
			detectInterval, detectWindow, len(appConfig.DetectTenantIDs))
	}

	srv := &http.Server{
		Addr:    ":" + appConfig.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Actiongate server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if sched != nil {
		sched.Wait()
	}
	return nil
}
