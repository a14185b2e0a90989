package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumina-edu/exam-service/internal/cache"
	"github.com/lumina-edu/exam-service/internal/config"
	"github.com/lumina-edu/exam-service/internal/handlers"
	"github.com/lumina-edu/exam-service/internal/repositories/postgres"
	"github.com/lumina-edu/exam-service/internal/roster"
	"github.com/lumina-edu/exam-service/internal/services"
	"github.com/lumina-edu/exam-service/internal/utils"
	"github.com/lumina-edu/exam-service/internal/validator"
	"github.com/lumina-edu/exam-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	var logger *slog.Logger
	if cfg.Environment == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	slog.SetDefault(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := pkg.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Cache is optional; without Redis the service runs uncached.
	cacheService := cache.NewNoopCache()
	if cfg.RedisURL != "" {
		redisClient, err := pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		cacheService = cache.NewRedisCache(redisClient, logger)
	}

	// Identity directory is optional; without Casdoor the gateway's role
	// header is trusted.
	var directory roster.Directory
	if cfg.CasdoorEndpoint != "" {
		directory = roster.NewCasdoorDirectory(roster.CasdoorConfig{
			Endpoint:     cfg.CasdoorEndpoint,
			ClientID:     cfg.CasdoorClientID,
			ClientSecret: cfg.CasdoorClientSecret,
			Certificate:  cfg.CasdoorCertificate,
			Organization: cfg.CasdoorOrganization,
			Application:  cfg.CasdoorApplication,
		})
	}

	eventPublisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer eventPublisher.Close()

	repo := postgres.NewRepository(db)
	v := validator.New()
	notifier := services.NewNotificationEventService(repo, eventPublisher, logger)

	examService := services.NewExamService(repo, cacheService, logger, v, notifier)
	attemptService := services.NewAttemptService(repo, logger, v, notifier, examService)
	violationService := services.NewViolationService(repo, logger, v, notifier, attemptService)
	gradingService := services.NewGradingService(repo, logger, v, notifier)
	reAttemptService := services.NewReAttemptService(repo, logger, v, notifier)
	exportService := services.NewExportService(repo, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	handlerLogger := utils.NewSlogLogger(logger)
	router.Use(utils.LoggerMiddleware(handlerLogger))

	handlerManager := handlers.NewHandlerManager(
		examService,
		attemptService,
		violationService,
		gradingService,
		reAttemptService,
		exportService,
		directory,
		handlerLogger,
	)
	handlerManager.SetupRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Exam service listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
	logger.Info("Server stopped")
}
