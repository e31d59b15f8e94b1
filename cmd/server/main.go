package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/rbarroso/conjuntura-go/internal/api"
	"github.com/rbarroso/conjuntura-go/internal/config"
	"github.com/rbarroso/conjuntura-go/internal/database"
	"github.com/rbarroso/conjuntura-go/internal/logging"
	"github.com/rbarroso/conjuntura-go/internal/middleware"
	"github.com/rbarroso/conjuntura-go/internal/services"
	"github.com/rbarroso/conjuntura-go/internal/sources"
	"github.com/rbarroso/conjuntura-go/internal/telemetry"
)

func main() {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logging.ConfigureLogrus(cfg.LogLevel)
	stdLogger := logging.NewStandardLogger(cfg.LogLevel, cfg.Environment)
	log := stdLogger.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracing, err := telemetry.Init(ctx, cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := tracing.Shutdown(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	observationRepo := database.NewObservationRepository(db.Pool)
	insightRepo := database.NewInsightRepository(db.Pool)

	adapters := sources.NewRegistry(cfg.Sources, stdLogger)
	ingestionService := services.NewIngestionService(observationRepo, adapters, cfg.SourceTimeout(), stdLogger)

	generationClient := services.NewGenerationClient(cfg.AI)
	notifier := services.NewTelegramNotifier(cfg.Telegram, stdLogger)
	insightService := services.NewInsightService(generationClient, insightRepo, notifier, stdLogger)

	jwtExpiry, _ := time.ParseDuration(cfg.Security.JWTExpiry)
	authMiddleware := middleware.NewAuthMiddleware(cfg.Security.JWTSecret, jwtExpiry)

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	api.SetupRoutes(router, api.Dependencies{
		DB:        db,
		Redis:     redisClient,
		Ingestion: ingestionService,
		Insights:  insightService,
		Auth:      authMiddleware,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		stdLogger.LogStartup(telemetry.ServiceName, telemetry.ServiceVersion, cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	stdLogger.LogShutdown(telemetry.ServiceName, "signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
