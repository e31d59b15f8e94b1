package api

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/rbarroso/conjuntura-go/internal/api/handlers"
	"github.com/rbarroso/conjuntura-go/internal/database"
	"github.com/rbarroso/conjuntura-go/internal/middleware"
	"github.com/rbarroso/conjuntura-go/internal/services"
	"github.com/rbarroso/conjuntura-go/internal/telemetry"
)

// Dependencies carries everything the route tree needs.
type Dependencies struct {
	DB        *database.PostgresDB
	Redis     *database.RedisClient
	Ingestion *services.IngestionService
	Insights  *services.InsightService
	Auth      *middleware.AuthMiddleware
}

// SetupRoutes wires all HTTP endpoints. Ingestion and health are open;
// everything reading or writing per-user data sits behind the bearer token.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	router.Use(otelgin.Middleware(telemetry.ServiceName))

	observationRepo := database.NewObservationRepository(deps.DB.Pool)
	insightRepo := database.NewInsightRepository(deps.DB.Pool)

	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Redis)
	ingestHandler := handlers.NewIngestHandler(deps.Ingestion)
	indicatorHandler := handlers.NewIndicatorHandler(observationRepo, deps.Redis)
	insightHandler := handlers.NewInsightHandler(deps.Insights, insightRepo, observationRepo)

	router.GET("/health", healthHandler.Check)

	v1 := router.Group("/api/v1")
	v1.POST("/ingest", ingestHandler.TriggerIngestion)

	indicators := v1.Group("/indicators")
	indicators.Use(deps.Auth.RequireAuth())
	{
		indicators.GET("", indicatorHandler.GetObservations)
		indicators.POST("", indicatorHandler.CreateObservation)
		indicators.PUT("/:id", indicatorHandler.UpdateObservation)
		indicators.DELETE("/:id", indicatorHandler.DeleteObservation)
		indicators.GET("/snapshots", indicatorHandler.GetSnapshots)
		indicators.GET("/correlation", indicatorHandler.GetCorrelation)
	}

	insights := v1.Group("/insights")
	insights.Use(deps.Auth.RequireAuth())
	{
		insights.POST("/generate", insightHandler.Generate)
		insights.GET("", insightHandler.List)
	}
}
