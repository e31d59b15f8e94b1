package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rbarroso/conjuntura-go/internal/database"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Services  Services  `json:"services"`
}

type Services struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

// HealthHandler reports collaborator health.
type HealthHandler struct {
	db    *database.PostgresDB
	redis *database.RedisClient
}

func NewHealthHandler(db *database.PostgresDB, redis *database.RedisClient) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

func (h *HealthHandler) Check(c *gin.Context) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Services: Services{
			Database: "ok",
			Redis:    "ok",
		},
	}

	if err := h.db.HealthCheck(c.Request.Context()); err != nil {
		response.Services.Database = "error"
		response.Status = "degraded"
	}

	if err := h.redis.HealthCheck(c.Request.Context()); err != nil {
		response.Services.Redis = "error"
		response.Status = "degraded"
	}

	statusCode := http.StatusOK
	if response.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}
