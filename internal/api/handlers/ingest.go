package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rbarroso/conjuntura-go/internal/services"
)

// Ingestor triggers one ingestion run.
type Ingestor interface {
	Ingest(ctx context.Context, requested []string) services.IngestResult
}

// IngestHandler exposes the ingestion trigger.
type IngestHandler struct {
	ingestor Ingestor
}

func NewIngestHandler(ingestor Ingestor) *IngestHandler {
	return &IngestHandler{ingestor: ingestor}
}

// IngestRequest selects which indicators to pull; "all" anywhere in the list
// (and an absent or unreadable body) selects every known indicator.
type IngestRequest struct {
	Indicators []string `json:"indicators"`
}

func (h *IngestHandler) TriggerIngestion(c *gin.Context) {
	req := IngestRequest{Indicators: []string{services.IndicatorSelectorAll}}
	if c.Request.Body != nil {
		// No body or invalid JSON means fetch all, matching the callable's
		// lenient contract.
		_ = c.ShouldBindJSON(&req)
	}
	if len(req.Indicators) == 0 {
		req.Indicators = []string{services.IndicatorSelectorAll}
	}

	result := h.ingestor.Ingest(c.Request.Context(), req.Indicators)
	c.JSON(http.StatusOK, result)
}
