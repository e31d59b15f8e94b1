package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rbarroso/conjuntura-go/internal/middleware"
	"github.com/rbarroso/conjuntura-go/internal/models"
	"github.com/rbarroso/conjuntura-go/internal/services"
	"github.com/rbarroso/conjuntura-go/internal/utils"
)

// InsightGenerator runs the generation pipeline for one user.
type InsightGenerator interface {
	Generate(ctx context.Context, userID string, summaries []models.IndicatorSummary, visible []string, window string) ([]models.InsightRecord, error)
}

// InsightReader lists persisted insights.
type InsightReader interface {
	ListForUser(ctx context.Context, userID string) ([]models.InsightRecord, error)
}

// InsightHandler serves insight generation and retrieval.
type InsightHandler struct {
	generator    InsightGenerator
	reader       InsightReader
	observations ObservationStore
	now          func() time.Time
}

func NewInsightHandler(generator InsightGenerator, reader InsightReader, observations ObservationStore) *InsightHandler {
	return &InsightHandler{
		generator:    generator,
		reader:       reader,
		observations: observations,
		now:          time.Now,
	}
}

// GenerateRequest selects which indicators feed the generator. An empty
// indicators list means every indicator the caller has data for.
type GenerateRequest struct {
	Indicators        []string `json:"indicators"`
	VisibleIndicators []string `json:"visibleIndicators"`
	Window            string   `json:"window"`
}

// Generate builds per-indicator summaries from the caller's observations and
// runs the generation pipeline. Generation failures map to the HTTP status of
// their classified kind; the body always carries an insights array.
func (h *InsightHandler) Generate(c *gin.Context) {
	userID := middleware.UserID(c)

	var req GenerateRequest
	if c.Request.Body != nil {
		_ = c.ShouldBindJSON(&req)
	}
	window := normalizePeriodParam(req.Window)

	summaries, err := h.buildSummaries(c.Request.Context(), userID, req.Indicators, window)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load observations", "insights": []any{}})
		return
	}

	records, err := h.generator.Generate(c.Request.Context(), userID, summaries, req.VisibleIndicators, window)
	if err != nil {
		status := utils.GenerationStatusCode(utils.GenerationKind(err))
		c.JSON(status, gin.H{"error": err.Error(), "insights": []any{}})
		return
	}
	if records == nil {
		c.JSON(http.StatusOK, gin.H{"insights": []any{}, "message": "no visible indicators with data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"insights": records})
}

// List returns the caller's persisted insights, newest first.
func (h *InsightHandler) List(c *gin.Context) {
	userID := middleware.UserID(c)

	records, err := h.reader.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load insights", "insights": []any{}})
		return
	}
	if records == nil {
		records = []models.InsightRecord{}
	}

	c.JSON(http.StatusOK, gin.H{"insights": records})
}

// buildSummaries groups the caller's observations per indicator and derives
// the snapshot plus the historical series the digest needs.
func (h *InsightHandler) buildSummaries(ctx context.Context, userID string, requested []string, window string) ([]models.IndicatorSummary, error) {
	observations, err := h.observations.ListForUser(ctx, userID, "", periodStart(window, h.now()))
	if err != nil {
		return nil, err
	}

	wanted := make(map[models.IndicatorKind]bool, len(requested))
	for _, raw := range requested {
		if kind := models.CanonicalIndicator(raw); kind.IsValid() {
			wanted[kind] = true
		}
	}

	grouped := make(map[models.IndicatorKind][]models.SeriesPoint)
	for _, obs := range observations {
		if len(wanted) > 0 && !wanted[obs.Indicator] {
			continue
		}
		value, _ := obs.Value.Float64()
		grouped[obs.Indicator] = append(grouped[obs.Indicator], models.SeriesPoint{
			Date:  obs.ReferenceDate.Format("2006-01-02"),
			Value: value,
		})
	}

	summaries := make([]models.IndicatorSummary, 0, len(grouped))
	for _, kind := range models.AllIndicators {
		points, ok := grouped[kind]
		if !ok {
			continue
		}
		values := make([]float64, len(points))
		for i, p := range points {
			values[i] = p.Value
		}
		summaries = append(summaries, models.IndicatorSummary{
			Indicator:  kind,
			Snapshot:   services.Snapshot(kind, values),
			Historical: points,
		})
	}
	return summaries, nil
}
