package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/rbarroso/conjuntura-go/internal/database"
	"github.com/rbarroso/conjuntura-go/internal/middleware"
	"github.com/rbarroso/conjuntura-go/internal/models"
	"github.com/rbarroso/conjuntura-go/internal/services"
	"github.com/rbarroso/conjuntura-go/internal/utils"
)

const (
	defaultPeriod    = "24M"
	snapshotCacheTTL = 5 * time.Minute
)

// ObservationStore is the persistence surface the indicator endpoints need.
type ObservationStore interface {
	ListForUser(ctx context.Context, userID string, indicator models.IndicatorKind, startDate time.Time) ([]models.Observation, error)
	Insert(ctx context.Context, obs models.Observation) (*models.Observation, error)
	Update(ctx context.Context, id, userID string, value decimal.Decimal, referenceDate time.Time) error
	Delete(ctx context.Context, id, userID string) error
}

// IndicatorHandler serves observation series, derived snapshots and manual
// entries.
type IndicatorHandler struct {
	store ObservationStore
	cache *database.RedisClient
	now   func() time.Time
}

func NewIndicatorHandler(store ObservationStore, cache *database.RedisClient) *IndicatorHandler {
	return &IndicatorHandler{store: store, cache: cache, now: time.Now}
}

// periodStart resolves the ?period= selector (6M, 12M or 24M, default 24M)
// to the inclusive window start.
func periodStart(period string, now time.Time) time.Time {
	months := 24
	switch strings.ToUpper(period) {
	case "6M":
		months = 6
	case "12M":
		months = 12
	}
	return now.AddDate(0, -months, 0)
}

func normalizePeriodParam(period string) string {
	switch strings.ToUpper(period) {
	case "6M":
		return "6M"
	case "12M":
		return "12M"
	default:
		return defaultPeriod
	}
}

// GetObservations returns the caller's visible observations within the
// requested period, optionally filtered to a single indicator.
func (h *IndicatorHandler) GetObservations(c *gin.Context) {
	userID := middleware.UserID(c)
	period := normalizePeriodParam(c.Query("period"))

	var indicator models.IndicatorKind
	if raw := c.Query("indicator"); raw != "" {
		indicator = models.CanonicalIndicator(raw)
		if !indicator.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown indicator: " + raw})
			return
		}
	}

	observations, err := h.store.ListForUser(c.Request.Context(), userID, indicator, periodStart(period, h.now()))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load observations"})
		return
	}
	if observations == nil {
		observations = []models.Observation{}
	}

	c.JSON(http.StatusOK, gin.H{
		"observations": observations,
		"period":       period,
		"count":        len(observations),
	})
}

type snapshotsResponse struct {
	Snapshots []models.DerivedSnapshot `json:"snapshots"`
	Period    string                   `json:"period"`
	Cached    bool                     `json:"cached"`
}

// GetSnapshots computes the derived metric set per indicator over the
// requested period. Results are cached per (user, period) for a short TTL;
// nothing derived is ever persisted.
func (h *IndicatorHandler) GetSnapshots(c *gin.Context) {
	userID := middleware.UserID(c)
	period := normalizePeriodParam(c.Query("period"))
	cacheKey := "snapshots:" + userID + ":" + period

	if h.cache != nil {
		if cached, err := h.cache.Get(c.Request.Context(), cacheKey); err == nil {
			var response snapshotsResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				response.Cached = true
				c.JSON(http.StatusOK, response)
				return
			}
		}
	}

	series, err := h.loadSeries(c.Request.Context(), userID, period)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load observations"})
		return
	}

	snapshots := make([]models.DerivedSnapshot, 0, len(series))
	for _, kind := range models.AllIndicators {
		values, ok := series[kind]
		if !ok {
			continue
		}
		snapshots = append(snapshots, services.Snapshot(kind, values))
	}

	response := snapshotsResponse{Snapshots: snapshots, Period: period}
	if h.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			_ = h.cache.Set(c.Request.Context(), cacheKey, payload, snapshotCacheTTL)
		}
	}

	c.JSON(http.StatusOK, response)
}

// GetCorrelation returns the pairwise Pearson matrix across every indicator
// the caller has data for within the period.
func (h *IndicatorHandler) GetCorrelation(c *gin.Context) {
	userID := middleware.UserID(c)
	period := normalizePeriodParam(c.Query("period"))

	series, err := h.loadSeries(c.Request.Context(), userID, period)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load observations"})
		return
	}

	matrix := services.CorrelationMatrix(series)
	c.JSON(http.StatusOK, gin.H{
		"correlations": matrix,
		"period":       period,
	})
}

// CreateObservation stores a manual entry owned by the caller.
func (h *IndicatorHandler) CreateObservation(c *gin.Context) {
	userID := middleware.UserID(c)

	var input models.ObservationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	indicator := models.CanonicalIndicator(input.Indicator)
	if !indicator.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown indicator: " + input.Indicator})
		return
	}

	referenceDate, err := time.Parse("2006-01-02", input.ReferenceDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference_date must be YYYY-MM-DD"})
		return
	}

	created, err := h.store.Insert(c.Request.Context(), models.Observation{
		Owner:         models.UserOwner(userID),
		Indicator:     indicator,
		ReferenceDate: referenceDate,
		Value:         decimal.NewFromFloat(input.Value),
	})
	if err != nil {
		var validationErr *utils.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusConflict, gin.H{"error": validationErr.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save observation"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"observation": created})
}

type observationUpdate struct {
	ReferenceDate string  `json:"reference_date" binding:"required"`
	Value         float64 `json:"value"`
}

// UpdateObservation edits a manual entry. Rows ingested by the pipeline are
// not editable through this path.
func (h *IndicatorHandler) UpdateObservation(c *gin.Context) {
	userID := middleware.UserID(c)
	id := c.Param("id")

	var input observationUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	referenceDate, err := time.Parse("2006-01-02", input.ReferenceDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference_date must be YYYY-MM-DD"})
		return
	}

	err = h.store.Update(c.Request.Context(), id, userID, decimal.NewFromFloat(input.Value), referenceDate)
	if err != nil {
		var validationErr *utils.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusNotFound, gin.H{"error": validationErr.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update observation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// DeleteObservation removes a manual entry owned by the caller.
func (h *IndicatorHandler) DeleteObservation(c *gin.Context) {
	userID := middleware.UserID(c)
	id := c.Param("id")

	err := h.store.Delete(c.Request.Context(), id, userID)
	if err != nil {
		var validationErr *utils.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusNotFound, gin.H{"error": validationErr.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete observation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// loadSeries groups the caller's visible observations into per-indicator
// value slices, preserving the repository's date-ascending order.
func (h *IndicatorHandler) loadSeries(ctx context.Context, userID, period string) (map[models.IndicatorKind][]float64, error) {
	observations, err := h.store.ListForUser(ctx, userID, "", periodStart(period, h.now()))
	if err != nil {
		return nil, err
	}

	series := make(map[models.IndicatorKind][]float64)
	for _, obs := range observations {
		value, _ := obs.Value.Float64()
		series[obs.Indicator] = append(series[obs.Indicator], value)
	}
	return series, nil
}
