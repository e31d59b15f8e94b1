package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbarroso/conjuntura-go/internal/database"
	"github.com/rbarroso/conjuntura-go/internal/middleware"
	"github.com/rbarroso/conjuntura-go/internal/models"
	"github.com/rbarroso/conjuntura-go/internal/utils"
)

type fakeStore struct {
	observations []models.Observation
	listErr      error
	insertErr    error
	updateErr    error
	deleteErr    error

	lastIndicator models.IndicatorKind
	lastStart     time.Time
	listCalls     int
	inserted      []models.Observation
}

func (s *fakeStore) ListForUser(ctx context.Context, userID string, indicator models.IndicatorKind, startDate time.Time) ([]models.Observation, error) {
	s.listCalls++
	s.lastIndicator = indicator
	s.lastStart = startDate
	if s.listErr != nil {
		return nil, s.listErr
	}
	if indicator == "" {
		return s.observations, nil
	}
	var filtered []models.Observation
	for _, obs := range s.observations {
		if obs.Indicator == indicator {
			filtered = append(filtered, obs)
		}
	}
	return filtered, nil
}

func (s *fakeStore) Insert(ctx context.Context, obs models.Observation) (*models.Observation, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	obs.ID = "obs-new"
	obs.CreatedAt = time.Now()
	s.inserted = append(s.inserted, obs)
	return &obs, nil
}

func (s *fakeStore) Update(ctx context.Context, id, userID string, value decimal.Decimal, referenceDate time.Time) error {
	return s.updateErr
}

func (s *fakeStore) Delete(ctx context.Context, id, userID string) error {
	return s.deleteErr
}

func testCache(t *testing.T) *database.RedisClient {
	t.Helper()
	mr := miniredis.RunT(t)
	return &database.RedisClient{Client: goredis.NewClient(&goredis.Options{Addr: mr.Addr()})}
}

func authAs(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, userID)
		c.Next()
	}
}

func setupIndicatorRouter(handler *IndicatorHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/indicators", authAs("user-1"))
	group.GET("", handler.GetObservations)
	group.POST("", handler.CreateObservation)
	group.PUT("/:id", handler.UpdateObservation)
	group.DELETE("/:id", handler.DeleteObservation)
	group.GET("/snapshots", handler.GetSnapshots)
	group.GET("/correlation", handler.GetCorrelation)
	return router
}

func systemObservation(indicator models.IndicatorKind, date string, value float64) models.Observation {
	d, _ := time.Parse("2006-01-02", date)
	return models.Observation{
		ID:            "obs-" + date,
		Owner:         models.SystemOwner(),
		Indicator:     indicator,
		ReferenceDate: d,
		Value:         decimal.NewFromFloat(value),
	}
}

func TestGetObservations(t *testing.T) {
	store := &fakeStore{observations: []models.Observation{
		systemObservation(models.IndicatorSelic, "2024-01-01", 11.25),
		systemObservation(models.IndicatorSelic, "2024-02-01", 10.75),
	}}
	handler := NewIndicatorHandler(store, nil)
	router := setupIndicatorRouter(handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/indicators?indicator=selic&period=6M", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.IndicatorSelic, store.lastIndicator)

	var body struct {
		Observations []models.Observation `json:"observations"`
		Period       string               `json:"period"`
		Count        int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "6M", body.Period)
	assert.Equal(t, 2, body.Count)
	assert.Len(t, body.Observations, 2)
}

func TestGetObservationsRejectsUnknownIndicator(t *testing.T) {
	handler := NewIndicatorHandler(&fakeStore{}, nil)
	router := setupIndicatorRouter(handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/indicators?indicator=bitcoin", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetObservationsDefaultsPeriod(t *testing.T) {
	store := &fakeStore{}
	handler := NewIndicatorHandler(store, nil)
	handler.now = func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) }
	router := setupIndicatorRouter(handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/indicators?period=bogus", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	// Unknown period selectors fall back to the 24-month default.
	assert.Equal(t, time.Date(2022, 6, 15, 0, 0, 0, 0, time.UTC), store.lastStart)
}

func TestGetSnapshots(t *testing.T) {
	store := &fakeStore{observations: []models.Observation{
		systemObservation(models.IndicatorSelic, "2024-01-01", 11.25),
		systemObservation(models.IndicatorSelic, "2024-02-01", 11.25),
		systemObservation(models.IndicatorSelic, "2024-03-01", 10.75),
		systemObservation(models.IndicatorIPCA, "2024-03-01", 4.5),
	}}
	handler := NewIndicatorHandler(store, testCache(t))
	router := setupIndicatorRouter(handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/indicators/snapshots", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body snapshotsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Snapshots, 2)
	assert.False(t, body.Cached)

	// Snapshots come back in canonical indicator order.
	assert.Equal(t, models.IndicatorIPCA, body.Snapshots[0].Indicator)
	assert.Equal(t, models.IndicatorSelic, body.Snapshots[1].Indicator)

	selic := body.Snapshots[1]
	assert.Equal(t, 10.75, selic.LatestValue)
	assert.Equal(t, models.TrendDown, selic.Trend)
	assert.Equal(t, 3, selic.Points)
}

func TestGetSnapshotsServesFromCache(t *testing.T) {
	store := &fakeStore{observations: []models.Observation{
		systemObservation(models.IndicatorSelic, "2024-01-01", 11.25),
	}}
	handler := NewIndicatorHandler(store, testCache(t))
	router := setupIndicatorRouter(handler)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/indicators/snapshots", nil))
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, 1, store.listCalls)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/indicators/snapshots", nil))
	require.Equal(t, http.StatusOK, second.Code)

	// The second request is answered from the cache without touching the
	// store.
	assert.Equal(t, 1, store.listCalls)

	var body snapshotsResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &body))
	assert.True(t, body.Cached)
	require.Len(t, body.Snapshots, 1)
	assert.Equal(t, models.IndicatorSelic, body.Snapshots[0].Indicator)
}

func TestGetSnapshotsWorksWithoutCache(t *testing.T) {
	store := &fakeStore{observations: []models.Observation{
		systemObservation(models.IndicatorDolar, "2024-05-10", 5.15),
	}}
	handler := NewIndicatorHandler(store, nil)
	router := setupIndicatorRouter(handler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/indicators/snapshots", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetCorrelation(t *testing.T) {
	store := &fakeStore{observations: []models.Observation{
		systemObservation(models.IndicatorSelic, "2024-01-01", 10),
		systemObservation(models.IndicatorSelic, "2024-02-01", 11),
		systemObservation(models.IndicatorSelic, "2024-03-01", 12),
		systemObservation(models.IndicatorIPCA, "2024-01-01", 6),
		systemObservation(models.IndicatorIPCA, "2024-02-01", 5),
		systemObservation(models.IndicatorIPCA, "2024-03-01", 4),
	}}
	handler := NewIndicatorHandler(store, nil)
	router := setupIndicatorRouter(handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/indicators/correlation?period=12M", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Correlations map[string]map[string]float64 `json:"correlations"`
		Period       string                        `json:"period"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "12M", body.Period)
	assert.InDelta(t, 1.0, body.Correlations["selic"]["selic"], 1e-9)
	assert.InDelta(t, -1.0, body.Correlations["selic"]["ipca"], 1e-9)
}

func TestCreateObservation(t *testing.T) {
	store := &fakeStore{}
	handler := NewIndicatorHandler(store, nil)
	router := setupIndicatorRouter(handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/indicators",
		strings.NewReader(`{"indicator":"ipca","reference_date":"2024-03-01","value":4.5}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, models.OwnerUser, store.inserted[0].Owner.Kind)
	assert.Equal(t, "user-1", store.inserted[0].Owner.UserID)
	assert.Equal(t, models.IndicatorIPCA, store.inserted[0].Indicator)
}

func TestCreateObservationValidation(t *testing.T) {
	handler := NewIndicatorHandler(&fakeStore{}, nil)
	router := setupIndicatorRouter(handler)

	tests := []struct {
		name string
		body string
	}{
		{"unknown indicator", `{"indicator":"bitcoin","reference_date":"2024-03-01","value":1}`},
		{"bad date", `{"indicator":"ipca","reference_date":"01/03/2024","value":1}`},
		{"missing fields", `{"value":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/indicators", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateObservationConflict(t *testing.T) {
	store := &fakeStore{insertErr: utils.NewValidationError("an observation already exists for this indicator and date")}
	handler := NewIndicatorHandler(store, nil)
	router := setupIndicatorRouter(handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/indicators",
		strings.NewReader(`{"indicator":"ipca","reference_date":"2024-03-01","value":4.5}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateObservationNotFound(t *testing.T) {
	store := &fakeStore{updateErr: utils.NewValidationError("observation not found")}
	handler := NewIndicatorHandler(store, nil)
	router := setupIndicatorRouter(handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/indicators/obs-1",
		strings.NewReader(`{"reference_date":"2024-03-01","value":5}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteObservation(t *testing.T) {
	handler := NewIndicatorHandler(&fakeStore{}, nil)
	router := setupIndicatorRouter(handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/indicators/obs-1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
