package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rbarroso/conjuntura-go/internal/logging"
	"github.com/rbarroso/conjuntura-go/internal/models"
	"github.com/rbarroso/conjuntura-go/internal/sources"
)

// IndicatorSelectorAll is the sentinel that expands to every known indicator
// when present anywhere in an ingestion request.
const IndicatorSelectorAll = "all"

// ObservationStore is the persistence boundary the coordinator writes
// through. Conflicts on (owner, indicator, reference date) overwrite the
// stored value, which is what makes ingestion idempotent.
type ObservationStore interface {
	UpsertBatch(ctx context.Context, observations []models.Observation) (int, error)
}

// IngestResult is the outcome of one ingestion run: a per-indicator count of
// records written. An indicator whose source or upsert failed contributes 0.
type IngestResult struct {
	Success bool           `json:"success"`
	Results map[string]int `json:"results"`
}

// IngestionService orchestrates the source adapters and persists their
// normalized output under the system owner.
type IngestionService struct {
	store    ObservationStore
	adapters map[models.IndicatorKind]sources.Adapter
	timeout  time.Duration
	log      *slog.Logger
}

// NewIngestionService wires the coordinator. timeout bounds each adapter
// call so a stuck source delays only its own indicator.
func NewIngestionService(store ObservationStore, adapters map[models.IndicatorKind]sources.Adapter, timeout time.Duration, stdLogger *logging.StandardLogger) *IngestionService {
	return &IngestionService{
		store:    store,
		adapters: adapters,
		timeout:  timeout,
		log:      stdLogger.WithComponent("ingestion"),
	}
}

// Ingest fetches, normalizes and upserts the requested indicators ("all"
// anywhere in the list selects every known one). Adapters run concurrently;
// a failing source or store write zeroes that indicator's count and never
// aborts the batch. Running twice against unchanged upstream data leaves the
// store unchanged and returns the same counts.
func (s *IngestionService) Ingest(ctx context.Context, requested []string) IngestResult {
	kinds, unrecognized := s.resolveRequested(requested)

	results := make(map[string]int, len(kinds)+len(unrecognized))
	for _, name := range unrecognized {
		results[name] = 0
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, kind := range kinds {
		adapter, ok := s.adapters[kind]
		if !ok {
			results[kind.String()] = 0
			continue
		}

		wg.Add(1)
		go func(kind models.IndicatorKind, adapter sources.Adapter) {
			defer wg.Done()

			count := s.ingestOne(ctx, kind, adapter)

			mu.Lock()
			results[kind.String()] = count
			mu.Unlock()
		}(kind, adapter)
	}

	wg.Wait()

	s.log.Info("ingestion complete", "results", results)
	return IngestResult{Success: true, Results: results}
}

func (s *IngestionService) ingestOne(ctx context.Context, kind models.IndicatorKind, adapter sources.Adapter) int {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	points := dedupePoints(adapter.Fetch(fetchCtx))
	if len(points) == 0 {
		return 0
	}

	observations := make([]models.Observation, 0, len(points))
	for _, point := range points {
		referenceDate, err := time.Parse("2006-01-02", point.Date)
		if err != nil {
			continue
		}
		observations = append(observations, models.Observation{
			Owner:         models.SystemOwner(),
			Indicator:     kind,
			ReferenceDate: referenceDate,
			Value:         decimal.NewFromFloat(point.Value),
		})
	}

	written, err := s.store.UpsertBatch(ctx, observations)
	if err != nil {
		s.log.Error("upsert failed", "indicator", kind.String(), "error", err)
		return 0
	}
	return written
}

// resolveRequested expands the "all" sentinel and canonicalizes indicator
// names. Unrecognized names are returned separately so the caller sees them
// reported with a zero count instead of silently vanishing.
func (s *IngestionService) resolveRequested(requested []string) ([]models.IndicatorKind, []string) {
	if len(requested) == 0 {
		return models.AllIndicators, nil
	}

	for _, name := range requested {
		if strings.EqualFold(strings.TrimSpace(name), IndicatorSelectorAll) {
			return models.AllIndicators, nil
		}
	}

	seen := make(map[models.IndicatorKind]bool)
	var kinds []models.IndicatorKind
	var unrecognized []string
	for _, name := range requested {
		kind := models.CanonicalIndicator(name)
		if kind == models.IndicatorUnrecognized {
			s.log.Warn("unrecognized indicator requested", "name", name)
			unrecognized = append(unrecognized, strings.ToLower(strings.TrimSpace(name)))
			continue
		}
		if !seen[kind] {
			seen[kind] = true
			kinds = append(kinds, kind)
		}
	}
	return kinds, unrecognized
}

// dedupePoints collapses same-day records, keeping the last value
// encountered in source order, and returns the survivors sorted by date.
func dedupePoints(points []sources.Point) []sources.Point {
	if len(points) == 0 {
		return nil
	}

	byDate := make(map[string]float64, len(points))
	for _, point := range points {
		byDate[point.Date] = point.Value
	}

	deduped := make([]sources.Point, 0, len(byDate))
	for date, value := range byDate {
		deduped = append(deduped, sources.Point{Date: date, Value: value})
	}
	sort.Slice(deduped, func(i, j int) bool {
		return deduped[i].Date < deduped[j].Date
	})
	return deduped
}
