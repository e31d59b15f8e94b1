package sources

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/rbarroso/conjuntura-go/internal/models"
)

// sgsAdapter pulls a series from the central bank's SGS time-series service.
// The response is a flat array of {data: "dd/mm/yyyy", valor: "string"}.
type sgsAdapter struct {
	kind       models.IndicatorKind
	seriesCode int
	baseURL    string
	client     *httpClient
	log        *slog.Logger
	now        func() time.Time
}

type sgsRecord struct {
	Data  string `json:"data"`
	Valor string `json:"valor"`
}

func newSGSAdapter(kind models.IndicatorKind, seriesCode int, baseURL string, client *httpClient, log *slog.Logger) *sgsAdapter {
	return &sgsAdapter{
		kind:       kind,
		seriesCode: seriesCode,
		baseURL:    baseURL,
		client:     client,
		log:        log.With("adapter", "sgs", "indicator", kind.String()),
		now:        time.Now,
	}
}

func (a *sgsAdapter) Kind() models.IndicatorKind {
	return a.kind
}

func (a *sgsAdapter) Fetch(ctx context.Context) []Point {
	end := a.now()
	start := end.AddDate(-2, 0, 0)

	url := fmt.Sprintf("%s/dados/serie/bcdata.sgs.%d/dados?formato=json&dataInicial=%s&dataFinal=%s",
		a.baseURL, a.seriesCode, formatSGSDate(start), formatSGSDate(end))

	var records []sgsRecord
	if err := a.client.getJSON(ctx, url, &records); err != nil {
		a.log.Warn("fetch failed, skipping source", "error", err)
		return nil
	}

	points := make([]Point, 0, len(records))
	for _, rec := range records {
		date := BRDateToISO(rec.Data)
		if date == "" {
			continue
		}
		value, err := strconv.ParseFloat(rec.Valor, 64)
		if err != nil || math.IsNaN(value) {
			continue
		}
		points = append(points, Point{Date: date, Value: value})
	}

	a.log.Info("fetched series", "records", len(records), "points", len(points))
	return points
}

// formatSGSDate renders the dd/MM/yyyy format the SGS query API expects.
func formatSGSDate(t time.Time) string {
	return t.Format("02/01/2006")
}
