package sources

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/rbarroso/conjuntura-go/internal/models"
)

// ipeaAdapter pulls a monthly inflation index from the Ipeadata OData
// service. The response is {value: [{VALDATA, VALVALOR}]}; only the trailing
// lookback window is kept.
type ipeaAdapter struct {
	kind       models.IndicatorKind
	seriesCode string
	baseURL    string
	lookback   int
	client     *httpClient
	log        *slog.Logger
}

type ipeaResponse struct {
	Value []ipeaRecord `json:"value"`
}

type ipeaRecord struct {
	ValData  string   `json:"VALDATA"`
	ValValor *float64 `json:"VALVALOR"`
}

func newIpeaAdapter(kind models.IndicatorKind, seriesCode, baseURL string, lookback int, client *httpClient, log *slog.Logger) *ipeaAdapter {
	if lookback <= 0 {
		lookback = 24
	}
	return &ipeaAdapter{
		kind:       kind,
		seriesCode: seriesCode,
		baseURL:    baseURL,
		lookback:   lookback,
		client:     client,
		log:        log.With("adapter", "ipea", "indicator", kind.String()),
	}
}

func (a *ipeaAdapter) Kind() models.IndicatorKind {
	return a.kind
}

func (a *ipeaAdapter) Fetch(ctx context.Context) []Point {
	url := fmt.Sprintf("%s/api/odata4/ValoresSerie(SERCODIGO='%s')", a.baseURL, a.seriesCode)

	var response ipeaResponse
	if err := a.client.getJSON(ctx, url, &response); err != nil {
		a.log.Warn("fetch failed, skipping source", "error", err)
		return nil
	}

	records := response.Value
	if len(records) > a.lookback {
		records = records[len(records)-a.lookback:]
	}

	points := make([]Point, 0, len(records))
	for _, rec := range records {
		date := TimestampToISO(rec.ValData)
		if date == "" || rec.ValValor == nil || math.IsNaN(*rec.ValValor) {
			continue
		}
		points = append(points, Point{Date: date, Value: *rec.ValValor})
	}

	a.log.Info("fetched series", "records", len(response.Value), "points", len(points))
	return points
}
