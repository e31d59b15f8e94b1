package sources

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/rbarroso/conjuntura-go/internal/models"
)

// ibgeAdapter pulls a national-accounts aggregate from the IBGE statistics
// API. The response nests the series as {resultados: [{series: [{serie:
// {periodCode: value}}]}]}; placeholder values ("...") mark unreleased
// periods and are skipped.
//
// Whether a period code reads as YYYYMM or YYYYQQ depends on the aggregate,
// so the format tag is fixed per adapter instance.
type ibgeAdapter struct {
	kind      models.IndicatorKind
	aggregate int
	variable  int
	periods   int
	format    PeriodFormat
	baseURL   string
	client    *httpClient
	log       *slog.Logger
}

type ibgeAggregate struct {
	Resultados []ibgeResultado `json:"resultados"`
}

type ibgeResultado struct {
	Series []ibgeSeries `json:"series"`
}

type ibgeSeries struct {
	Serie map[string]string `json:"serie"`
}

func newIBGEAdapter(kind models.IndicatorKind, aggregate, variable, periods int, format PeriodFormat, baseURL string, client *httpClient, log *slog.Logger) *ibgeAdapter {
	return &ibgeAdapter{
		kind:      kind,
		aggregate: aggregate,
		variable:  variable,
		periods:   periods,
		format:    format,
		baseURL:   baseURL,
		client:    client,
		log:       log.With("adapter", "ibge", "indicator", kind.String()),
	}
}

func (a *ibgeAdapter) Kind() models.IndicatorKind {
	return a.kind
}

func (a *ibgeAdapter) Fetch(ctx context.Context) []Point {
	url := fmt.Sprintf("%s/api/v3/agregados/%d/periodos/-%d/variaveis/%d?localidades=N1[all]",
		a.baseURL, a.aggregate, a.periods, a.variable)

	var response []ibgeAggregate
	if err := a.client.getJSON(ctx, url, &response); err != nil {
		a.log.Warn("fetch failed, skipping source", "error", err)
		return nil
	}

	serie := extractIBGESerie(response)
	points := make([]Point, 0, len(serie))
	for period, raw := range serie {
		if raw == "" || raw == "..." {
			continue
		}
		date := NormalizePeriod(period, a.format)
		if date == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(value) {
			continue
		}
		points = append(points, Point{Date: date, Value: value})
	}

	a.log.Info("fetched series", "periods", len(serie), "points", len(points))
	return points
}

func extractIBGESerie(response []ibgeAggregate) map[string]string {
	if len(response) == 0 || len(response[0].Resultados) == 0 || len(response[0].Resultados[0].Series) == 0 {
		return nil
	}
	return response[0].Resultados[0].Series[0].Serie
}
