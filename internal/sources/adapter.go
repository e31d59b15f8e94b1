package sources

import (
	"context"
	"time"

	"github.com/rbarroso/conjuntura-go/internal/config"
	"github.com/rbarroso/conjuntura-go/internal/logging"
	"github.com/rbarroso/conjuntura-go/internal/models"
)

// Point is one normalized raw data point: an ISO yyyy-mm-dd date and a
// parsed numeric value.
type Point struct {
	Date  string
	Value float64
}

// Adapter fetches one indicator's series from its upstream API and maps the
// idiosyncratic response shape to normalized points.
//
// Adapters never surface errors to the coordinator: transport failures,
// non-success statuses and unparseable bodies are logged and yield an empty
// slice, and records with unparseable values or dates are dropped
// individually. A failing source must not block ingestion of the others.
type Adapter interface {
	Kind() models.IndicatorKind
	Fetch(ctx context.Context) []Point
}

// BCB SGS series codes.
const (
	sgsSeriesSelic        = 432   // SELIC target rate set by COPOM
	sgsSeriesTradeBalance = 22707 // trade balance surplus/deficit
)

// Ipeadata series codes.
const (
	ipeaSeriesIPCA = "PRECOS12_IPCAG12" // IPCA accumulated 12 months
	ipeaSeriesIGPM = "IGP12_IGPMG12"    // IGP-M accumulated 12 months
)

// IBGE aggregate/variable pairs.
const (
	ibgeAggregateGDP          = 5932 // quarterly GDP variation
	ibgeVariableGDP           = 6564
	ibgeAggregateUnemployment = 6381 // PNAD Contínua unemployment rate
	ibgeVariableUnemployment  = 4099
)

// NewRegistry builds the adapter for every tracked indicator.
func NewRegistry(cfg config.SourcesConfig, stdLogger *logging.StandardLogger) map[models.IndicatorKind]Adapter {
	client := newHTTPClient(parseTimeout(cfg.RequestTimeout))
	log := stdLogger.WithComponent("sources")

	adapters := []Adapter{
		newSGSAdapter(models.IndicatorSelic, sgsSeriesSelic, cfg.BCBBaseURL, client, log),
		newSGSAdapter(models.IndicatorBalanca, sgsSeriesTradeBalance, cfg.BCBBaseURL, client, log),
		newIpeaAdapter(models.IndicatorIPCA, ipeaSeriesIPCA, cfg.IpeaBaseURL, cfg.LookbackMonths, client, log),
		newIpeaAdapter(models.IndicatorIGPM, ipeaSeriesIGPM, cfg.IpeaBaseURL, cfg.LookbackMonths, client, log),
		newIBGEAdapter(models.IndicatorPIB, ibgeAggregateGDP, ibgeVariableGDP, 12, PeriodYearQuarter, cfg.IBGEBaseURL, client, log),
		newIBGEAdapter(models.IndicatorDesemprego, ibgeAggregateUnemployment, ibgeVariableUnemployment, 24, PeriodYearMonth, cfg.IBGEBaseURL, client, log),
		newPTAXAdapter(cfg.PTAXBaseURL, client, log),
	}

	registry := make(map[models.IndicatorKind]Adapter, len(adapters))
	for _, adapter := range adapters {
		registry[adapter.Kind()] = adapter
	}
	return registry
}

func parseTimeout(raw string) time.Duration {
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return 15 * time.Second
}
