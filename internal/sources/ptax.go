package sources

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/rbarroso/conjuntura-go/internal/models"
)

// ptaxAdapter pulls USD/BRL sell quotes from the PTAX OData service. The
// upstream returns intraday quotes ({dataHoraCotacao, cotacaoVenda}); the
// adapter emits them in API order and the coordinator's same-day dedup keeps
// the last one seen per calendar day.
type ptaxAdapter struct {
	baseURL string
	client  *httpClient
	log     *slog.Logger
	now     func() time.Time
}

type ptaxResponse struct {
	Value []ptaxQuote `json:"value"`
}

type ptaxQuote struct {
	DataHoraCotacao string  `json:"dataHoraCotacao"`
	CotacaoVenda    float64 `json:"cotacaoVenda"`
}

func newPTAXAdapter(baseURL string, client *httpClient, log *slog.Logger) *ptaxAdapter {
	return &ptaxAdapter{
		baseURL: baseURL,
		client:  client,
		log:     log.With("adapter", "ptax", "indicator", models.IndicatorDolar.String()),
		now:     time.Now,
	}
}

func (a *ptaxAdapter) Kind() models.IndicatorKind {
	return models.IndicatorDolar
}

func (a *ptaxAdapter) Fetch(ctx context.Context) []Point {
	end := a.now()
	start := end.AddDate(0, -6, 0)

	url := fmt.Sprintf("%s/olinda/servico/PTAX/versao/v1/odata/CotacaoDolarPeriodo(dataInicial=@dataInicial,dataFinalCotacao=@dataFinalCotacao)?@dataInicial='%s'&@dataFinalCotacao='%s'&$format=json",
		a.baseURL, start.Format("2006-01-02"), end.Format("2006-01-02"))

	var response ptaxResponse
	if err := a.client.getJSON(ctx, url, &response); err != nil {
		a.log.Warn("fetch failed, skipping source", "error", err)
		return nil
	}

	points := make([]Point, 0, len(response.Value))
	for _, quote := range response.Value {
		date := TimestampToISO(quote.DataHoraCotacao)
		if date == "" || math.IsNaN(quote.CotacaoVenda) {
			continue
		}
		points = append(points, Point{Date: date, Value: quote.CotacaoVenda})
	}

	a.log.Info("fetched series", "quotes", len(response.Value), "points", len(points))
	return points
}
