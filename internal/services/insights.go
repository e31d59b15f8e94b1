package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rbarroso/conjuntura-go/internal/config"
	"github.com/rbarroso/conjuntura-go/internal/logging"
	"github.com/rbarroso/conjuntura-go/internal/models"
	"github.com/rbarroso/conjuntura-go/internal/utils"
)

const (
	// MaxInsights caps how many records one generation run may persist,
	// regardless of how many the generator returned.
	MaxInsights = 3
	// maxTitleLen truncates generated titles before persistence.
	maxTitleLen = 100
	// titleFromMessageLen is the message prefix used when no title came back.
	titleFromMessageLen = 50
	// digestPoints is how many trailing raw points each digest block lists.
	digestPoints = 6
)

const systemPrompt = `You are a senior economic analyst specialized in Brazilian macroeconomics.

Generate clear, actionable insights from the indicator data provided. Analyze
recent short- and medium-term movements, flag accelerations, decelerations and
trend reversals, highlight divergences between indicators (e.g. policy rate vs
inflation) and point out plausible temporal correlations. Base every insight
strictly on the supplied data; no speculation, no forecasts.

Respond as JSON:
{
  "insights": [
    {
      "title": "short title (max 50 chars)",
      "message": "detailed description",
      "type": "trend" | "alert" | "correlation",
      "severity": "info" | "warning" | "success",
      "indicators": ["indicator1", "indicator2"]
    }
  ]
}

Produce between 3 and 6 insights, each short and readable by a non-technical
user.`

// GenerationClient calls the external chat-completions gateway and
// classifies its failures into the generation error taxonomy.
type GenerationClient struct {
	httpClient  *http.Client
	gatewayURL  string
	apiKey      string
	model       string
	temperature float64
}

// NewGenerationClient builds a gateway client from config.
func NewGenerationClient(cfg config.AIConfig) *GenerationClient {
	timeout := 60 * time.Second
	if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
		timeout = d
	}
	return &GenerationClient{
		httpClient:  &http.Client{Timeout: timeout},
		gatewayURL:  strings.TrimSuffix(cfg.GatewayURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat responseFmt   `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFmt struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete posts the prompt pair and returns the structured content of the
// first choice. Failures come back as GenerationErrors: 401 auth, 429 rate
// limited, 402 quota exhausted, anything else generic.
func (c *GenerationClient) Complete(ctx context.Context, userMessage string) ([]byte, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		Temperature:    c.temperature,
		ResponseFormat: responseFmt{Type: "json_object"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, utils.NewGenerationError(utils.GenerationGeneric, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, utils.NewGenerationError(utils.GenerationGeneric, err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, utils.NewGenerationError(utils.GenerationGeneric, err.Error())
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, utils.NewGenerationError(utils.GenerationGeneric, err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := utils.ClassifyGenerationStatus(resp.StatusCode)
		return nil, utils.NewGenerationError(kind, fmt.Sprintf("gateway returned %d", resp.StatusCode))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, utils.NewGenerationError(utils.GenerationGeneric, "unparseable gateway response")
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return nil, utils.NewGenerationError(utils.GenerationGeneric, "no content in gateway response")
	}
	return []byte(parsed.Choices[0].Message.Content), nil
}

// BuildDigest renders the per-indicator statistical blocks handed to the
// generator, in input order.
func BuildDigest(summaries []models.IndicatorSummary, window string) string {
	var sb strings.Builder
	for _, summary := range summaries {
		snap := summary.Snapshot
		kind := summary.Indicator

		recent := summary.Historical
		if len(recent) > digestPoints {
			recent = recent[len(recent)-digestPoints:]
		}
		pointParts := make([]string, 0, len(recent))
		for _, p := range recent {
			pointParts = append(pointParts, fmt.Sprintf("%s: %.2f", p.Date, p.Value))
		}

		sb.WriteString(fmt.Sprintf(`
**%s** [id: %s]
- Current value: %.2f %s
- Monthly change: %.2f%%
- Change over %s: %.2f%%
- Short-term trend: %s
- Volatility: %.2f
- Recent points: %s
`,
			kind.ShortName(), kind.String(),
			snap.LatestValue, kind.Unit(),
			snap.MonthlyChangePct,
			window, snap.WindowChangePct,
			shortTermLabel(snap.ShortTermTrendPct),
			snap.Volatility,
			strings.Join(pointParts, ", ")))
	}
	return sb.String()
}

func shortTermLabel(pct float64) string {
	switch {
	case pct > trendThresholdPct:
		return "accelerating"
	case pct < -trendThresholdPct:
		return "decelerating"
	default:
		return "steady"
	}
}

type rawInsight struct {
	Title      string   `json:"title"`
	Message    string   `json:"message"`
	Type       string   `json:"type"`
	Severity   string   `json:"severity"`
	Indicators []string `json:"indicators"`
}

type insightsPayload struct {
	Insights []rawInsight `json:"insights"`
}

// NormalizeInsights validates and coerces the generator's structured content
// into persistable records: unknown types coerce to trend, unknown severities
// to info, the indicator reference is canonicalized with a total fallback,
// titles are truncated, and the batch is capped at MaxInsights.
func NormalizeInsights(content []byte, fallback models.IndicatorKind, userID string, referenceDate time.Time) ([]models.InsightRecord, error) {
	var payload insightsPayload
	if err := json.Unmarshal(content, &payload); err != nil {
		return nil, utils.NewGenerationError(utils.GenerationGeneric, "invalid JSON from generator")
	}

	candidates := payload.Insights
	if len(candidates) > MaxInsights {
		candidates = candidates[:MaxInsights]
	}

	records := make([]models.InsightRecord, 0, len(candidates))
	for _, candidate := range candidates {
		title := candidate.Title
		if title == "" {
			title = truncate(candidate.Message, titleFromMessageLen)
		}
		title = truncate(title, maxTitleLen)

		insightType := models.InsightTrend
		if models.ValidInsightType(candidate.Type) {
			insightType = models.InsightType(candidate.Type)
		}

		severity := models.SeverityInfo
		if models.ValidInsightSeverity(candidate.Severity) {
			severity = models.InsightSeverity(candidate.Severity)
		}

		rawIndicator := fallback.String()
		if len(candidate.Indicators) > 0 && candidate.Indicators[0] != "" {
			rawIndicator = candidate.Indicators[0]
		}

		records = append(records, models.InsightRecord{
			ID:            uuid.NewString(),
			UserID:        userID,
			Indicator:     models.CanonicalIndicatorOrDefault(rawIndicator),
			Title:         title,
			Description:   candidate.Message,
			Severity:      severity,
			Type:          insightType,
			ReferenceDate: referenceDate,
		})
	}
	return records, nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// InsightStore is the persistence boundary for generated insights.
type InsightStore interface {
	PruneStale(ctx context.Context, userID string, today time.Time) error
	InsertBatch(ctx context.Context, records []models.InsightRecord) error
}

// InsightNotifier pushes freshly generated insights to an out-of-band
// channel. Implementations must tolerate being a no-op.
type InsightNotifier interface {
	NotifyInsights(ctx context.Context, records []models.InsightRecord)
}

// InsightService runs the full generation pipeline: digest, gateway call,
// normalization, supersede-and-persist.
type InsightService struct {
	client   *GenerationClient
	store    InsightStore
	notifier InsightNotifier
	log      *slog.Logger
	now      func() time.Time
}

// NewInsightService wires the pipeline. notifier may be nil.
func NewInsightService(client *GenerationClient, store InsightStore, notifier InsightNotifier, stdLogger *logging.StandardLogger) *InsightService {
	return &InsightService{
		client:   client,
		store:    store,
		notifier: notifier,
		log:      stdLogger.WithComponent("insights"),
		now:      time.Now,
	}
}

// Generate produces and persists insights for the visible subset of the
// supplied summaries. Any failure before persistence leaves previously
// stored records untouched. An empty active set returns an empty batch with
// no gateway call.
func (s *InsightService) Generate(ctx context.Context, userID string, summaries []models.IndicatorSummary, visible []string, window string) ([]models.InsightRecord, error) {
	active := filterVisible(summaries, visible)
	if len(active) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(active))
	for _, summary := range active {
		names = append(names, summary.Indicator.ShortName())
	}

	userMessage := fmt.Sprintf(
		"Analyze the following Brazilian economic indicators over the %s window and generate insights:\n%s\nActive indicators: %s\n\nGenerate 3 to 6 relevant insights based on this data.",
		window, BuildDigest(active, window), strings.Join(names, ", "))

	content, err := s.client.Complete(ctx, userMessage)
	if err != nil {
		s.log.Warn("generation call failed", "error", err, "kind", string(utils.GenerationKind(err)))
		return nil, err
	}

	today := truncateToDay(s.now())
	records, err := NormalizeInsights(content, active[0].Indicator, userID, today)
	if err != nil {
		s.log.Warn("generator response rejected", "error", err)
		return nil, err
	}

	if len(records) > 0 {
		if err := s.store.PruneStale(ctx, userID, today); err != nil {
			s.log.Error("failed to prune stale insights", "error", err)
		}
		if err := s.store.InsertBatch(ctx, records); err != nil {
			// Persisting is best-effort once generation succeeded; the
			// caller still gets the normalized batch.
			s.log.Error("failed to save insights", "error", err)
		} else {
			s.log.Info("saved insights", "count", len(records))
		}
		if s.notifier != nil {
			s.notifier.NotifyInsights(ctx, records)
		}
	}

	return records, nil
}

func filterVisible(summaries []models.IndicatorSummary, visible []string) []models.IndicatorSummary {
	if len(visible) == 0 {
		return summaries
	}
	allowed := make(map[models.IndicatorKind]bool, len(visible))
	for _, name := range visible {
		allowed[models.CanonicalIndicator(name)] = true
	}
	var active []models.IndicatorSummary
	for _, summary := range summaries {
		if allowed[summary.Indicator] {
			active = append(active, summary)
		}
	}
	return active
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
