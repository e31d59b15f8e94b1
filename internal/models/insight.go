package models

import "time"

// InsightType classifies what a generated insight talks about.
type InsightType string

const (
	InsightTrend       InsightType = "trend"
	InsightAlert       InsightType = "alert"
	InsightCorrelation InsightType = "correlation"
)

// InsightSeverity controls how an insight is rendered.
type InsightSeverity string

const (
	SeverityInfo    InsightSeverity = "info"
	SeverityWarning InsightSeverity = "warning"
	SeveritySuccess InsightSeverity = "success"
)

// ValidInsightType reports whether t is one of the accepted types.
func ValidInsightType(t string) bool {
	switch InsightType(t) {
	case InsightTrend, InsightAlert, InsightCorrelation:
		return true
	}
	return false
}

// ValidInsightSeverity reports whether s is one of the accepted severities.
func ValidInsightSeverity(s string) bool {
	switch InsightSeverity(s) {
	case SeverityInfo, SeverityWarning, SeveritySuccess:
		return true
	}
	return false
}

// InsightRecord is one generated, normalized insight tied to an indicator.
// Records are superseded wholesale by the next generation run for the same
// owner; stale rows are pruned before each insertion batch.
type InsightRecord struct {
	ID            string          `json:"id" db:"id"`
	UserID        string          `json:"user_id" db:"user_id"`
	Indicator     IndicatorKind   `json:"indicator" db:"indicator"`
	Title         string          `json:"title" db:"title"`
	Description   string          `json:"description" db:"description"`
	Severity      InsightSeverity `json:"severity" db:"severity"`
	Type          InsightType     `json:"type" db:"insight_type"`
	ReferenceDate time.Time       `json:"reference_date" db:"reference_date"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// IndicatorSummary is the per-indicator input to insight generation, carrying
// the derived snapshot plus recent raw points.
type IndicatorSummary struct {
	Indicator  IndicatorKind   `json:"indicator"`
	Snapshot   DerivedSnapshot `json:"snapshot"`
	Historical []SeriesPoint   `json:"historical"`
}
