package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OwnerKind distinguishes automatically ingested rows from manual entries.
type OwnerKind string

const (
	// OwnerSystem marks rows written by the ingestion pipeline. System rows
	// are readable by every user.
	OwnerSystem OwnerKind = "system"
	// OwnerUser marks rows entered manually by a specific user.
	OwnerUser OwnerKind = "user"
)

// Owner identifies who a row belongs to. The kind tag replaces the sentinel
// user id the datastore used to reserve for ingested data.
type Owner struct {
	Kind   OwnerKind `json:"kind"`
	UserID string    `json:"user_id,omitempty"`
}

// SystemOwner returns the owner tag for ingested rows.
func SystemOwner() Owner {
	return Owner{Kind: OwnerSystem}
}

// UserOwner returns the owner tag for a manual entry by userID.
func UserOwner(userID string) Owner {
	return Owner{Kind: OwnerUser, UserID: userID}
}

// Observation is one (owner, indicator, date, value) data point. At most one
// observation exists per (owner, indicator, reference date); ingestion relies
// on that key for idempotent upserts.
type Observation struct {
	ID            string          `json:"id" db:"id"`
	Owner         Owner           `json:"owner"`
	Indicator     IndicatorKind   `json:"indicator" db:"indicator"`
	ReferenceDate time.Time       `json:"reference_date" db:"reference_date"`
	Value         decimal.Decimal `json:"value" db:"value"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// ObservationInput is the payload for manual entries.
type ObservationInput struct {
	Indicator     string  `json:"indicator" binding:"required"`
	ReferenceDate string  `json:"reference_date" binding:"required"`
	Value         float64 `json:"value"`
}

// Trend is the qualitative direction of an indicator's recent change.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// DerivedSnapshot carries the statistics computed fresh from an ordered
// observation series. Snapshots are never persisted.
type DerivedSnapshot struct {
	Indicator         IndicatorKind `json:"indicator"`
	LatestValue       float64       `json:"latest_value"`
	PreviousValue     float64       `json:"previous_value"`
	FirstValueWindow  float64       `json:"first_value_in_window"`
	MonthlyChangePct  float64       `json:"monthly_change_pct"`
	WindowChangePct   float64       `json:"window_change_pct"`
	Trend             Trend         `json:"trend"`
	InvertedGood      bool          `json:"inverted_good"`
	Volatility        float64       `json:"volatility"`
	ShortTermTrendPct float64       `json:"short_term_trend_pct"`
	Points            int           `json:"points"`
}

// SeriesPoint is one (date, value) pair handed to the insight digest.
type SeriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}
