package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rbarroso/conjuntura-go/internal/models"
)

// InsightRepository handles database operations for generated insights.
type InsightRepository struct {
	pool DatabasePool
}

// NewInsightRepository creates a new insight repository.
func NewInsightRepository(pool DatabasePool) *InsightRepository {
	return &InsightRepository{pool: pool}
}

// PruneStale deletes the user's insights whose reference date is before
// today. Called before each insertion batch so a generation run supersedes
// the previous one.
func (r *InsightRepository) PruneStale(ctx context.Context, userID string, today time.Time) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM generated_insights
		WHERE user_id = $1 AND reference_date < $2`,
		userID, today)
	if err != nil {
		return fmt.Errorf("failed to prune stale insights: %w", err)
	}
	return nil
}

// InsertBatch stores a batch of normalized insight records.
func (r *InsightRepository) InsertBatch(ctx context.Context, records []models.InsightRecord) error {
	for _, rec := range records {
		id := rec.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err := r.pool.Exec(ctx, `
			INSERT INTO generated_insights
				(id, user_id, indicator, title, description, severity, insight_type, reference_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			id, rec.UserID, string(rec.Indicator), rec.Title, rec.Description,
			string(rec.Severity), string(rec.Type), rec.ReferenceDate)
		if err != nil {
			return fmt.Errorf("failed to insert insight %q: %w", rec.Title, err)
		}
	}
	return nil
}

// ListForUser returns the user's stored insights, newest first.
func (r *InsightRepository) ListForUser(ctx context.Context, userID string) ([]models.InsightRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, indicator, title, description, severity, insight_type, reference_date, created_at
		FROM generated_insights
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	defer rows.Close()

	var result []models.InsightRecord
	for rows.Next() {
		var rec models.InsightRecord
		var indicator, severity, insightType string
		if err := rows.Scan(&rec.ID, &rec.UserID, &indicator, &rec.Title,
			&rec.Description, &severity, &insightType, &rec.ReferenceDate, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		rec.Indicator = models.IndicatorKind(indicator)
		rec.Severity = models.InsightSeverity(severity)
		rec.Type = models.InsightType(insightType)
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read insights: %w", err)
	}
	return result, nil
}
