package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/rbarroso/conjuntura-go/internal/models"
	"github.com/rbarroso/conjuntura-go/internal/utils"
)

// DatabasePool defines the interface for database pool operations.
// This interface allows for both real pool and mock pool implementations.
type DatabasePool interface {
	// QueryRow executes a query that is expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	// Exec executes a query without returning any rows.
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	// Query executes a query that returns rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// ObservationRepository handles database operations for indicator
// observations. Row ownership is modeled as an explicit (owner_kind, user_id)
// pair: system rows carry an empty user_id and are visible to everyone.
type ObservationRepository struct {
	pool DatabasePool
}

// NewObservationRepository creates a new observation repository.
func NewObservationRepository(pool DatabasePool) *ObservationRepository {
	return &ObservationRepository{pool: pool}
}

const upsertObservationSQL = `
	INSERT INTO observations (owner_kind, user_id, indicator, reference_date, value)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (owner_kind, user_id, indicator, reference_date)
	DO UPDATE SET value = EXCLUDED.value`

// UpsertBatch writes observations, overwriting the value of any row that
// already exists for the same (owner, indicator, reference date). Returns the
// number of records written.
func (r *ObservationRepository) UpsertBatch(ctx context.Context, observations []models.Observation) (int, error) {
	if len(observations) == 0 {
		return 0, nil
	}

	written := 0
	for _, obs := range observations {
		_, err := r.pool.Exec(ctx, upsertObservationSQL,
			string(obs.Owner.Kind), obs.Owner.UserID, string(obs.Indicator),
			obs.ReferenceDate, obs.Value)
		if err != nil {
			return written, fmt.Errorf("failed to upsert observation %s@%s: %w",
				obs.Indicator, obs.ReferenceDate.Format("2006-01-02"), err)
		}
		written++
	}
	return written, nil
}

// ListForUser returns the user's own observations plus the system-owned ones,
// optionally filtered by indicator, from startDate on, ordered by date
// ascending.
func (r *ObservationRepository) ListForUser(ctx context.Context, userID string, indicator models.IndicatorKind, startDate time.Time) ([]models.Observation, error) {
	query := `
		SELECT id, owner_kind, user_id, indicator, reference_date, value, created_at
		FROM observations
		WHERE (owner_kind = 'system' OR (owner_kind = 'user' AND user_id = $1))
		  AND reference_date >= $2`
	args := []interface{}{userID, startDate}

	if indicator != "" {
		query += ` AND indicator = $3`
		args = append(args, string(indicator))
	}
	query += ` ORDER BY reference_date ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// Insert creates a single manual observation for a user. A conflicting row
// for the same (owner, indicator, date) surfaces as a validation error.
func (r *ObservationRepository) Insert(ctx context.Context, obs models.Observation) (*models.Observation, error) {
	query := `
		INSERT INTO observations (owner_kind, user_id, indicator, reference_date, value)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		string(obs.Owner.Kind), obs.Owner.UserID, string(obs.Indicator),
		obs.ReferenceDate, obs.Value).Scan(&obs.ID, &obs.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, utils.NewValidationError("an observation already exists for this indicator and date")
		}
		return nil, fmt.Errorf("failed to insert observation: %w", err)
	}
	return &obs, nil
}

// Update changes the value and/or reference date of a user-owned observation.
func (r *ObservationRepository) Update(ctx context.Context, id, userID string, value decimal.Decimal, referenceDate time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE observations
		SET value = $1, reference_date = $2
		WHERE id = $3 AND owner_kind = 'user' AND user_id = $4`,
		value, referenceDate, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update observation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return utils.NewValidationError("observation not found")
	}
	return nil
}

// Delete removes a user-owned observation. System rows cannot be deleted
// through this path.
func (r *ObservationRepository) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM observations
		WHERE id = $1 AND owner_kind = 'user' AND user_id = $2`,
		id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete observation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return utils.NewValidationError("observation not found")
	}
	return nil
}

func scanObservations(rows pgx.Rows) ([]models.Observation, error) {
	var result []models.Observation
	for rows.Next() {
		var obs models.Observation
		var ownerKind, userID, indicator string
		if err := rows.Scan(&obs.ID, &ownerKind, &userID, &indicator,
			&obs.ReferenceDate, &obs.Value, &obs.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		obs.Owner = models.Owner{Kind: models.OwnerKind(ownerKind), UserID: userID}
		obs.Indicator = models.IndicatorKind(indicator)
		result = append(result, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read observations: %w", err)
	}
	return result, nil
}
