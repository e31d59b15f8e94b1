package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbarroso/conjuntura-go/internal/models"
	"github.com/rbarroso/conjuntura-go/internal/utils"
)

// MockPoolAdapter wraps pgxmock.PgxPoolIface to implement DatabasePool.
type MockPoolAdapter struct {
	mock pgxmock.PgxPoolIface
}

func NewMockPoolAdapter(mock pgxmock.PgxPoolIface) DatabasePool {
	return &MockPoolAdapter{mock: mock}
}

func (m *MockPoolAdapter) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return m.mock.QueryRow(ctx, sql, args...)
}

func (m *MockPoolAdapter) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	result, err := m.mock.Exec(ctx, sql, args...)
	if err == nil {
		rows := result.RowsAffected()
		return pgconn.NewCommandTag(fmt.Sprintf("UPDATE %d", rows)), nil
	}
	return pgconn.CommandTag{}, err
}

func (m *MockPoolAdapter) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return m.mock.Query(ctx, sql, args...)
}

func newObservationRepoWithMock(t *testing.T) (*ObservationRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return NewObservationRepository(NewMockPoolAdapter(mockPool)), mockPool
}

func TestObservationRepository_UpsertBatch(t *testing.T) {
	repo, mockPool := newObservationRepoWithMock(t)
	ctx := context.Background()

	date1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	date2 := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	observations := []models.Observation{
		{
			Owner:         models.SystemOwner(),
			Indicator:     models.IndicatorSelic,
			ReferenceDate: date1,
			Value:         decimal.NewFromFloat(11.25),
		},
		{
			Owner:         models.SystemOwner(),
			Indicator:     models.IndicatorSelic,
			ReferenceDate: date2,
			Value:         decimal.NewFromFloat(10.75),
		},
	}

	mockPool.ExpectExec(`INSERT INTO observations`).
		WithArgs("system", "", "selic", date1, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec(`INSERT INTO observations`).
		WithArgs("system", "", "selic", date2, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	written, err := repo.UpsertBatch(ctx, observations)

	require.NoError(t, err)
	assert.Equal(t, 2, written)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestObservationRepository_UpsertBatchEmpty(t *testing.T) {
	repo, mockPool := newObservationRepoWithMock(t)

	written, err := repo.UpsertBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, 0, written)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestObservationRepository_UpsertBatchStopsOnError(t *testing.T) {
	repo, mockPool := newObservationRepoWithMock(t)

	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	observations := []models.Observation{
		{Owner: models.SystemOwner(), Indicator: models.IndicatorIPCA, ReferenceDate: date, Value: decimal.NewFromFloat(4.5)},
		{Owner: models.SystemOwner(), Indicator: models.IndicatorIPCA, ReferenceDate: date.AddDate(0, 1, 0), Value: decimal.NewFromFloat(4.2)},
	}

	mockPool.ExpectExec(`INSERT INTO observations`).
		WithArgs("system", "", "ipca", date, pgxmock.AnyArg()).
		WillReturnError(fmt.Errorf("connection lost"))

	written, err := repo.UpsertBatch(context.Background(), observations)

	require.Error(t, err)
	assert.Equal(t, 0, written)
	assert.Contains(t, err.Error(), "ipca@2024-01-01")
}

func TestObservationRepository_ListForUser(t *testing.T) {
	repo, mockPool := newObservationRepoWithMock(t)

	startDate := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	createdAt := time.Now()

	rows := pgxmock.NewRows([]string{"id", "owner_kind", "user_id", "indicator", "reference_date", "value", "created_at"}).
		AddRow("obs-1", "system", "", "selic", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), decimal.NewFromFloat(11.25), createdAt).
		AddRow("obs-2", "user", "user-1", "selic", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), decimal.NewFromFloat(11.00), createdAt)

	mockPool.ExpectQuery(`SELECT id, owner_kind, user_id, indicator, reference_date, value, created_at`).
		WithArgs("user-1", startDate, "selic").
		WillReturnRows(rows)

	observations, err := repo.ListForUser(context.Background(), "user-1", models.IndicatorSelic, startDate)

	require.NoError(t, err)
	require.Len(t, observations, 2)
	assert.Equal(t, models.OwnerSystem, observations[0].Owner.Kind)
	assert.Equal(t, models.OwnerUser, observations[1].Owner.Kind)
	assert.Equal(t, "user-1", observations[1].Owner.UserID)
	assert.Equal(t, models.IndicatorSelic, observations[0].Indicator)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestObservationRepository_ListForUserWithoutIndicatorFilter(t *testing.T) {
	repo, mockPool := newObservationRepoWithMock(t)

	startDate := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)

	mockPool.ExpectQuery(`SELECT id, owner_kind, user_id, indicator, reference_date, value, created_at`).
		WithArgs("user-1", startDate).
		WillReturnRows(pgxmock.NewRows([]string{"id", "owner_kind", "user_id", "indicator", "reference_date", "value", "created_at"}))

	observations, err := repo.ListForUser(context.Background(), "user-1", "", startDate)

	require.NoError(t, err)
	assert.Empty(t, observations)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestObservationRepository_InsertDuplicate(t *testing.T) {
	repo, mockPool := newObservationRepoWithMock(t)

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mockPool.ExpectQuery(`INSERT INTO observations`).
		WithArgs("user", "user-1", "ipca", date, pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Insert(context.Background(), models.Observation{
		Owner:         models.UserOwner("user-1"),
		Indicator:     models.IndicatorIPCA,
		ReferenceDate: date,
		Value:         decimal.NewFromFloat(4.5),
	})

	require.Error(t, err)
	var validationErr *utils.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestObservationRepository_UpdateNotFound(t *testing.T) {
	repo, mockPool := newObservationRepoWithMock(t)

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mockPool.ExpectExec(`UPDATE observations`).
		WithArgs(pgxmock.AnyArg(), date, "obs-1", "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), "obs-1", "user-1", decimal.NewFromFloat(5), date)

	var validationErr *utils.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestObservationRepository_Delete(t *testing.T) {
	repo, mockPool := newObservationRepoWithMock(t)

	mockPool.ExpectExec(`DELETE FROM observations`).
		WithArgs("obs-1", "user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.Delete(context.Background(), "obs-1", "user-1")

	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
