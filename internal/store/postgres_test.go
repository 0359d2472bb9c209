package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egphones/pricewatch/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock), mock
}

func testRecord(slug string, price float64, stale bool) model.PriceRecord {
	return model.PriceRecord{
		PhoneSlug:   slug,
		Variant:     "256GB",
		Offers:      []model.Offer{{Store: "amazon", Price: price, Currency: "EGP", Confidence: 0.9}},
		BestPrice:   price,
		BestStore:   "amazon",
		Stale:       stale,
		LastUpdated: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestPostgresStore_LoadRecords(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rec := testRecord("samsung_galaxy_s24_ultra", 32999, false)
	recJSON, err := json.Marshal(rec)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT slug, record FROM price_records`).
		WillReturnRows(pgxmock.NewRows([]string{"slug", "record"}).
			AddRow("samsung_galaxy_s24_ultra", recJSON))

	records, err := s.LoadRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 32999.0, records["samsung_galaxy_s24_ultra"].BestPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceRecords_SingleTransaction(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	a := testRecord("apple_iphone_15", 45000, false)
	b := testRecord("samsung_galaxy_s24_ultra", 32999, true)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM price_records`).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	// Inserts run in sorted slug order.
	mock.ExpectExec(`INSERT INTO price_records`).
		WithArgs("apple_iphone_15", pgxmock.AnyArg(), false, a.LastUpdated).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO price_records`).
		WithArgs("samsung_galaxy_s24_ultra", pgxmock.AnyArg(), true, b.LastUpdated).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := s.ReplaceRecords(context.Background(), map[string]model.PriceRecord{
		"samsung_galaxy_s24_ultra": b,
		"apple_iphone_15":          a,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceRecords_RollbackOnFailure(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM price_records`).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`INSERT INTO price_records`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := s.ReplaceRecords(context.Background(), map[string]model.PriceRecord{
		"apple_iphone_15": testRecord("apple_iphone_15", 45000, false),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert record")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendSnapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	snap := model.HistorySnapshot{
		ID:      "snap-1",
		TakenAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Records: map[string]model.PriceRecord{
			"samsung_galaxy_s24_ultra": testRecord("samsung_galaxy_s24_ultra", 32999, false),
		},
	}

	mock.ExpectExec(`INSERT INTO history_snapshots`).
		WithArgs("snap-1", snap.TakenAt, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.AppendSnapshot(context.Background(), snap))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PruneSnapshots(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	cutoff := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`DELETE FROM history_snapshots WHERE taken_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := s.PruneSnapshots(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendErrors(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	errs := []model.ErrorRecord{
		{
			ID: "e1", Timestamp: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
			VariantSlug: "samsung_galaxy_s24_ultra",
			Stage:       model.StageSearch, Message: "jina: search timeout",
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO error_log`).
		WithArgs("e1", errs[0].Timestamp, "samsung_galaxy_s24_ultra", model.StageSearch, "jina: search timeout").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, s.AppendErrors(context.Background(), errs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendErrorsEmptyNoop(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	require.NoError(t, s.AppendErrors(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
