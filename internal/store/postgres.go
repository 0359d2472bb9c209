package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/egphones/pricewatch/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses, so pgxmock can stand
// in during tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using a pgx connection pool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wires an existing pool, used by tests with pgxmock.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS price_records (
	slug       TEXT PRIMARY KEY,
	record     JSONB NOT NULL,
	stale      BOOLEAN NOT NULL DEFAULT false,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS history_snapshots (
	id       TEXT PRIMARY KEY,
	taken_at TIMESTAMPTZ NOT NULL,
	records  JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS error_log (
	id           TEXT PRIMARY KEY,
	ts           TIMESTAMPTZ NOT NULL,
	variant_slug TEXT NOT NULL,
	stage        TEXT NOT NULL,
	message      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_snapshots_taken_at ON history_snapshots(taken_at);
CREATE INDEX IF NOT EXISTS idx_error_log_variant ON error_log(variant_slug);
CREATE INDEX IF NOT EXISTS idx_error_log_ts ON error_log(ts);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) LoadRecords(ctx context.Context) (map[string]model.PriceRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT slug, record FROM price_records`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load records")
	}
	defer rows.Close()

	records := make(map[string]model.PriceRecord)
	for rows.Next() {
		var slug string
		var recordJSON []byte
		if err := rows.Scan(&slug, &recordJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		var rec model.PriceRecord
		if err := json.Unmarshal(recordJSON, &rec); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal record %s", slug)
		}
		records[slug] = rec
	}
	return records, eris.Wrap(rows.Err(), "postgres: load records iterate")
}

// ReplaceRecords swaps the full record set in one transaction.
func (s *PostgresStore) ReplaceRecords(ctx context.Context, records map[string]model.PriceRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM price_records`); err != nil {
		return eris.Wrap(err, "postgres: clear records")
	}

	for _, slug := range sortedSlugs(records) {
		rec := records[slug]
		recordJSON, err := json.Marshal(rec)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal record %s", slug)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO price_records (slug, record, stale, updated_at) VALUES ($1, $2, $3, $4)`,
			slug, recordJSON, rec.Stale, rec.LastUpdated.UTC(),
		); err != nil {
			return eris.Wrapf(err, "postgres: insert record %s", slug)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit replace")
}

func (s *PostgresStore) AppendSnapshot(ctx context.Context, snap model.HistorySnapshot) error {
	recordsJSON, err := json.Marshal(snap.Records)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal snapshot")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO history_snapshots (id, taken_at, records) VALUES ($1, $2, $3)`,
		snap.ID, snap.TakenAt.UTC(), recordsJSON,
	)
	return eris.Wrap(err, "postgres: append snapshot")
}

func (s *PostgresStore) PruneSnapshots(ctx context.Context, before time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM history_snapshots WHERE taken_at < $1`, before.UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: prune snapshots")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) ListSnapshots(ctx context.Context, limit int) ([]model.HistorySnapshot, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, taken_at, records FROM history_snapshots ORDER BY taken_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list snapshots")
	}
	defer rows.Close()

	var snaps []model.HistorySnapshot
	for rows.Next() {
		var snap model.HistorySnapshot
		var recordsJSON []byte
		if err := rows.Scan(&snap.ID, &snap.TakenAt, &recordsJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan snapshot")
		}
		if err := json.Unmarshal(recordsJSON, &snap.Records); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal snapshot %s", snap.ID)
		}
		snaps = append(snaps, snap)
	}
	return snaps, eris.Wrap(rows.Err(), "postgres: list snapshots iterate")
}

func (s *PostgresStore) AppendErrors(ctx context.Context, errs []model.ErrorRecord) error {
	if len(errs) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin append errors")
	}
	defer tx.Rollback(ctx)

	for _, e := range errs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO error_log (id, ts, variant_slug, stage, message) VALUES ($1, $2, $3, $4, $5)`,
			e.ID, e.Timestamp.UTC(), e.VariantSlug, e.Stage, e.Message,
		); err != nil {
			return eris.Wrap(err, "postgres: insert error record")
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit append errors")
}
