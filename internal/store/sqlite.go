package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/egphones/pricewatch/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode so the read-only API can serve while a run writes.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS price_records (
	slug       TEXT PRIMARY KEY,
	record     TEXT NOT NULL,
	stale      INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS history_snapshots (
	id       TEXT PRIMARY KEY,
	taken_at DATETIME NOT NULL,
	records  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS error_log (
	id           TEXT PRIMARY KEY,
	ts           DATETIME NOT NULL,
	variant_slug TEXT NOT NULL,
	stage        TEXT NOT NULL,
	message      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_snapshots_taken_at ON history_snapshots(taken_at);
CREATE INDEX IF NOT EXISTS idx_error_log_variant ON error_log(variant_slug);
CREATE INDEX IF NOT EXISTS idx_error_log_ts ON error_log(ts);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadRecords(ctx context.Context) (map[string]model.PriceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slug, record FROM price_records`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load records")
	}
	defer rows.Close()

	records := make(map[string]model.PriceRecord)
	for rows.Next() {
		var slug, recordJSON string
		if err := rows.Scan(&slug, &recordJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		var rec model.PriceRecord
		if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal record %s", slug)
		}
		records[slug] = rec
	}
	return records, eris.Wrap(rows.Err(), "sqlite: load records iterate")
}

// ReplaceRecords swaps the full record set in one transaction. On any
// failure the transaction rolls back and the previous set stays intact.
func (s *SQLiteStore) ReplaceRecords(ctx context.Context, records map[string]model.PriceRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM price_records`); err != nil {
		return eris.Wrap(err, "sqlite: clear records")
	}

	for _, slug := range sortedSlugs(records) {
		rec := records[slug]
		recordJSON, err := json.Marshal(rec)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal record %s", slug)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO price_records (slug, record, stale, updated_at) VALUES (?, ?, ?, ?)`,
			slug, string(recordJSON), boolToInt(rec.Stale), rec.LastUpdated.UTC(),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert record %s", slug)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit replace")
}

func (s *SQLiteStore) AppendSnapshot(ctx context.Context, snap model.HistorySnapshot) error {
	recordsJSON, err := json.Marshal(snap.Records)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal snapshot")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO history_snapshots (id, taken_at, records) VALUES (?, ?, ?)`,
		snap.ID, snap.TakenAt.UTC(), string(recordsJSON),
	)
	return eris.Wrap(err, "sqlite: append snapshot")
}

func (s *SQLiteStore) PruneSnapshots(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM history_snapshots WHERE taken_at < ?`, before.UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune snapshots")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) ListSnapshots(ctx context.Context, limit int) ([]model.HistorySnapshot, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, taken_at, records FROM history_snapshots ORDER BY taken_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list snapshots")
	}
	defer rows.Close()

	var snaps []model.HistorySnapshot
	for rows.Next() {
		var snap model.HistorySnapshot
		var recordsJSON string
		if err := rows.Scan(&snap.ID, &snap.TakenAt, &recordsJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan snapshot")
		}
		if err := json.Unmarshal([]byte(recordsJSON), &snap.Records); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal snapshot %s", snap.ID)
		}
		snaps = append(snaps, snap)
	}
	return snaps, eris.Wrap(rows.Err(), "sqlite: list snapshots iterate")
}

func (s *SQLiteStore) AppendErrors(ctx context.Context, errs []model.ErrorRecord) error {
	if len(errs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin append errors")
	}
	defer tx.Rollback()

	for _, e := range errs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO error_log (id, ts, variant_slug, stage, message) VALUES (?, ?, ?, ?, ?)`,
			e.ID, e.Timestamp.UTC(), e.VariantSlug, e.Stage, e.Message,
		); err != nil {
			return eris.Wrap(err, "sqlite: insert error record")
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit append errors")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
