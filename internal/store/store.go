// Package store persists price records, history snapshots, and the
// append-only error log.
package store

import (
	"context"
	"sort"
	"time"

	"github.com/egphones/pricewatch/internal/model"
)

// Store defines the persistence interface for the discovery pipeline.
// Records are keyed by variant slug. The pipeline is the single writer;
// ReplaceRecords swaps the full record set in one transaction so readers
// only ever observe a complete, consistent snapshot.
type Store interface {
	// Records
	LoadRecords(ctx context.Context) (map[string]model.PriceRecord, error)
	ReplaceRecords(ctx context.Context, records map[string]model.PriceRecord) error

	// History
	AppendSnapshot(ctx context.Context, snap model.HistorySnapshot) error
	PruneSnapshots(ctx context.Context, before time.Time) (int, error)
	ListSnapshots(ctx context.Context, limit int) ([]model.HistorySnapshot, error)

	// Error log
	AppendErrors(ctx context.Context, errs []model.ErrorRecord) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// sortedSlugs returns record keys in lexicographic order so writes are
// deterministic across runs.
func sortedSlugs(records map[string]model.PriceRecord) []string {
	slugs := make([]string, 0, len(records))
	for slug := range records {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}
