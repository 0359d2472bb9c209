// Package discovery orchestrates price discovery runs: per-variant search,
// extraction, matching, validation, scoring, aggregation, and atomic
// persistence with last-known-good retention.
package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/egphones/pricewatch/internal/config"
	"github.com/egphones/pricewatch/internal/model"
	"github.com/egphones/pricewatch/internal/resilience"
	"github.com/egphones/pricewatch/internal/store"
	"github.com/egphones/pricewatch/pkg/jina"
)

// RunSummary reports what one discovery run did.
type RunSummary struct {
	RunID          string        `json:"run_id"`
	Variants       int           `json:"variants"`
	Committed      int           `json:"committed"`
	RetainedStale  int           `json:"retained_stale"`
	OffersFound    int           `json:"offers_found"`
	HighConfidence int           `json:"high_confidence"`
	Errors         int           `json:"errors"`
	Duration       time.Duration `json:"duration"`
}

// Runner executes discovery runs. It is the single writer of the price
// record store.
type Runner struct {
	cfg      *config.Config
	store    store.Store
	search   jina.Client
	breakers *resilience.StoreBreakers

	// nowFunc and newID allow deterministic tests.
	nowFunc func() time.Time
	newID   func() string
}

// NewRunner wires a Runner from its collaborators.
func NewRunner(cfg *config.Config, st store.Store, search jina.Client) *Runner {
	return &Runner{
		cfg:    cfg,
		store:  st,
		search: search,
		breakers: resilience.NewStoreBreakers(resilience.BreakerConfig{
			FailureThreshold: cfg.Breaker.FailureThreshold,
			RecoveryTimeout:  cfg.Breaker.RecoveryTimeout,
		}),
		nowFunc: time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// Run processes every variant through the discovery state machine, then
// atomically replaces the persisted record set, appends a history snapshot,
// and prunes expired snapshots. Per-variant failures are non-fatal and
// land in the error log; persistence failures abort the run and leave the
// previous data intact.
func (r *Runner) Run(ctx context.Context, variants []model.CanonicalVariant) (*RunSummary, error) {
	started := r.nowFunc()
	summary := &RunSummary{RunID: r.newID(), Variants: len(variants)}
	log := zap.L().With(zap.String("run_id", summary.RunID))

	previous, err := r.store.LoadRecords(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "discovery: load previous records")
	}

	var mu sync.Mutex
	results := make(map[string]model.PriceRecord, len(variants))
	var errLog []model.ErrorRecord

	workers := r.cfg.Discovery.Workers
	if workers <= 0 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, variant := range variants {
		variant := variant
		g.Go(func() error {
			prev, hadPrev := previous[variant.Slug]

			vctx := gctx
			var cancel context.CancelFunc
			if r.cfg.Discovery.VariantTimeout > 0 {
				vctx, cancel = context.WithTimeout(gctx, r.cfg.Discovery.VariantTimeout)
				defer cancel()
			}

			outcome := r.process(vctx, variant, prev, hadPrev)

			mu.Lock()
			defer mu.Unlock()
			results[variant.Slug] = outcome.record
			errLog = append(errLog, outcome.errors...)
			switch outcome.state {
			case model.StateCommitted:
				summary.Committed++
				summary.OffersFound += len(outcome.record.Offers)
				for _, o := range outcome.record.Offers {
					if o.ConfidenceLevel == model.ConfidenceHigh {
						summary.HighConfidence++
					}
				}
			case model.StateRetainedStale:
				summary.RetainedStale++
			}
			return nil
		})
	}

	// Workers only report through the shared maps; the group error is
	// always nil unless the parent context died.
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "discovery: worker pool")
	}

	if err := r.store.ReplaceRecords(ctx, results); err != nil {
		return nil, eris.Wrap(err, "discovery: replace records")
	}

	snapshot := model.HistorySnapshot{
		ID:      r.newID(),
		TakenAt: r.nowFunc(),
		Records: results,
	}
	if err := r.store.AppendSnapshot(ctx, snapshot); err != nil {
		return nil, eris.Wrap(err, "discovery: append snapshot")
	}

	cutoff := r.nowFunc().AddDate(0, 0, -r.cfg.Discovery.RetentionDays)
	pruned, err := r.store.PruneSnapshots(ctx, cutoff)
	if err != nil {
		return nil, eris.Wrap(err, "discovery: prune snapshots")
	}

	if err := r.store.AppendErrors(ctx, errLog); err != nil {
		return nil, eris.Wrap(err, "discovery: append error log")
	}

	summary.Errors = len(errLog)
	summary.Duration = r.nowFunc().Sub(started)

	log.Info("discovery run complete",
		zap.Int("variants", summary.Variants),
		zap.Int("committed", summary.Committed),
		zap.Int("retained_stale", summary.RetainedStale),
		zap.Int("offers", summary.OffersFound),
		zap.Int("high_confidence", summary.HighConfidence),
		zap.Int("errors", summary.Errors),
		zap.Int("snapshots_pruned", pruned),
		zap.Duration("duration", summary.Duration),
	)

	return summary, nil
}
