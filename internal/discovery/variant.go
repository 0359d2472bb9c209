package discovery

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/egphones/pricewatch/internal/extract"
	"github.com/egphones/pricewatch/internal/intent"
	"github.com/egphones/pricewatch/internal/match"
	"github.com/egphones/pricewatch/internal/model"
	"github.com/egphones/pricewatch/internal/resilience"
	"github.com/egphones/pricewatch/internal/score"
	"github.com/egphones/pricewatch/internal/validate"
	"github.com/egphones/pricewatch/pkg/jina"
)

// backendBreakerKey keys the shared breaker for queries not restricted to a
// single store.
const backendBreakerKey = "jina"

// variantOutcome is everything process produces for one variant.
type variantOutcome struct {
	state  model.VariantState
	record model.PriceRecord
	errors []model.ErrorRecord
}

// process drives one variant through the run state machine. It never
// returns an error: any failure path degrades to retaining the previous
// record (marked stale) or to an explicit empty record when none exists.
func (r *Runner) process(ctx context.Context, variant model.CanonicalVariant, prev model.PriceRecord, hadPrev bool) variantOutcome {
	log := zap.L().With(zap.String("variant", variant.Slug))

	out := variantOutcome{state: model.StatePending}

	out.state = model.StateQuerying
	results, searchErrs := r.collect(ctx, variant)
	out.errors = append(out.errors, searchErrs...)

	out.state = model.StateAggregating
	offers, aggErrs := r.aggregate(variant, results, referencePrice(prev, hadPrev))
	out.errors = append(out.errors, aggErrs...)

	// A variant that ran out of time never commits a partial record.
	timedOut := ctx.Err() != nil
	if timedOut {
		log.Warn("variant deadline exceeded", zap.String("stage", string(out.state)))
		offers = nil
	}

	if best, ok := bestOffer(offers, r.cfg.Discovery.CommitThreshold); ok {
		out.state = model.StateCommitted
		out.record = model.PriceRecord{
			PhoneSlug:   variant.Slug,
			Variant:     variant.Label(),
			Offers:      offers,
			BestPrice:   best.Price,
			BestStore:   best.Store,
			Stale:       false,
			LastUpdated: r.nowFunc(),
		}
		log.Info("variant committed",
			zap.Float64("best_price", best.Price),
			zap.String("best_store", best.Store),
			zap.Int("offers", len(offers)),
		)
		return out
	}

	out.state = model.StateRetainedStale
	if hadPrev {
		// Keep the last known good data rather than publishing nothing.
		out.record = prev
		out.record.Stale = true
		log.Warn("variant retained stale record",
			zap.Bool("timed_out", timedOut),
			zap.Int("rejected_offers", len(offers)),
		)
		return out
	}

	// First sighting with no usable offers: record the absence explicitly
	// so readers can tell "never priced" from "missing".
	out.record = model.PriceRecord{
		PhoneSlug:   variant.Slug,
		Variant:     variant.Label(),
		Offers:      []model.Offer{},
		Stale:       true,
		LastUpdated: r.nowFunc(),
	}
	log.Warn("variant has no price data", zap.Bool("timed_out", timedOut))
	return out
}

// collect issues every generated query through its store breaker with
// bounded retries and gathers the raw search results. Query failures are
// logged per query and do not stop the remaining queries.
func (r *Runner) collect(ctx context.Context, variant model.CanonicalVariant) ([]model.SearchResult, []model.ErrorRecord) {
	queries := intent.Queries(variant, r.cfg.Discovery)

	retryCfg := resilience.RetryConfig{
		MaxAttempts:    r.cfg.Search.MaxAttempts,
		InitialBackoff: r.cfg.Search.InitialBackoff,
		MaxBackoff:     r.cfg.Search.MaxBackoff,
	}

	var results []model.SearchResult
	var errs []model.ErrorRecord

	for _, q := range queries {
		if ctx.Err() != nil {
			break
		}

		key := q.Store
		if key == "" {
			key = backendBreakerKey
		}
		breaker := r.breakers.Get(key)

		cfg := retryCfg
		cfg.OnRetry = resilience.RetryLogger(key, q.Text)

		resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*jina.SearchResponse, error) {
			return resilience.ExecuteVal(ctx, breaker, func(ctx context.Context) (*jina.SearchResponse, error) {
				return r.search.Search(ctx, q.Text)
			})
		})
		if err != nil {
			errs = append(errs, r.errorRecord(variant.Slug, model.StageSearch, err))
			zap.L().Warn("search query failed",
				zap.String("variant", variant.Slug),
				zap.String("store", key),
				zap.String("query", q.Text),
				zap.Error(err),
			)
			continue
		}

		limit := r.cfg.Search.MaxResults
		for i, hit := range resp.Data {
			if limit > 0 && i >= limit {
				break
			}
			snippet := hit.Description
			if snippet == "" {
				snippet = hit.Content
			}
			results = append(results, model.SearchResult{
				Title:       hit.Title,
				Snippet:     snippet,
				URL:         hit.URL,
				SourceQuery: q.Text,
			})
		}
	}

	return results, errs
}

// scoredCandidate pairs an accepted candidate with its match verdict while
// aggregation decides corroboration and outliers.
type scoredCandidate struct {
	cand model.ExtractedCandidate
	m    model.MatchResult
}

// aggregate turns raw search results into deduplicated, ranked offers.
func (r *Runner) aggregate(variant model.CanonicalVariant, results []model.SearchResult, refPrice *float64) ([]model.Offer, []model.ErrorRecord) {
	var errs []model.ErrorRecord
	var accepted []scoredCandidate

	for _, res := range results {
		cand := extract.Candidate(res.Title, res.Snippet, res.URL)
		cand.SourceQuery = res.SourceQuery
		if cand.Empty() {
			errs = append(errs, r.errorRecordMsg(variant.Slug, model.StageExtraction,
				"no fields extracted from result: "+res.URL))
			continue
		}
		if cand.PriceAmount == 0 {
			continue
		}

		m := match.Match(cand, variant)
		if m.Similarity == 0 {
			continue
		}

		if verdict := validate.Offer(cand, variant, refPrice, r.cfg.Validation); !verdict.Accepted {
			continue
		}

		accepted = append(accepted, scoredCandidate{cand: cand, m: m})
	}

	prices := make([]float64, len(accepted))
	for i, a := range accepted {
		prices[i] = a.cand.PriceAmount
	}

	offers := make([]model.Offer, 0, len(accepted))
	for i, a := range accepted {
		in := score.Input{
			Match:          a.m,
			Candidate:      a.cand,
			Variant:        variant,
			Corroborations: corroborations(accepted, i, r.cfg.Scoring.PriceTolerance),
			Outlier:        validate.MedianOutlier(a.cand.PriceAmount, peersExcept(prices, i)),
		}
		confidence, level, rules := score.Confidence(in, r.cfg.Scoring)

		offers = append(offers, model.Offer{
			Store:           a.cand.StoreName,
			Price:           a.cand.PriceAmount,
			Currency:        a.cand.Currency,
			URL:             a.cand.SourceURL,
			Confidence:      confidence,
			ConfidenceLevel: level,
			ScoringRules:    rules,
			Availability:    a.cand.Availability,
			ScrapedAt:       r.nowFunc(),
		})
	}

	return rankOffers(dedupeOffers(offers)), errs
}

// corroborations counts distinct other sources reporting a price within
// tolerance of candidate i.
func corroborations(accepted []scoredCandidate, i int, tolerance float64) int {
	self := accepted[i]
	count := 0
	seen := make(map[string]struct{})
	for j, other := range accepted {
		if j == i || other.cand.SourceURL == self.cand.SourceURL {
			continue
		}
		if _, dup := seen[other.cand.SourceURL]; dup {
			continue
		}
		if withinTolerance(self.cand.PriceAmount, other.cand.PriceAmount, tolerance) {
			seen[other.cand.SourceURL] = struct{}{}
			count++
		}
	}
	return count
}

func withinTolerance(a, b, tolerance float64) bool {
	if a <= 0 || b <= 0 {
		return false
	}
	diff := (a - b) / a
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

func peersExcept(prices []float64, i int) []float64 {
	peers := make([]float64, 0, len(prices)-1)
	for j, p := range prices {
		if j != i {
			peers = append(peers, p)
		}
	}
	return peers
}

// dedupeOffers collapses offers with the same store and price, keeping the
// higher-confidence one.
func dedupeOffers(offers []model.Offer) []model.Offer {
	type key struct {
		store string
		price float64
	}
	best := make(map[key]model.Offer, len(offers))
	order := make([]key, 0, len(offers))
	for _, o := range offers {
		k := key{store: o.Store, price: o.Price}
		existing, ok := best[k]
		if !ok {
			order = append(order, k)
			best[k] = o
			continue
		}
		if o.Confidence > existing.Confidence {
			best[k] = o
		}
	}

	out := make([]model.Offer, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	return out
}

// rankOffers orders offers by confidence descending, then price ascending,
// then store name for a stable total order.
func rankOffers(offers []model.Offer) []model.Offer {
	sort.SliceStable(offers, func(i, j int) bool {
		a, b := offers[i], offers[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		return a.Store < b.Store
	})
	return offers
}

// bestOffer picks the cheapest offer among those clearing the commit
// threshold, breaking price ties by store name. A record commits only when
// at least one offer qualifies.
func bestOffer(offers []model.Offer, threshold float64) (model.Offer, bool) {
	var best model.Offer
	found := false
	for _, o := range offers {
		if o.Confidence < threshold {
			continue
		}
		if !found || o.Price < best.Price || (o.Price == best.Price && o.Store < best.Store) {
			best = o
			found = true
		}
	}
	return best, found
}

// referencePrice derives the validation band anchor from the previous
// record: the median of its offer prices, falling back to the recorded best
// price. No history means no band.
func referencePrice(prev model.PriceRecord, hadPrev bool) *float64 {
	if !hadPrev {
		return nil
	}

	prices := make([]float64, 0, len(prev.Offers))
	for _, o := range prev.Offers {
		if o.Price > 0 {
			prices = append(prices, o.Price)
		}
	}
	if len(prices) == 0 {
		if prev.BestPrice > 0 {
			ref := prev.BestPrice
			return &ref
		}
		return nil
	}

	sort.Float64s(prices)
	n := len(prices)
	median := prices[n/2]
	if n%2 == 0 {
		median = (prices[n/2-1] + prices[n/2]) / 2
	}
	return &median
}

func (r *Runner) errorRecord(slug, stage string, err error) model.ErrorRecord {
	return r.errorRecordMsg(slug, stage, err.Error())
}

func (r *Runner) errorRecordMsg(slug, stage, msg string) model.ErrorRecord {
	return model.ErrorRecord{
		ID:          r.newID(),
		Timestamp:   r.nowFunc(),
		VariantSlug: slug,
		Stage:       stage,
		Message:     msg,
	}
}
