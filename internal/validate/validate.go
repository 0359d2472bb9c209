// Package validate applies the deterministic rejection rules that decide
// whether an extracted candidate may become an Offer.
package validate

import (
	"sort"

	"github.com/egphones/pricewatch/internal/config"
	"github.com/egphones/pricewatch/internal/model"
)

// Offer evaluates every rejection rule in fixed order and records all
// violations rather than stopping at the first, so diagnostics show the
// complete picture. refPrice is the historical reference for the variant;
// nil disables the price-band rule. A candidate is accepted only when no
// rule fires.
func Offer(
	cand model.ExtractedCandidate,
	variant model.CanonicalVariant,
	refPrice *float64,
	cfg config.ValidationConfig,
) model.ValidationVerdict {
	var violated []model.ValidationRule

	if cand.IsAccessory {
		violated = append(violated, model.RuleAccessory)
	}

	if cand.IsRefurbished {
		violated = append(violated, model.RuleRefurbished)
	}

	// The matcher already caps storage mismatches; this duplicates the
	// check so a bad match can never slip through scoring.
	if capacityMismatch(cand, variant) {
		violated = append(violated, model.RuleCapacityMismatch)
	}

	if refPrice != nil && cand.PriceAmount > 0 {
		low := *refPrice * cfg.PriceBandLow
		high := *refPrice * cfg.PriceBandHigh
		if cand.PriceAmount < low || cand.PriceAmount > high {
			violated = append(violated, model.RulePriceOutOfBand)
		}
	}

	return model.ValidationVerdict{
		Accepted: len(violated) == 0,
		Violated: violated,
	}
}

func capacityMismatch(cand model.ExtractedCandidate, variant model.CanonicalVariant) bool {
	if cand.Storage != "" && variant.Storage != "" && cand.Storage != variant.Storage {
		return true
	}
	if cand.RAM != "" && variant.RAM != "" && cand.RAM != variant.RAM {
		return true
	}
	return false
}

// Outlier deviation is measured against the run's own price population,
// not the historical reference, so the penalty still applies when no
// previous record exists.
const maxMedianDeviation = 0.5

// MedianOutlier reports whether a price deviates more than 50% from the
// median of its peers. Fewer than two peers is too little data to call
// anything an outlier.
func MedianOutlier(price float64, peers []float64) bool {
	if price <= 0 || len(peers) < 2 {
		return false
	}

	sorted := make([]float64, len(peers))
	copy(sorted, peers)
	sort.Float64s(sorted)

	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	if median <= 0 {
		return false
	}

	deviation := (price - median) / median
	if deviation < 0 {
		deviation = -deviation
	}
	return deviation > maxMedianDeviation
}
