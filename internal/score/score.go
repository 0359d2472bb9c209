// Package score turns a match verdict and its extracted signals into a
// confidence score, level, and the list of adjustments that produced it.
package score

import (
	"strings"

	"github.com/egphones/pricewatch/internal/config"
	"github.com/egphones/pricewatch/internal/model"
)

// Input carries the aggregation-time signals the scorer needs beyond the
// candidate itself. Corroborations counts independent sources that reported
// a price within tolerance of this one; Outlier marks a price that deviates
// sharply from its peers in the same run.
type Input struct {
	Match          model.MatchResult
	Candidate      model.ExtractedCandidate
	Variant        model.CanonicalVariant
	Corroborations int
	Outlier        bool
}

// Confidence computes the final score for a validation-accepted candidate.
// The base is the match similarity; adjustments apply in a fixed order and
// each applied rule is recorded so the stored offer explains itself. The
// result is clamped to [0,1].
func Confidence(in Input, cfg config.ScoringConfig) (float64, model.ConfidenceLevel, []model.ScoringRule) {
	score := in.Match.Similarity
	var rules []model.ScoringRule

	if trustedStore(in.Candidate.StoreName, cfg.TrustedStores) {
		score += cfg.TrustedStoreBonus
		rules = append(rules, model.ScoreTrustedStore)
	}

	if capacityExact(in) {
		score += cfg.ExactCapacityBonus
		rules = append(rules, model.ScoreExactCapacity)
	}

	if in.Corroborations >= 2 {
		score += cfg.CorroborationBonus
		rules = append(rules, model.ScoreCorroborated)
	}

	if in.Candidate.MentionsOfficial {
		score += cfg.OfficialBonus
		rules = append(rules, model.ScoreOfficial)
	}

	if in.Candidate.IsAccessory {
		score -= cfg.AccessoryPenalty
		rules = append(rules, model.ScoreAccessory)
	}

	if in.Candidate.IsRefurbished {
		score -= cfg.RefurbishedPenalty
		rules = append(rules, model.ScoreRefurbished)
	}

	if in.Outlier {
		score -= cfg.OutlierPenalty
		rules = append(rules, model.ScoreOutlierPrice)
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return score, Level(score, cfg), rules
}

// Level buckets a score into high/medium/low.
func Level(score float64, cfg config.ScoringConfig) model.ConfidenceLevel {
	switch {
	case score >= cfg.HighThreshold:
		return model.ConfidenceHigh
	case score >= cfg.MediumThreshold:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

func trustedStore(store string, trusted []string) bool {
	if store == "" {
		return false
	}
	for _, s := range trusted {
		if strings.EqualFold(store, s) {
			return true
		}
	}
	return false
}

// capacityExact requires an exact storage match, and an exact RAM match
// whenever both sides state one.
func capacityExact(in Input) bool {
	if !in.Match.StorageExact {
		return false
	}
	if in.Candidate.RAM != "" && in.Variant.RAM != "" && in.Candidate.RAM != in.Variant.RAM {
		return false
	}
	return true
}
