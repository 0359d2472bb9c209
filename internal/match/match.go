// Package match scores how well an extracted candidate corresponds to a
// canonical variant using normalized token-set similarity.
package match

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/egphones/pricewatch/internal/model"
	"github.com/egphones/pricewatch/internal/normalize"
)

const (
	brandWeight = 0.4
	modelWeight = 0.6

	// A storage mismatch is near-disqualifying regardless of how well the
	// text matches.
	storageMismatchCap = 0.3

	// Below this brand ratio the candidate is about a different
	// manufacturer entirely.
	brandFloor = 0.6
)

var tokenSplitRe = regexp.MustCompile(`[^a-z0-9]+`)

// Match computes the similarity verdict between one candidate and one
// variant. Similarity is the weighted combination of brand and model token
// ratios, capped at 0.3 on a storage mismatch and forced to 0 when the
// brand ratio falls below 0.6.
func Match(cand model.ExtractedCandidate, variant model.CanonicalVariant) model.MatchResult {
	textTokens := tokenize(cand.RawText)

	brandRatio := setRatio(tokenize(normalize.Brand(variant.Brand)), textTokens)
	modelRatio := setRatio(tokenize(normalize.Model(variant.Model)), textTokens)

	similarity := brandWeight*brandRatio + modelWeight*modelRatio

	storageExact := cand.Storage != "" && cand.Storage == variant.Storage
	if cand.Storage != "" && cand.Storage != variant.Storage && similarity > storageMismatchCap {
		similarity = storageMismatchCap
	}
	if brandRatio < brandFloor {
		similarity = 0
	}

	return model.MatchResult{
		VariantSlug:  variant.Slug,
		Similarity:   similarity,
		StorageExact: storageExact,
		BrandRatio:   brandRatio,
		ModelRatio:   modelRatio,
	}
}

// Best maps a candidate to the single most plausible variant. Ties on
// similarity are broken by exact storage match, then by shorter edit
// distance from the candidate text to the variant model, then by
// lexicographic slug order so results are deterministic. The second return
// is false when no variant matches at all.
func Best(cand model.ExtractedCandidate, variants []model.CanonicalVariant) (model.MatchResult, bool) {
	if len(variants) == 0 {
		return model.MatchResult{}, false
	}

	type scored struct {
		result    model.MatchResult
		modelDist int
	}

	lowerText := strings.ToLower(cand.RawText)
	candidates := make([]scored, 0, len(variants))
	for _, v := range variants {
		candidates = append(candidates, scored{
			result:    Match(cand, v),
			modelDist: levenshtein.Distance(strings.ToLower(normalize.Model(v.Model)), lowerText, nil),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.result.Similarity != b.result.Similarity {
			return a.result.Similarity > b.result.Similarity
		}
		if a.result.StorageExact != b.result.StorageExact {
			return a.result.StorageExact
		}
		if a.modelDist != b.modelDist {
			return a.modelDist < b.modelDist
		}
		return a.result.VariantSlug < b.result.VariantSlug
	})

	best := candidates[0].result
	if best.Similarity == 0 {
		return best, false
	}
	return best, true
}

func tokenize(s string) []string {
	parts := tokenSplitRe.Split(strings.ToLower(s), -1)
	tokens := parts[:0]
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// setRatio measures how completely the target tokens appear in the text,
// order-independent. Each target token contributes its best normalized
// similarity against any text token; the ratio is the mean contribution.
func setRatio(target, text []string) float64 {
	if len(target) == 0 || len(text) == 0 {
		return 0
	}

	var total float64
	for _, want := range target {
		best := 0.0
		for _, got := range text {
			if sim := levenshtein.Similarity(want, got, nil); sim > best {
				best = sim
				if best == 1.0 {
					break
				}
			}
		}
		total += best
	}
	return total / float64(len(target))
}
