package model

import "time"

// CanonicalVariant is a specific brand/model/storage/RAM combination treated
// as a first-class priced entity. Variants are supplied by the external specs
// catalog and are never mutated by the discovery engine. Slug is the primary
// key and is never regenerated once assigned.
type CanonicalVariant struct {
	Brand       string `json:"brand"`
	Model       string `json:"model"`
	Slug        string `json:"slug"`
	Storage     string `json:"storage"`
	RAM         string `json:"ram,omitempty"`
	ReleaseYear int    `json:"release_year,omitempty"`
}

// Label returns the human-readable variant label, e.g. "12GB/256GB".
func (v CanonicalVariant) Label() string {
	if v.RAM == "" {
		return v.Storage
	}
	return v.RAM + "/" + v.Storage
}

// SearchResult is one raw, untrusted search hit returned by the search
// collaborator for a generated query.
type SearchResult struct {
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	URL         string `json:"url"`
	SourceQuery string `json:"source_query"`
}

// Text returns the combined title+snippet text the extraction rules run over.
func (r SearchResult) Text() string {
	if r.Snippet == "" {
		return r.Title
	}
	return r.Title + " " + r.Snippet
}

// Availability values carried on offers.
const (
	AvailabilityInStock    = "in_stock"
	AvailabilityOutOfStock = "out_of_stock"
	AvailabilityUnknown    = "unknown"
)

// PriceMention is a single price candidate extracted from raw text.
// Qualified is true when the amount was adjacent to an explicit currency
// marker rather than inferred from a price-context keyword.
type PriceMention struct {
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Qualified bool    `json:"qualified"`
	Position  int     `json:"position"`
}

// ExtractedCandidate holds the structured fields recovered from one search
// result. Any field may be missing; a zero PriceAmount means no price was
// found. Extraction never fails; empty input yields an empty candidate.
type ExtractedCandidate struct {
	PriceAmount      float64        `json:"price_amount,omitempty"`
	Currency         string         `json:"currency,omitempty"`
	Prices           []PriceMention `json:"prices,omitempty"`
	Storage          string         `json:"storage,omitempty"`
	RAM              string         `json:"ram,omitempty"`
	StoreName        string         `json:"store_name,omitempty"`
	IsAccessory      bool           `json:"is_accessory"`
	IsRefurbished    bool           `json:"is_refurbished"`
	MentionsOfficial bool           `json:"mentions_official"`
	Availability     string         `json:"availability,omitempty"`
	RawText          string         `json:"raw_text"`
	SourceURL        string         `json:"source_url,omitempty"`
	SourceQuery      string         `json:"source_query,omitempty"`
}

// Empty reports whether extraction recovered nothing usable from the text.
func (c ExtractedCandidate) Empty() bool {
	return c.PriceAmount == 0 && c.Storage == "" && c.RAM == "" && c.StoreName == ""
}

// MatchResult is the similarity verdict between one extracted candidate and
// one canonical variant.
type MatchResult struct {
	VariantSlug  string  `json:"variant_slug"`
	Similarity   float64 `json:"similarity"`
	StorageExact bool    `json:"storage_exact"`
	BrandRatio   float64 `json:"brand_ratio"`
	ModelRatio   float64 `json:"model_ratio"`
}

// ConfidenceLevel is the discretized confidence bucket for an offer.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// Offer is one validated, scored price observation for a variant from one
// store. Offers exist only for candidates that passed validation.
type Offer struct {
	Store           string          `json:"store"`
	Price           float64         `json:"price"`
	Currency        string          `json:"currency"`
	URL             string          `json:"url"`
	Confidence      float64         `json:"confidence"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`
	ScoringRules    []ScoringRule   `json:"scoring_rules"`
	Availability    string          `json:"availability"`
	ScrapedAt       time.Time       `json:"scraped_at"`
}

// PriceRecord is the long-lived per-variant artifact. It is rewritten
// atomically once per pipeline run; Stale marks a record carried over from a
// prior successful cycle rather than freshly confirmed.
type PriceRecord struct {
	PhoneSlug   string    `json:"phone_slug"`
	Variant     string    `json:"variant"`
	Offers      []Offer   `json:"offers"`
	BestPrice   float64   `json:"best_price,omitempty"`
	BestStore   string    `json:"best_store,omitempty"`
	Stale       bool      `json:"stale"`
	LastUpdated time.Time `json:"last_updated"`
}

// HistorySnapshot is a dated, immutable copy of the full PriceRecord set.
// Snapshots are append-only and pruned after the retention window.
type HistorySnapshot struct {
	ID      string                 `json:"id"`
	TakenAt time.Time              `json:"taken_at"`
	Records map[string]PriceRecord `json:"records"`
}

// ErrorRecord is one entry in the append-only error log artifact for
// non-fatal failures.
type ErrorRecord struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	VariantSlug string    `json:"variant_slug"`
	Stage       string    `json:"stage"`
	Message     string    `json:"message"`
}

// Pipeline stages recorded in ErrorRecord entries.
const (
	StageSearch     = "search"
	StageExtraction = "extraction"
	StageAggregate  = "aggregate"
	StagePersist    = "persist"
)
