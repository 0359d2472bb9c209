package model

// ValidationRule names one deterministic rejection rule. The set is closed:
// the validator evaluates every rule in declaration order and records all
// violations rather than short-circuiting.
type ValidationRule string

const (
	RuleAccessory        ValidationRule = "accessory"
	RuleRefurbished      ValidationRule = "refurbished"
	RuleCapacityMismatch ValidationRule = "capacity_mismatch"
	RulePriceOutOfBand   ValidationRule = "price_out_of_band"
)

// AllValidationRules lists every rule in evaluation order.
var AllValidationRules = []ValidationRule{
	RuleAccessory,
	RuleRefurbished,
	RuleCapacityMismatch,
	RulePriceOutOfBand,
}

// ValidationVerdict is the outcome of running all validation rules over a
// candidate. Accepted is true only when Violated is empty.
type ValidationVerdict struct {
	Accepted bool             `json:"accepted"`
	Violated []ValidationRule `json:"violated_rules,omitempty"`
}

// ScoringRule labels one confidence adjustment applied by the scorer. The
// enumeration is closed so that every consumer can handle the full set.
type ScoringRule string

const (
	ScoreTrustedStore  ScoringRule = "trusted_store"
	ScoreExactCapacity ScoringRule = "exact_capacity_match"
	ScoreCorroborated  ScoringRule = "corroborated_price"
	ScoreOfficial      ScoringRule = "official_mention"
	ScoreAccessory     ScoringRule = "accessory_penalty"
	ScoreRefurbished   ScoringRule = "refurbished_penalty"
	ScoreOutlierPrice  ScoringRule = "outlier_price_penalty"
)

// VariantState tracks a variant through one pipeline run.
type VariantState string

const (
	StatePending       VariantState = "pending"
	StateQuerying      VariantState = "querying"
	StateAggregating   VariantState = "aggregating"
	StateCommitted     VariantState = "committed"
	StateRetainedStale VariantState = "retained_stale"
)
