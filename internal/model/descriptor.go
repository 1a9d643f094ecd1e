package model

// StatementType names the financial statement a concept is reported on.
type StatementType string

const (
	StatementBalanceSheet StatementType = "Balance Sheet"
	StatementIncome       StatementType = "Income Statement"
	StatementCashFlow     StatementType = "Cash Flow Statement"
	StatementDocument     StatementType = "Document & Entity Information"
	StatementOther        StatementType = "Other/Footnotes"
)

// TemporalNature distinguishes instant snapshots from cumulative durations.
type TemporalNature string

const (
	PointInTime TemporalNature = "PointInTime"
	Period      TemporalNature = "Period"
)

// NatureOf returns the temporal nature implied by a statement type.
// Balance sheet values are instants; everything else accumulates over a span.
func NatureOf(st StatementType) TemporalNature {
	if st == StatementBalanceSheet {
		return PointInTime
	}
	return Period
}

// Tier buckets a concept by how widely it is reported across entities.
type Tier string

const (
	TierUniversal  Tier = "universal"
	TierVeryCommon Tier = "very_common"
	TierCommon     Tier = "common"
	TierModerate   Tier = "moderate"
	TierRare       Tier = "rare"
	TierVeryRare   Tier = "very_rare"
)

// FieldDescriptor is the reference classification of a single concept.
type FieldDescriptor struct {
	ConceptName     string         `json:"concept_name" yaml:"concept_name"`
	Taxonomy        string         `json:"taxonomy" yaml:"taxonomy"`
	Label           string         `json:"label,omitempty" yaml:"label,omitempty"`
	StatementType   StatementType  `json:"statement_type" yaml:"statement_type"`
	TemporalNature  TemporalNature `json:"temporal_nature" yaml:"temporal_nature"`
	AvailabilityPct float64        `json:"availability_pct" yaml:"availability_pct"`
	Tier            Tier           `json:"tier" yaml:"tier"`
	PriorityScore   float64        `json:"priority_score" yaml:"priority_score"`
	IsCritical      bool           `json:"is_critical" yaml:"is_critical"`
	Deprecated      bool           `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
}
