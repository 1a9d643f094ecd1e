package model

import "time"

// FilingEvent is a single disclosure on an entity's point-in-time timeline.
type FilingEvent struct {
	EntityID     string       `json:"entity_id"`
	FilingDate   time.Time    `json:"filing_date"`
	PeriodEnd    time.Time    `json:"period_end"`
	Form         string       `json:"form"`
	FiscalYear   int          `json:"fiscal_year"`
	FiscalPeriod FiscalPeriod `json:"fiscal_period"`
	AccessionID  string       `json:"accession_id"`
	IsAmended    bool         `json:"is_amended"`
	// SupersededBy names the accession that replaced this one for the same
	// fiscal period. Empty for effective events.
	SupersededBy string       `json:"superseded_by,omitempty"`
}

// Effective reports whether no later filing replaced this one.
func (e FilingEvent) Effective() bool {
	return e.SupersededBy == ""
}

// PeriodKey identifies the fiscal period an event reports on.
type PeriodKey struct {
	FiscalYear   int
	FiscalPeriod FiscalPeriod
}

// Period returns the (fiscal_year, fiscal_period) the event covers.
func (e FilingEvent) Period() PeriodKey {
	return PeriodKey{FiscalYear: e.FiscalYear, FiscalPeriod: e.FiscalPeriod}
}

// Supersedes reports whether e replaces o for the same fiscal period:
// a later filing date wins, and on equal dates the larger accession wins.
func (e FilingEvent) Supersedes(o FilingEvent) bool {
	if !e.FilingDate.Equal(o.FilingDate) {
		return e.FilingDate.After(o.FilingDate)
	}
	return e.AccessionID > o.AccessionID
}

// MetricName identifies a trailing aggregate.
type MetricName string

const (
	RevenueTTM   MetricName = "Revenue_TTM"
	NetIncomeTTM MetricName = "NetIncome_TTM"
)

// TTMMetric is a trailing-twelve-month value anchored at its disclosure date.
type TTMMetric struct {
	EntityID   string     `json:"entity_id"`
	MetricName MetricName `json:"metric_name"`
	AsOfDate   time.Time  `json:"as_of_date"`
	PeriodEnd  time.Time  `json:"period_end"`
	Value      float64    `json:"value"`
	Unit       string     `json:"unit"`
	SourceForm string     `json:"source_form"`
	Concept    string     `json:"concept"`
	Accession  string     `json:"accession_id"`
}
