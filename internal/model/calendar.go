package model

import "time"

// Confidence grades how reliably a fiscal year-end month was resolved.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// FiscalCalendar is an entity's resolved fiscal year-end.
// DominantMonth is zero when no annual filings were observed.
type FiscalCalendar struct {
	EntityID            string     `json:"entity_id"`
	DominantMonth       time.Month `json:"dominant_month"`
	Confidence          Confidence `json:"confidence"`
	SampleSize          int        `json:"sample_size"`
	DominantMonthPct    float64    `json:"dominant_month_pct"`
	FormsObserved       []string   `json:"forms_observed"`
	MostRecentPeriodEnd *time.Time `json:"most_recent_period_end,omitempty"`
}

// HasDominantMonth reports whether a fiscal year-end month was resolved.
func (c FiscalCalendar) HasDominantMonth() bool {
	return c.DominantMonth >= time.January && c.DominantMonth <= time.December
}
