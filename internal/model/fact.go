package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// DateLayout is the calendar date format used by EDGAR and by persisted rows.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "model: parse date %q", s)
	}
	return t, nil
}

// MustDate parses a date and panics on failure. Intended for fixtures and constants.
func MustDate(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// FiscalPeriod is one of the four fiscal quarters or the full fiscal year.
type FiscalPeriod string

const (
	FiscalQ1 FiscalPeriod = "Q1"
	FiscalQ2 FiscalPeriod = "Q2"
	FiscalQ3 FiscalPeriod = "Q3"
	FiscalQ4 FiscalPeriod = "Q4"
	FiscalFY FiscalPeriod = "FY"
)

// ParseFiscalPeriod normalizes a raw fiscal period designation.
func ParseFiscalPeriod(s string) (FiscalPeriod, bool) {
	switch p := FiscalPeriod(strings.ToUpper(strings.TrimSpace(s))); p {
	case FiscalQ1, FiscalQ2, FiscalQ3, FiscalQ4, FiscalFY:
		return p, true
	default:
		return "", false
	}
}

// IsQuarter reports whether p is Q1 through Q4.
func (p FiscalPeriod) IsQuarter() bool {
	return p == FiscalQ1 || p == FiscalQ2 || p == FiscalQ3 || p == FiscalQ4
}

// FinancialFact is a normalized, period-aware data point with its disclosure date.
type FinancialFact struct {
	EntityID       string         `json:"entity_id"`
	ConceptName    string         `json:"concept_name"`
	Taxonomy       string         `json:"taxonomy"`
	StatementType  StatementType  `json:"statement_type"`
	TemporalNature TemporalNature `json:"temporal_nature"`
	PeriodStart    *time.Time     `json:"period_start,omitempty"`
	PeriodEnd      time.Time      `json:"period_end"`
	Value          float64        `json:"value"`
	Unit           string         `json:"unit"`
	FilingDate     time.Time      `json:"filing_date"`
	AvailableAsOf  time.Time      `json:"available_as_of"`
	FiscalYear     int            `json:"fiscal_year"`
	FiscalPeriod   FiscalPeriod   `json:"fiscal_period"`
	Form           string         `json:"form"`
	IsAmended      bool           `json:"is_amended"`
	PriorityScore  float64        `json:"priority_score"`
	AccessionID    string         `json:"accession_id"`
	Frame          string         `json:"frame,omitempty"`
}

// FactKey is the identity of a FinancialFact for upserts.
type FactKey struct {
	EntityID     string
	ConceptName  string
	PeriodEnd    time.Time
	FiscalPeriod FiscalPeriod
	Unit         string
	AccessionID  string
}

// Key returns the fact's identity tuple.
func (f FinancialFact) Key() FactKey {
	return FactKey{
		EntityID:     f.EntityID,
		ConceptName:  f.ConceptName,
		PeriodEnd:    f.PeriodEnd,
		FiscalPeriod: f.FiscalPeriod,
		Unit:         f.Unit,
		AccessionID:  f.AccessionID,
	}
}

// Less orders keys field by field so fact sets can be emitted deterministically.
func (k FactKey) Less(o FactKey) bool {
	if k.EntityID != o.EntityID {
		return k.EntityID < o.EntityID
	}
	if k.ConceptName != o.ConceptName {
		return k.ConceptName < o.ConceptName
	}
	if !k.PeriodEnd.Equal(o.PeriodEnd) {
		return k.PeriodEnd.Before(o.PeriodEnd)
	}
	if k.FiscalPeriod != o.FiscalPeriod {
		return k.FiscalPeriod < o.FiscalPeriod
	}
	if k.Unit != o.Unit {
		return k.Unit < o.Unit
	}
	return k.AccessionID < o.AccessionID
}
