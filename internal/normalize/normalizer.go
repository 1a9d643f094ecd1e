// Package normalize turns raw reported instances into period-aware financial
// facts carrying their public-availability date.
package normalize

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sells-group/pitfacts/internal/model"
	"github.com/sells-group/pitfacts/internal/xbrl"
)

// Reason explains why a raw fact was discarded. Empty means accepted.
type Reason string

const (
	ReasonMissingValue        Reason = "missing_value"
	ReasonNonNumeric          Reason = "non_numeric_value"
	ReasonMissingUnit         Reason = "missing_unit"
	ReasonMissingPeriodEnd    Reason = "missing_period_end"
	ReasonBadDate             Reason = "bad_date"
	ReasonMissingFilingDate   Reason = "missing_filing_date"
	ReasonUnknownFiscalPeriod Reason = "unknown_fiscal_period"
)

// Classifier supplies the classification for a concept reported under taxonomy.
type Classifier interface {
	Classify(taxonomy, concept string) model.FieldDescriptor
}

// Config sets the approximate durations used when a period fact has no start date.
type Config struct {
	AnnualDays  int
	QuarterDays int
}

// DefaultConfig returns 365 days for a fiscal year and 91 for a quarter.
func DefaultConfig() Config {
	return Config{AnnualDays: 365, QuarterDays: 91}
}

// Normalizer converts raw facts. It is stateless apart from its pinned classifier.
type Normalizer struct {
	classifier Classifier
	cfg        Config
}

// New creates a Normalizer.
func New(classifier Classifier, cfg Config) *Normalizer {
	return &Normalizer{classifier: classifier, cfg: cfg}
}

// Normalize converts one raw fact for entityID. A non-empty Reason means the
// fact was discarded and the returned FinancialFact must be ignored.
func (n *Normalizer) Normalize(raw xbrl.RawFact, entityID string) (model.FinancialFact, Reason) {
	value, reason := numericValue(raw.Val)
	if reason != "" {
		return model.FinancialFact{}, reason
	}
	if strings.TrimSpace(raw.Unit) == "" {
		return model.FinancialFact{}, ReasonMissingUnit
	}

	if strings.TrimSpace(raw.End) == "" {
		return model.FinancialFact{}, ReasonMissingPeriodEnd
	}
	end, err := model.ParseDate(raw.End)
	if err != nil {
		return model.FinancialFact{}, ReasonBadDate
	}

	if strings.TrimSpace(raw.Filed) == "" {
		return model.FinancialFact{}, ReasonMissingFilingDate
	}
	filed, err := model.ParseDate(raw.Filed)
	if err != nil {
		return model.FinancialFact{}, ReasonBadDate
	}

	fp, ok := model.ParseFiscalPeriod(raw.FP)
	if !ok {
		return model.FinancialFact{}, ReasonUnknownFiscalPeriod
	}

	desc := n.classifier.Classify(raw.Taxonomy, raw.Concept)

	fact := model.FinancialFact{
		EntityID:       entityID,
		ConceptName:    raw.Concept,
		Taxonomy:       raw.Taxonomy,
		StatementType:  desc.StatementType,
		TemporalNature: desc.TemporalNature,
		PeriodEnd:      end,
		Value:          value,
		Unit:           raw.Unit,
		FilingDate:     filed,
		AvailableAsOf:  filed,
		FiscalYear:     raw.FY,
		FiscalPeriod:   fp,
		Form:           strings.TrimSpace(raw.Form),
		IsAmended:      model.IsAmended(raw.Form),
		PriorityScore:  desc.PriorityScore,
		AccessionID:    raw.Accn,
		Frame:          raw.Frame,
	}

	if fact.TemporalNature == model.Period {
		start, reason := n.periodStart(raw.Start, fact)
		if reason != "" {
			return model.FinancialFact{}, reason
		}
		fact.PeriodStart = &start
	}

	return fact, ""
}

// periodStart uses the reported start date, or infers one from the fiscal period.
// The inference is approximate (fixed day counts, not calendar months).
func (n *Normalizer) periodStart(rawStart string, f model.FinancialFact) (start time.Time, reason Reason) {
	if strings.TrimSpace(rawStart) != "" {
		s, err := model.ParseDate(rawStart)
		if err != nil {
			return time.Time{}, ReasonBadDate
		}
		return s, ""
	}

	days := n.cfg.QuarterDays
	if f.FiscalPeriod == model.FiscalFY {
		days = n.cfg.AnnualDays
	}
	return f.PeriodEnd.AddDate(0, 0, -days), ""
}

func numericValue(v any) (float64, Reason) {
	switch x := v.(type) {
	case nil:
		return 0, ReasonMissingValue
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, ReasonNonNumeric
		}
		return f, ""
	case float64:
		return x, ""
	case float32:
		return float64(x), ""
	case int:
		return float64(x), ""
	case int64:
		return float64(x), ""
	case string:
		if strings.TrimSpace(x) == "" {
			return 0, ReasonMissingValue
		}
		return 0, ReasonNonNumeric
	default:
		return 0, ReasonNonNumeric
	}
}
