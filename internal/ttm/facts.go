package ttm

import (
	"sort"
	"time"

	"github.com/sells-group/pitfacts/internal/model"
	"github.com/sells-group/pitfacts/internal/xbrl"
)

// PreferredUnit is chosen over any other unit when a concept reports several.
const PreferredUnit = "USD"

type factKey struct {
	concept    string
	fiscalYear int
	period     model.FiscalPeriod
	periodEnd  time.Time
}

// FactIndex looks facts up by qualified concept, fiscal year, fiscal period, and period end.
type FactIndex struct {
	facts map[factKey][]model.FinancialFact
}

// NewFactIndex indexes normalized facts.
func NewFactIndex(facts []model.FinancialFact) *FactIndex {
	idx := &FactIndex{facts: make(map[factKey][]model.FinancialFact)}
	for _, f := range facts {
		k := factKey{
			concept:    xbrl.QualifiedName(f.Taxonomy, f.ConceptName),
			fiscalYear: f.FiscalYear,
			period:     f.FiscalPeriod,
			periodEnd:  f.PeriodEnd,
		}
		idx.facts[k] = append(idx.facts[k], f)
	}
	return idx
}

// Lookup returns the single best fact for the coordinates. With several
// candidates it prefers USD (otherwise the alphabetically first unit), then
// the latest filing date, then the larger accession.
func (x *FactIndex) Lookup(concept string, fiscalYear int, period model.FiscalPeriod, periodEnd time.Time) (model.FinancialFact, bool) {
	candidates := x.facts[factKey{concept: concept, fiscalYear: fiscalYear, period: period, periodEnd: periodEnd}]
	if len(candidates) == 0 {
		return model.FinancialFact{}, false
	}

	sorted := make([]model.FinancialFact, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Unit != b.Unit {
			if a.Unit == PreferredUnit || b.Unit == PreferredUnit {
				return a.Unit == PreferredUnit
			}
			return a.Unit < b.Unit
		}
		if !a.FilingDate.Equal(b.FilingDate) {
			return a.FilingDate.After(b.FilingDate)
		}
		return a.AccessionID > b.AccessionID
	})
	return sorted[0], true
}
