package calendar

import (
	"sort"
	"time"

	"github.com/sells-group/pitfacts/internal/model"
	"github.com/sells-group/pitfacts/internal/xbrl"
)

// AnchorConcepts are balance-sheet concepts nearly every annual report carries,
// in the order they are tried.
var AnchorConcepts = []string{
	xbrl.QualifiedName(xbrl.TaxonomyUSGAAP, "Assets"),
	xbrl.QualifiedName(xbrl.TaxonomyIFRS, "Assets"),
	xbrl.QualifiedName(xbrl.TaxonomyUSGAAP, "StockholdersEquity"),
	xbrl.QualifiedName(xbrl.TaxonomyIFRS, "Equity"),
	xbrl.QualifiedName(xbrl.TaxonomyUSGAAP, "LiabilitiesAndStockholdersEquity"),
}

// AnnualPeriodEnds extracts one observation per distinct annual period end
// from the first anchor concept that has any. An original filing's form is
// preferred over an amendment for the same date.
func AnnualPeriodEnds(facts []model.FinancialFact) []AnnualPeriodEnd {
	byAnchor := make(map[string]map[time.Time]string)
	for _, f := range facts {
		if f.FiscalPeriod != model.FiscalFY || !model.IsAnnualForm(f.Form) {
			continue
		}
		name := xbrl.QualifiedName(f.Taxonomy, f.ConceptName)
		ends, ok := byAnchor[name]
		if !ok {
			ends = make(map[time.Time]string)
			byAnchor[name] = ends
		}
		prev, seen := ends[f.PeriodEnd]
		if !seen || (model.IsAmended(prev) && !model.IsAmended(f.Form)) {
			ends[f.PeriodEnd] = f.Form
		}
	}

	for _, anchor := range AnchorConcepts {
		ends, ok := byAnchor[anchor]
		if !ok || len(ends) == 0 {
			continue
		}
		out := make([]AnnualPeriodEnd, 0, len(ends))
		for d, form := range ends {
			out = append(out, AnnualPeriodEnd{Date: d, Form: form})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
		return out
	}
	return nil
}
