package timeline

import (
	"sort"
	"strings"
	"time"

	"github.com/sells-group/pitfacts/internal/model"
	"github.com/sells-group/pitfacts/internal/xbrl"
)

type accessionAcc struct {
	event   model.FilingEvent
	hasMeta bool
	onlyDEI bool
}

// FilingsFromFacts derives one filing record per accession from normalized facts.
// The period end is the latest period end among the accession's financial
// (non-dei) facts; cover-page dates are only used when nothing else is present.
func FilingsFromFacts(entityID string, facts []model.FinancialFact) []model.FilingEvent {
	byAccn := make(map[string]*accessionAcc)
	for _, f := range facts {
		if f.AccessionID == "" || strings.TrimSpace(f.Form) == "" {
			continue
		}
		acc, ok := byAccn[f.AccessionID]
		if !ok {
			acc = &accessionAcc{
				event:   model.FilingEvent{EntityID: entityID, AccessionID: f.AccessionID},
				onlyDEI: true,
			}
			byAccn[f.AccessionID] = acc
		}
		acc.observe(f)
	}

	out := make([]model.FilingEvent, 0, len(byAccn))
	for _, acc := range byAccn {
		if acc.hasMeta {
			out = append(out, acc.event)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FilingDate.Equal(out[j].FilingDate) {
			return out[i].FilingDate.Before(out[j].FilingDate)
		}
		return out[i].AccessionID < out[j].AccessionID
	})
	return out
}

func (a *accessionAcc) observe(f model.FinancialFact) {
	isDEI := f.Taxonomy == xbrl.TaxonomyDEI
	if !isDEI && a.onlyDEI {
		// First financial fact: discard anything learned from cover-page facts.
		a.onlyDEI = false
		a.hasMeta = false
	}
	if isDEI && !a.onlyDEI {
		return
	}

	e := &a.event
	if f.FilingDate.After(e.FilingDate) {
		e.FilingDate = f.FilingDate
	}
	if !a.hasMeta || laterPeriod(f, e.PeriodEnd, e.FiscalYear, e.FiscalPeriod) {
		e.PeriodEnd = f.PeriodEnd
		e.FiscalYear = f.FiscalYear
		e.FiscalPeriod = f.FiscalPeriod
		e.Form = f.Form
		e.IsAmended = f.IsAmended
	}
	a.hasMeta = true
}

// laterPeriod orders candidate metadata by period end, then fiscal year, then fiscal period,
// so the choice does not depend on fact order.
func laterPeriod(f model.FinancialFact, end time.Time, fy int, fp model.FiscalPeriod) bool {
	if !f.PeriodEnd.Equal(end) {
		return f.PeriodEnd.After(end)
	}
	if f.FiscalYear != fy {
		return f.FiscalYear > fy
	}
	return f.FiscalPeriod > fp
}
