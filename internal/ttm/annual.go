package ttm

import (
	"sort"
	"time"

	"github.com/sells-group/pitfacts/internal/model"
	"github.com/sells-group/pitfacts/internal/timeline"
)

// AnnualStrategy uses the full-year reported value at each annual filing.
// Rows update once per fiscal year, dated at the annual report's filing date.
//
// Every annual filing in the history is used, amendments included, so the
// value is available from the original filing date onward. The value itself
// is the latest known one for the period, not necessarily the one first
// reported.
type AnnualStrategy struct{}

// Compute implements Strategy.
func (AnnualStrategy) Compute(entityID string, m Metric, tl *timeline.Timeline, facts *FactIndex) []model.TTMMetric {
	if tl == nil || facts == nil {
		return nil
	}

	byAsOf := make(map[time.Time]model.TTMMetric)
	for _, ev := range tl.History() {
		if !model.IsAnnualForm(ev.Form) {
			continue
		}
		for _, concept := range m.Concepts {
			f, ok := facts.Lookup(concept, ev.FiscalYear, model.FiscalFY, ev.PeriodEnd)
			if !ok {
				continue
			}
			// History is in filing order, so a later same-day filing replaces an earlier one.
			byAsOf[ev.FilingDate] = model.TTMMetric{
				EntityID:   entityID,
				MetricName: m.Name,
				AsOfDate:   ev.FilingDate,
				PeriodEnd:  ev.PeriodEnd,
				Value:      f.Value,
				Unit:       f.Unit,
				SourceForm: ev.Form,
				Concept:    concept,
				Accession:  ev.AccessionID,
			}
			break
		}
	}

	out := make([]model.TTMMetric, 0, len(byAsOf))
	for _, row := range byAsOf {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AsOfDate.Before(out[j].AsOfDate) })
	return out
}
