package ttm

import (
	"sort"
	"time"

	"github.com/sells-group/pitfacts/internal/model"
)

// KnownAsOf returns, for each metric, the row with the greatest as-of date on
// or before d. Rows disclosed after d are never returned. Output is ordered by
// metric name.
func KnownAsOf(metrics []model.TTMMetric, d time.Time) []model.TTMMetric {
	latest := make(map[model.MetricName]model.TTMMetric)
	for _, m := range metrics {
		if m.AsOfDate.After(d) {
			continue
		}
		if cur, ok := latest[m.MetricName]; !ok || m.AsOfDate.After(cur.AsOfDate) {
			latest[m.MetricName] = m
		}
	}

	out := make([]model.TTMMetric, 0, len(latest))
	for _, m := range latest {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MetricName < out[j].MetricName })
	return out
}
