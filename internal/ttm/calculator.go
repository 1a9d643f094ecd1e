// Package ttm computes trailing-twelve-month aggregates anchored at disclosure dates.
package ttm

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pitfacts/internal/model"
	"github.com/sells-group/pitfacts/internal/timeline"
	"github.com/sells-group/pitfacts/internal/xbrl"
)

// Metric names a trailing aggregate and the concepts that can supply it, in
// order of precedence.
type Metric struct {
	Name     model.MetricName
	Concepts []string
}

// Revenue and NetIncome are the supported trailing aggregates.
var (
	Revenue = Metric{
		Name: model.RevenueTTM,
		Concepts: []string{
			xbrl.QualifiedName(xbrl.TaxonomyUSGAAP, "Revenues"),
			xbrl.QualifiedName(xbrl.TaxonomyUSGAAP, "RevenueFromContractWithCustomerExcludingAssessedTax"),
			xbrl.QualifiedName(xbrl.TaxonomyUSGAAP, "RevenueFromContractWithCustomerIncludingAssessedTax"),
			xbrl.QualifiedName(xbrl.TaxonomyUSGAAP, "SalesRevenueNet"),
			xbrl.QualifiedName(xbrl.TaxonomyIFRS, "Revenue"),
		},
	}
	NetIncome = Metric{
		Name: model.NetIncomeTTM,
		Concepts: []string{
			xbrl.QualifiedName(xbrl.TaxonomyUSGAAP, "NetIncomeLoss"),
			xbrl.QualifiedName(xbrl.TaxonomyUSGAAP, "ProfitLoss"),
			xbrl.QualifiedName(xbrl.TaxonomyIFRS, "ProfitLoss"),
		},
	}
)

// DefaultMetrics returns every supported metric.
func DefaultMetrics() []Metric {
	return []Metric{Revenue, NetIncome}
}

// Strategy turns a timeline and its facts into metric rows for one metric.
type Strategy interface {
	Compute(entityID string, m Metric, tl *timeline.Timeline, facts *FactIndex) []model.TTMMetric
}

// Calculator maps each metric to its aggregation strategy.
type Calculator struct {
	metrics    []Metric
	strategies map[model.MetricName]Strategy
}

// NewCalculator uses the annual strategy for every metric.
func NewCalculator(metrics ...Metric) *Calculator {
	c := &Calculator{strategies: make(map[model.MetricName]Strategy, len(metrics))}
	for _, m := range metrics {
		c.metrics = append(c.metrics, m)
		c.strategies[m.Name] = AnnualStrategy{}
	}
	return c
}

// WithStrategy overrides the strategy for a metric.
func (c *Calculator) WithStrategy(name model.MetricName, s Strategy) *Calculator {
	c.strategies[name] = s
	return c
}

// Compute emits rows for one metric. Entities without qualifying facts yield none.
func (c *Calculator) Compute(entityID string, name model.MetricName, tl *timeline.Timeline, facts *FactIndex) ([]model.TTMMetric, error) {
	for _, m := range c.metrics {
		if m.Name == name {
			return c.strategies[name].Compute(entityID, m, tl, facts), nil
		}
	}
	return nil, eris.Errorf("ttm: unknown metric %q", name)
}

// ComputeAll emits rows for every configured metric, ordered by metric then as-of date.
func (c *Calculator) ComputeAll(entityID string, tl *timeline.Timeline, facts *FactIndex) []model.TTMMetric {
	var out []model.TTMMetric
	for _, m := range c.metrics {
		out = append(out, c.strategies[m.Name].Compute(entityID, m, tl, facts)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MetricName != out[j].MetricName {
			return out[i].MetricName < out[j].MetricName
		}
		return out[i].AsOfDate.Before(out[j].AsOfDate)
	})
	return out
}
