// Package calendar resolves an entity's fiscal year-end month from its annual filings.
package calendar

import (
	"sort"
	"strings"
	"time"

	"github.com/sells-group/pitfacts/internal/model"
)

// Config controls month bucketing and confidence thresholds.
type Config struct {
	// ToleranceDays pulls period ends falling in the first days of a month
	// back into the previous month, so 52/53-week years ending just past a
	// month boundary land in one bucket.
	ToleranceDays int
	HighPct       float64
	MediumPct     float64
	MinSamples    int
}

// DefaultConfig returns a 7-day tolerance with 70%/50% confidence cut-offs over at least 3 samples.
func DefaultConfig() Config {
	return Config{
		ToleranceDays: 7,
		HighPct:       0.70,
		MediumPct:     0.50,
		MinSamples:    3,
	}
}

// AnnualPeriodEnd is one observed annual-report period end.
type AnnualPeriodEnd struct {
	Date time.Time
	Form string
}

// Resolver derives FiscalCalendars. It holds no per-entity state.
type Resolver struct {
	cfg Config
}

// NewResolver creates a Resolver.
func NewResolver(cfg Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Bucket returns the canonical fiscal month for a period-end date.
func (r *Resolver) Bucket(d time.Time) time.Month {
	if d.Day() <= r.cfg.ToleranceDays {
		return d.AddDate(0, 0, -d.Day()).Month()
	}
	return d.Month()
}

type bucket struct {
	count  int
	latest time.Time
}

// Resolve computes the dominant fiscal year-end month and its confidence.
// Only annual forms are counted. An empty history yields a Low calendar with no dominant month.
func (r *Resolver) Resolve(entityID string, ends []AnnualPeriodEnd) model.FiscalCalendar {
	cal := model.FiscalCalendar{
		EntityID:      entityID,
		Confidence:    model.ConfidenceLow,
		FormsObserved: []string{},
	}

	buckets := make(map[time.Month]*bucket)
	forms := make(map[string]bool)
	var mostRecent time.Time

	for _, e := range ends {
		if e.Date.IsZero() || !model.IsAnnualForm(e.Form) {
			continue
		}
		cal.SampleSize++
		forms[strings.ToUpper(strings.TrimSpace(e.Form))] = true
		if e.Date.After(mostRecent) {
			mostRecent = e.Date
		}

		m := r.Bucket(e.Date)
		b, ok := buckets[m]
		if !ok {
			b = &bucket{}
			buckets[m] = b
		}
		b.count++
		if e.Date.After(b.latest) {
			b.latest = e.Date
		}
	}

	if cal.SampleSize == 0 {
		return cal
	}

	for f := range forms {
		cal.FormsObserved = append(cal.FormsObserved, f)
	}
	sort.Strings(cal.FormsObserved)
	cal.MostRecentPeriodEnd = &mostRecent

	var best *bucket
	for m, b := range buckets {
		if best == nil || b.count > best.count || (b.count == best.count && b.latest.After(best.latest)) {
			best = b
			cal.DominantMonth = m
		}
	}

	cal.DominantMonthPct = float64(best.count) / float64(cal.SampleSize)
	cal.Confidence = r.confidence(cal.DominantMonthPct, cal.SampleSize)
	return cal
}

func (r *Resolver) confidence(pct float64, n int) model.Confidence {
	if n < r.cfg.MinSamples {
		return model.ConfidenceLow
	}
	switch {
	case pct >= r.cfg.HighPct:
		return model.ConfidenceHigh
	case pct >= r.cfg.MediumPct:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
