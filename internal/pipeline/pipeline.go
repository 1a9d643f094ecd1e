// Package pipeline runs the per-entity stages (normalize, calendar, timeline,
// trailing metrics) and fans entities out across workers.
package pipeline

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pitfacts/internal/calendar"
	"github.com/sells-group/pitfacts/internal/classify"
	"github.com/sells-group/pitfacts/internal/model"
	"github.com/sells-group/pitfacts/internal/normalize"
	"github.com/sells-group/pitfacts/internal/timeline"
	"github.com/sells-group/pitfacts/internal/ttm"
	"github.com/sells-group/pitfacts/internal/xbrl"
)

// Config carries the immutable settings every entity is processed with.
type Config struct {
	Calendar  calendar.Config
	Normalize normalize.Config
	Metrics   []ttm.Metric
}

// DefaultConfig returns the component defaults with both trailing metrics.
func DefaultConfig() Config {
	return Config{
		Calendar:  calendar.DefaultConfig(),
		Normalize: normalize.DefaultConfig(),
		Metrics:   ttm.DefaultMetrics(),
	}
}

// EntityResult is everything derived for one entity.
type EntityResult struct {
	EntityID   string
	EntityName string
	Facts      []model.FinancialFact
	Discards   map[normalize.Reason]int
	Calendar   model.FiscalCalendar
	Timeline   *timeline.Timeline
	Metrics    []model.TTMMetric
}

// Discarded returns the total number of dropped raw facts.
func (r *EntityResult) Discarded() int {
	n := 0
	for _, c := range r.Discards {
		n += c
	}
	return n
}

// Pipeline processes one entity at a time. It holds no per-entity state, so a
// single Pipeline is shared by all workers.
type Pipeline struct {
	classifier *classify.Classifier
	normalizer *normalize.Normalizer
	resolver   *calendar.Resolver
	calculator *ttm.Calculator
}

// New creates a Pipeline pinned to classifier.
func New(classifier *classify.Classifier, cfg Config) *Pipeline {
	if len(cfg.Metrics) == 0 {
		cfg.Metrics = ttm.DefaultMetrics()
	}
	return &Pipeline{
		classifier: classifier,
		normalizer: normalize.New(classifier, cfg.Normalize),
		resolver:   calendar.NewResolver(cfg.Calendar),
		calculator: ttm.NewCalculator(cfg.Metrics...),
	}
}

// SnapshotVersion returns the version of the pinned reference snapshot.
func (p *Pipeline) SnapshotVersion() string {
	return p.classifier.Snapshot().Version()
}

// Process derives facts, calendar, timeline and trailing metrics for one
// entity. Malformed facts are counted, not returned as errors.
func (p *Pipeline) Process(entityID string, doc *xbrl.CompanyFacts) (*EntityResult, error) {
	if doc == nil {
		return nil, eris.Errorf("pipeline: no company facts for %s", entityID)
	}
	log := zap.L().With(zap.String("component", "pipeline"), zap.String("entity", entityID))

	norm := p.normalizer.NormalizeAll(entityID, xbrl.Flatten(doc))

	cal := p.resolver.Resolve(entityID, calendar.AnnualPeriodEnds(norm.Facts))
	if cal.Confidence == model.ConfidenceLow {
		log.Debug("low confidence fiscal calendar", zap.Int("sample_size", cal.SampleSize))
	}

	tl := timeline.Build(entityID, timeline.FilingsFromFacts(entityID, norm.Facts))
	metrics := p.calculator.ComputeAll(entityID, tl, ttm.NewFactIndex(norm.Facts))

	log.Debug("entity processed",
		zap.Int("facts", len(norm.Facts)),
		zap.Int("discarded", norm.Discarded()),
		zap.Int("filings", tl.Len()),
		zap.Int("metrics", len(metrics)),
	)

	return &EntityResult{
		EntityID:   entityID,
		EntityName: doc.EntityName,
		Facts:      norm.Facts,
		Discards:   norm.Discards,
		Calendar:   cal,
		Timeline:   tl,
		Metrics:    metrics,
	}, nil
}
