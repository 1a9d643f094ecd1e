package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sells-group/pitfacts/internal/model"
)

type eventKey struct{ entityID, accession string }

type metricKey struct {
	entityID string
	name     model.MetricName
	asOf     time.Time
}

// MemorySink keeps results in process memory. Used for dry runs and tests.
type MemorySink struct {
	mu        sync.RWMutex
	facts     map[model.FactKey]model.FinancialFact
	events    map[eventKey]model.FilingEvent
	metrics   map[metricKey]model.TTMMetric
	calendars map[string]model.FiscalCalendar
}

// NewMemory creates an empty MemorySink.
func NewMemory() *MemorySink {
	return &MemorySink{
		facts:     make(map[model.FactKey]model.FinancialFact),
		events:    make(map[eventKey]model.FilingEvent),
		metrics:   make(map[metricKey]model.TTMMetric),
		calendars: make(map[string]model.FiscalCalendar),
	}
}

func (m *MemorySink) UpsertFacts(_ context.Context, facts []model.FinancialFact) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range facts {
		m.facts[f.Key()] = f
	}
	return int64(len(facts)), nil
}

func (m *MemorySink) UpsertEvents(_ context.Context, events []model.FilingEvent) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range events {
		m.events[eventKey{e.EntityID, e.AccessionID}] = e
	}
	return int64(len(events)), nil
}

func (m *MemorySink) UpsertMetrics(_ context.Context, metrics []model.TTMMetric) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range metrics {
		m.metrics[metricKey{r.EntityID, r.MetricName, r.AsOfDate}] = r
	}
	return int64(len(metrics)), nil
}

func (m *MemorySink) UpsertCalendar(_ context.Context, cal model.FiscalCalendar) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calendars[cal.EntityID] = cal
	return nil
}

func (m *MemorySink) Events(_ context.Context, entityID string) ([]model.FilingEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.FilingEvent
	for k, e := range m.events {
		if k.entityID == entityID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FilingDate.Equal(out[j].FilingDate) {
			return out[i].FilingDate.Before(out[j].FilingDate)
		}
		return out[i].AccessionID < out[j].AccessionID
	})
	return out, nil
}

func (m *MemorySink) Metrics(_ context.Context, entityID string) ([]model.TTMMetric, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.TTMMetric
	for k, r := range m.metrics {
		if k.entityID == entityID {
			out = append(out, r)
		}
	}
	sortMetrics(out)
	return out, nil
}

// Facts returns an entity's stored facts in identity order.
func (m *MemorySink) Facts(entityID string) []model.FinancialFact {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.FinancialFact
	for k, f := range m.facts {
		if k.EntityID == entityID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out
}

// Calendar returns an entity's stored calendar.
func (m *MemorySink) Calendar(entityID string) (model.FiscalCalendar, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.calendars[entityID]
	return c, ok
}

func (m *MemorySink) Migrate(context.Context) error { return nil }

func (m *MemorySink) Close() error { return nil }

func sortMetrics(ms []model.TTMMetric) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].MetricName != ms[j].MetricName {
			return ms[i].MetricName < ms[j].MetricName
		}
		return ms[i].AsOfDate.Before(ms[j].AsOfDate)
	})
}
