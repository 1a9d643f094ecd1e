// Package timeline builds amendment-resolved disclosure timelines and answers
// "what was known on date D" lookups.
package timeline

import (
	"sort"
	"sync"
	"time"

	"github.com/sells-group/pitfacts/internal/model"
)

// Timeline holds an entity's filings in filing-date order.
//
// The effective view keeps at most one event per (fiscal_year, fiscal_period):
// the latest filing wins, equal dates go to the larger accession. The history
// keeps every filing, with superseded ones marked, so lookups on a date before
// an amendment still see the original.
type Timeline struct {
	entityID  string
	effective []model.FilingEvent
	history   []model.FilingEvent
}

// Build resolves amendments and orders the events.
func Build(entityID string, filings []model.FilingEvent) *Timeline {
	byAccn := make(map[string]model.FilingEvent, len(filings))
	for _, f := range filings {
		f.EntityID = entityID
		f.SupersededBy = ""
		if cur, ok := byAccn[f.AccessionID]; !ok || f.Supersedes(cur) {
			byAccn[f.AccessionID] = f
		}
	}

	winners := make(map[model.PeriodKey]model.FilingEvent, len(byAccn))
	for _, f := range byAccn {
		cur, ok := winners[f.Period()]
		if !ok || f.Supersedes(cur) {
			winners[f.Period()] = f
		}
	}

	t := &Timeline{entityID: entityID}
	for _, f := range byAccn {
		if w := winners[f.Period()]; w.AccessionID != f.AccessionID {
			f.SupersededBy = w.AccessionID
		} else {
			t.effective = append(t.effective, f)
		}
		t.history = append(t.history, f)
	}
	sortByFiling(t.effective)
	sortByFiling(t.history)
	return t
}

func sortByFiling(events []model.FilingEvent) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].FilingDate.Equal(events[j].FilingDate) {
			return events[i].FilingDate.Before(events[j].FilingDate)
		}
		return events[i].AccessionID < events[j].AccessionID
	})
}

// EntityID returns the owning entity.
func (t *Timeline) EntityID() string { return t.entityID }

// Len returns the number of effective events.
func (t *Timeline) Len() int { return len(t.effective) }

// Events returns a copy of the effective events, non-decreasing by filing date.
func (t *Timeline) Events() []model.FilingEvent {
	out := make([]model.FilingEvent, len(t.effective))
	copy(out, t.effective)
	return out
}

// History returns a copy of every filing, superseded ones included.
func (t *Timeline) History() []model.FilingEvent {
	out := make([]model.FilingEvent, len(t.history))
	copy(out, t.history)
	return out
}

// AsOf returns the filing with the greatest filing date on or before d, as
// it was known on d. It reports false when d precedes the first filing.
func (t *Timeline) AsOf(d time.Time) (model.FilingEvent, bool) {
	// First index whose filing date is strictly after d.
	i := sort.Search(len(t.history), func(i int) bool {
		return t.history[i].FilingDate.After(d)
	})
	if i == 0 {
		return model.FilingEvent{}, false
	}
	e := t.history[i-1]
	if !e.Effective() {
		// Superseded later than d; on d it was still the effective filing.
		e.SupersededBy = ""
	}
	return e, true
}

// Index holds timelines for many entities. It is safe for concurrent use.
type Index struct {
	mu        sync.RWMutex
	timelines map[string]*Timeline
}

// NewIndex creates an empty Index.
func NewIndex() *Index {
	return &Index{timelines: make(map[string]*Timeline)}
}

// Put stores or replaces an entity's timeline.
func (x *Index) Put(t *Timeline) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.timelines[t.EntityID()] = t
}

// Get returns an entity's timeline.
func (x *Index) Get(entityID string) (*Timeline, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	t, ok := x.timelines[entityID]
	return t, ok
}

// AsOf answers the point-in-time lookup for an entity. Unknown entities report false.
func (x *Index) AsOf(entityID string, d time.Time) (model.FilingEvent, bool) {
	t, ok := x.Get(entityID)
	if !ok {
		return model.FilingEvent{}, false
	}
	return t.AsOf(d)
}
