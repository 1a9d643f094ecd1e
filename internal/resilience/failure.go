package resilience

import (
	"sort"
	"sync"
	"time"
)

// Failure records an entity that could not be processed. Transient failures
// are candidates for a rerun; permanent ones need a data or code fix.
type Failure struct {
	EntityID string    `json:"entity_id"`
	Stage    string    `json:"stage"`
	Error    string    `json:"error"`
	Kind     ErrorKind `json:"kind"`
	FailedAt time.Time `json:"failed_at"`
}

// Failures collects Failure records from concurrent workers.
type Failures struct {
	mu    sync.Mutex
	items []Failure
	now   func() time.Time
}

// NewFailures creates an empty collector.
func NewFailures() *Failures {
	return &Failures{now: time.Now}
}

// Record adds a failure for entityID at stage. A nil err is ignored.
func (f *Failures) Record(entityID, stage string, err error) {
	if err == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, Failure{
		EntityID: entityID,
		Stage:    stage,
		Error:    err.Error(),
		Kind:     Classify(err),
		FailedAt: f.now().UTC(),
	})
}

// Len returns the number of failures.
func (f *Failures) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// List returns failures ordered by entity then stage.
func (f *Failures) List() []Failure {
	f.mu.Lock()
	out := make([]Failure, len(f.items))
	copy(out, f.items)
	f.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EntityID != out[j].EntityID {
			return out[i].EntityID < out[j].EntityID
		}
		return out[i].Stage < out[j].Stage
	})
	return out
}

// Retryable returns the entity IDs with only transient failures.
func (f *Failures) Retryable() []string {
	permanent := make(map[string]bool)
	seen := make(map[string]bool)
	var ids []string
	for _, it := range f.List() {
		if it.Kind == KindPermanent {
			permanent[it.EntityID] = true
		}
		if !seen[it.EntityID] {
			seen[it.EntityID] = true
			ids = append(ids, it.EntityID)
		}
	}
	out := ids[:0]
	for _, id := range ids {
		if !permanent[id] {
			out = append(out, id)
		}
	}
	return out
}
