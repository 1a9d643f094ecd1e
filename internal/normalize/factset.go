package normalize

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/pitfacts/internal/model"
	"github.com/sells-group/pitfacts/internal/xbrl"
)

// FactSet holds facts keyed by identity. Upsert replaces whole rows on conflict.
type FactSet struct {
	facts map[model.FactKey]model.FinancialFact
}

// NewFactSet creates an empty FactSet.
func NewFactSet() *FactSet {
	return &FactSet{facts: make(map[model.FactKey]model.FinancialFact)}
}

// Upsert stores f, replacing any fact with the same identity. It reports whether a row was replaced.
func (s *FactSet) Upsert(f model.FinancialFact) bool {
	k := f.Key()
	_, existed := s.facts[k]
	s.facts[k] = f
	return existed
}

// Len returns the number of distinct facts.
func (s *FactSet) Len() int { return len(s.facts) }

// Facts returns all facts ordered by identity key.
func (s *FactSet) Facts() []model.FinancialFact {
	out := make([]model.FinancialFact, 0, len(s.facts))
	for _, f := range s.facts {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out
}

// Result is the outcome of normalizing one entity's raw facts.
type Result struct {
	Facts    []model.FinancialFact
	Discards map[Reason]int
	Seen     int
	Replaced int
}

// Discarded returns the total number of discarded raw facts.
func (r *Result) Discarded() int {
	n := 0
	for _, c := range r.Discards {
		n += c
	}
	return n
}

// NormalizeAll normalizes every raw fact for an entity. Malformed facts are
// counted by reason and skipped; the batch always completes.
func (n *Normalizer) NormalizeAll(entityID string, raws []xbrl.RawFact) *Result {
	set := NewFactSet()
	res := &Result{Discards: make(map[Reason]int)}

	for _, raw := range raws {
		res.Seen++
		f, reason := n.Normalize(raw, entityID)
		if reason != "" {
			res.Discards[reason]++
			continue
		}
		if set.Upsert(f) {
			res.Replaced++
		}
	}

	res.Facts = set.Facts()
	if d := res.Discarded(); d > 0 {
		zap.L().Debug("discarded malformed facts",
			zap.String("component", "normalize"),
			zap.String("entity", entityID),
			zap.Int("discarded", d),
			zap.Int("seen", res.Seen),
		)
	}
	return res
}
