// Package classify maps reported concept names onto statement type, temporal
// nature, availability tier, and priority.
package classify

import (
	"go.uber.org/zap"

	"github.com/sells-group/pitfacts/internal/model"
)

// Classifier resolves concepts against a pinned snapshot, falling back to keyword rules.
type Classifier struct {
	snapshot *Snapshot
	rules    RuleSet
}

// New creates a Classifier. A nil snapshot behaves like an empty one.
func New(snapshot *Snapshot, rules RuleSet) *Classifier {
	if snapshot == nil {
		snapshot = EmptySnapshot()
	}
	zap.L().Debug("classifier ready",
		zap.String("component", "classify"),
		zap.String("snapshot_version", snapshot.Version()),
		zap.Int("descriptors", snapshot.Len()),
		zap.Strings("rules", rules.Names()),
	)
	return &Classifier{snapshot: snapshot, rules: rules}
}

// Snapshot returns the pinned reference snapshot.
func (c *Classifier) Snapshot() *Snapshot { return c.snapshot }

// Classify returns the snapshot descriptor for concept, or a rule-based fallback
// with zero priority and very_rare tier. taxonomy is the namespace the fact was
// reported under; it only fills fallback descriptors. It never fails.
func (c *Classifier) Classify(taxonomy, concept string) model.FieldDescriptor {
	if d, ok := c.snapshot.Lookup(concept); ok {
		return d
	}
	return c.Fallback(taxonomy, concept)
}

// Fallback classifies concept from its name alone.
func (c *Classifier) Fallback(taxonomy, concept string) model.FieldDescriptor {
	rule := c.rules.Match(concept)
	return model.FieldDescriptor{
		ConceptName:    concept,
		Taxonomy:       taxonomy,
		StatementType:  rule.Statement,
		TemporalNature: model.NatureOf(rule.Statement),
		Tier:           model.TierVeryRare,
	}
}
