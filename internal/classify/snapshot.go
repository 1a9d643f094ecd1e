package classify

import (
	"os"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/pitfacts/internal/model"
)

// Snapshot is a versioned, read-only table of reference field descriptors.
// It is built once by the cataloging phase and shared across all entities of a run.
type Snapshot struct {
	version     string
	builtAt     time.Time
	entityCount int
	fields      map[string]model.FieldDescriptor
}

// snapshotFile is the on-disk YAML layout of a Snapshot.
type snapshotFile struct {
	Version     string                  `yaml:"version"`
	BuiltAt     time.Time               `yaml:"built_at"`
	EntityCount int                     `yaml:"entity_count"`
	Fields      []model.FieldDescriptor `yaml:"fields"`
}

// NewSnapshot copies descriptors into a new immutable snapshot keyed by concept name.
// When two descriptors share a concept name the later one wins.
func NewSnapshot(version string, builtAt time.Time, entityCount int, descriptors []model.FieldDescriptor) *Snapshot {
	fields := make(map[string]model.FieldDescriptor, len(descriptors))
	for _, d := range descriptors {
		fields[d.ConceptName] = d
	}
	return &Snapshot{
		version:     version,
		builtAt:     builtAt.UTC(),
		entityCount: entityCount,
		fields:      fields,
	}
}

// EmptySnapshot returns a snapshot with no descriptors; every lookup falls back to rules.
func EmptySnapshot() *Snapshot {
	return NewSnapshot("empty", time.Time{}, 0, nil)
}

// Version identifies the cataloging run that produced the snapshot.
func (s *Snapshot) Version() string { return s.version }

// BuiltAt is when the snapshot was produced.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// EntityCount is the number of entities the availability statistics were computed over.
func (s *Snapshot) EntityCount() int { return s.entityCount }

// Len returns the number of descriptors.
func (s *Snapshot) Len() int { return len(s.fields) }

// Lookup returns a copy of the stored descriptor for concept.
func (s *Snapshot) Lookup(concept string) (model.FieldDescriptor, bool) {
	if s == nil {
		return model.FieldDescriptor{}, false
	}
	d, ok := s.fields[concept]
	return d, ok
}

// Descriptors returns all descriptors ordered by priority (desc) then concept name.
func (s *Snapshot) Descriptors() []model.FieldDescriptor {
	out := make([]model.FieldDescriptor, 0, len(s.fields))
	for _, d := range s.fields {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PriorityScore != out[j].PriorityScore {
			return out[i].PriorityScore > out[j].PriorityScore
		}
		return out[i].ConceptName < out[j].ConceptName
	})
	return out
}

// LoadSnapshot reads a YAML snapshot from path.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "classify: read snapshot %s", path)
	}

	var f snapshotFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "classify: decode snapshot %s", path)
	}
	if f.Version == "" {
		return nil, eris.Errorf("classify: snapshot %s has no version", path)
	}

	return NewSnapshot(f.Version, f.BuiltAt, f.EntityCount, f.Fields), nil
}

// Save writes the snapshot to path as YAML.
func (s *Snapshot) Save(path string) error {
	data, err := yaml.Marshal(snapshotFile{
		Version:     s.version,
		BuiltAt:     s.builtAt,
		EntityCount: s.entityCount,
		Fields:      s.Descriptors(),
	})
	if err != nil {
		return eris.Wrap(err, "classify: encode snapshot")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "classify: write snapshot %s", path)
	}
	return nil
}
