package classify

import (
	"math"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/sells-group/pitfacts/internal/model"
	"github.com/sells-group/pitfacts/internal/xbrl"
)

// criticalPatterns flag concepts central to fundamental analysis.
var criticalPatterns = compilePatterns(
	"Revenue", "Sales", "NetIncome", "EarningsPerShare",
	"^Assets$", "^Liabilities$", "TotalAssets", "TotalLiabilities", "StockholdersEquity",
	"CashAndCashEquivalents", "OperatingCashFlow", "FreeCashFlow",
	"GrossProfit", "OperatingIncome",
	"AccountsReceivable", "Inventory", "AccountsPayable", "Debt", "CommonStock",
	"SharesOutstanding", "SharesIssued",
)

func compilePatterns(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile("(?i)" + p)
	}
	return out
}

// IsCritical reports whether concept matches any critical pattern.
func IsCritical(concept string) bool {
	for _, re := range criticalPatterns {
		if re.MatchString(concept) {
			return true
		}
	}
	return false
}

type conceptUsage struct {
	byTaxonomy  map[string]map[string]struct{}
	label       string
	description string
	deprecated  bool
}

// Catalog accumulates cross-entity concept usage for the offline cataloging phase.
// It is safe for concurrent Add calls.
type Catalog struct {
	mu       sync.Mutex
	entities map[string]struct{}
	concepts map[string]*conceptUsage
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		entities: make(map[string]struct{}),
		concepts: make(map[string]*conceptUsage),
	}
}

// Add records every concept reported by one entity.
func (c *Catalog) Add(entityID string, facts *xbrl.CompanyFacts) {
	if facts == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entities[entityID] = struct{}{}
	for ns, concepts := range facts.Facts {
		for name, fact := range concepts {
			u, ok := c.concepts[name]
			if !ok {
				u = &conceptUsage{byTaxonomy: make(map[string]map[string]struct{})}
				c.concepts[name] = u
			}
			users, ok := u.byTaxonomy[ns]
			if !ok {
				users = make(map[string]struct{})
				u.byTaxonomy[ns] = users
			}
			users[entityID] = struct{}{}

			if fact.Label != "" && (u.label == "" || fact.Label < u.label) {
				u.label = fact.Label
			}
			if fact.Description != "" && (u.description == "" || fact.Description < u.description) {
				u.description = fact.Description
			}
			text := strings.ToLower(fact.Label + " " + fact.Description)
			if strings.Contains(text, "deprecated") {
				u.deprecated = true
			}
		}
	}
}

// Entities returns the number of distinct entities added.
func (c *Catalog) Entities() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entities)
}

// Build produces an immutable snapshot from the accumulated usage.
func (c *Catalog) Build(version string, builtAt time.Time, scoring ScoringConfig, rules RuleSet) *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := len(c.entities)
	descriptors := make([]model.FieldDescriptor, 0, len(c.concepts))
	for name, u := range c.concepts {
		taxonomy, users := dominantTaxonomy(u.byTaxonomy)

		pct := 0.0
		if total > 0 {
			pct = math.Round(float64(users)/float64(total)*10000) / 100
		}
		tier := scoring.TierFor(pct)
		critical := IsCritical(name)
		st := rules.MatchText(name, u.label, u.description).Statement

		descriptors = append(descriptors, model.FieldDescriptor{
			ConceptName:     name,
			Taxonomy:        taxonomy,
			Label:           u.label,
			StatementType:   st,
			TemporalNature:  model.NatureOf(st),
			AvailabilityPct: pct,
			Tier:            tier,
			PriorityScore:   scoring.Score(pct, critical, tier, taxonomy, u.deprecated),
			IsCritical:      critical,
			Deprecated:      u.deprecated,
		})
	}

	return NewSnapshot(version, builtAt, total, descriptors)
}

// dominantTaxonomy picks the taxonomy with the most distinct users.
// Ties go to the lexicographically smaller taxonomy. It returns the total
// distinct users across all taxonomies.
func dominantTaxonomy(byTaxonomy map[string]map[string]struct{}) (string, int) {
	best, bestN := "", -1
	all := make(map[string]struct{})
	for ns, users := range byTaxonomy {
		for u := range users {
			all[u] = struct{}{}
		}
		if n := len(users); n > bestN || (n == bestN && ns < best) {
			best, bestN = ns, n
		}
	}
	return best, len(all)
}
