package classify

import (
	"math"
	"sort"

	"github.com/sells-group/pitfacts/internal/model"
)

// TierBand assigns Tier to any availability at or above Min percent.
type TierBand struct {
	Min  float64    `yaml:"min" mapstructure:"min"`
	Tier model.Tier `yaml:"tier" mapstructure:"tier"`
}

// ScoringConfig holds the tier bands and bonus weights used to rank concepts.
type ScoringConfig struct {
	Bands                  []TierBand
	CriticalBonus          float64
	TierBonus              map[model.Tier]float64
	PreferredTaxonomy      string
	PreferredTaxonomyBonus float64
	DeprecatedPenalty      float64
}

// DefaultScoring returns the standard bands (80/60/40/20/10) and bonuses.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		Bands: []TierBand{
			{Min: 80, Tier: model.TierUniversal},
			{Min: 60, Tier: model.TierVeryCommon},
			{Min: 40, Tier: model.TierCommon},
			{Min: 20, Tier: model.TierModerate},
			{Min: 10, Tier: model.TierRare},
		},
		CriticalBonus: 50,
		TierBonus: map[model.Tier]float64{
			model.TierUniversal:  25,
			model.TierVeryCommon: 15,
		},
		PreferredTaxonomy:      "us-gaap",
		PreferredTaxonomyBonus: 5,
		DeprecatedPenalty:      100,
	}
}

// TierFor maps an availability percentage onto its band.
// Anything below the lowest band is very_rare.
func (c ScoringConfig) TierFor(pct float64) model.Tier {
	bands := make([]TierBand, len(c.Bands))
	copy(bands, c.Bands)
	sort.SliceStable(bands, func(i, j int) bool { return bands[i].Min > bands[j].Min })

	for _, b := range bands {
		if pct >= b.Min {
			return b.Tier
		}
	}
	return model.TierVeryRare
}

// Score computes a priority score rounded to one decimal place.
func (c ScoringConfig) Score(pct float64, critical bool, tier model.Tier, taxonomy string, deprecated bool) float64 {
	score := pct
	if critical {
		score += c.CriticalBonus
	}
	score += c.TierBonus[tier]
	if c.PreferredTaxonomy != "" && taxonomy == c.PreferredTaxonomy {
		score += c.PreferredTaxonomyBonus
	}
	if deprecated {
		score -= c.DeprecatedPenalty
	}
	return math.Round(score*10) / 10
}
