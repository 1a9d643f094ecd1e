package classify

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/pitfacts/internal/model"
	"github.com/sells-group/pitfacts/internal/xbrl"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestTierFor(t *testing.T) {
	s := DefaultScoring()
	tests := []struct {
		pct  float64
		want model.Tier
	}{
		{100, model.TierUniversal},
		{80, model.TierUniversal},
		{79.9, model.TierVeryCommon},
		{60, model.TierVeryCommon},
		{59.99, model.TierCommon},
		{40, model.TierCommon},
		{20, model.TierModerate},
		{10, model.TierRare},
		{9.99, model.TierVeryRare},
		{0, model.TierVeryRare},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.TierFor(tt.pct), "pct=%v", tt.pct)
	}
}

func TestTierFor_CustomBands(t *testing.T) {
	s := ScoringConfig{Bands: []TierBand{
		{Min: 10, Tier: model.TierRare},
		{Min: 90, Tier: model.TierUniversal},
	}}
	assert.Equal(t, model.TierUniversal, s.TierFor(95))
	assert.Equal(t, model.TierRare, s.TierFor(50))
	assert.Equal(t, model.TierVeryRare, s.TierFor(5))
}

func TestScore(t *testing.T) {
	s := DefaultScoring()
	assert.InDelta(t, 175.0, s.Score(95, true, model.TierUniversal, "us-gaap", false), 0.001)
	assert.InDelta(t, 80.0, s.Score(65, false, model.TierVeryCommon, "ifrs-full", false), 0.001)
	assert.InDelta(t, -90.0, s.Score(5, false, model.TierVeryRare, "us-gaap", true), 0.001)
	assert.InDelta(t, 33.3, s.Score(33.333, false, model.TierModerate, "dei", false), 0.001)
}

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()
	tests := []struct {
		concept string
		want    model.StatementType
	}{
		{"Assets", model.StatementBalanceSheet},
		{"LiabilitiesAndStockholdersEquity", model.StatementBalanceSheet},
		{"CommonStockSharesOutstanding", model.StatementBalanceSheet},
		{"AccumulatedOtherComprehensiveIncomeLossNetOfTax", model.StatementBalanceSheet},
		{"AccountsPayableCurrent", model.StatementBalanceSheet},
		{"DeferredRevenueCurrent", model.StatementBalanceSheet},
		{"Revenues", model.StatementIncome},
		{"NetIncomeLoss", model.StatementIncome},
		{"EarningsPerShareBasic", model.StatementIncome},
		{"CostOfGoodsAndServicesSold", model.StatementIncome},
		{"NetCashProvidedByUsedInOperatingActivities", model.StatementCashFlow},
		{"PaymentsToAcquirePropertyPlantAndEquipment", model.StatementCashFlow},
		{"ProceedsFromIssuanceOfLongTermDebt", model.StatementCashFlow},
		{"ImpairmentOfLongLivedAssetsHeldForUse", model.StatementIncome},
		{"AmortizationOfIntangibleAssets", model.StatementIncome},
		{"DepreciationDepletionAndAmortization", model.StatementIncome},
		{"AccumulatedDepreciationDepletionAndAmortizationPropertyPlantAndEquipment", model.StatementBalanceSheet},
		{"EntityCommonStockSharesOutstanding", model.StatementDocument},
		{"DocumentFiscalYearFocus", model.StatementDocument},
		{"NumberOfEmployees", model.StatementOther},
		{"", model.StatementOther},
	}
	for _, tt := range tests {
		t.Run(tt.concept, func(t *testing.T) {
			assert.Equal(t, tt.want, rules.Match(tt.concept).Statement)
		})
	}
}

func TestRuleSet_FirstMatchWins(t *testing.T) {
	rs := NewRuleSet(model.StatementOther,
		Rule{Name: "a", Match: containsAny("cash"), Statement: model.StatementCashFlow},
		Rule{Name: "b", Match: containsAny("cash"), Statement: model.StatementBalanceSheet},
		Rule{Name: "nil"},
	)
	assert.Equal(t, "a", rs.Match("CashThing").Name)
	assert.Equal(t, "default", rs.Match("Other").Name)
	assert.Equal(t, []string{"a", "b", "default"}, rs.Names())

	var zero RuleSet
	assert.Equal(t, model.StatementOther, zero.Match("Assets").Statement)
}

func TestRuleSet_MatchText(t *testing.T) {
	rules := DefaultRules()

	assert.Equal(t, model.StatementOther, rules.Match("ZzCustomLine").Statement)
	assert.Equal(t, model.StatementIncome,
		rules.MatchText("ZzCustomLine", "Total Revenue from operations", "").Statement)
	assert.Equal(t, model.StatementBalanceSheet,
		rules.MatchText("ZzCustomBalance", "", "Carrying value of goodwill at the reporting date").Statement)
	assert.Equal(t, rules.Match("Assets"), rules.MatchText("Assets", "  ", ""))
}

func TestClassifier_SnapshotHit(t *testing.T) {
	stored := model.FieldDescriptor{
		ConceptName:     "Revenues",
		Taxonomy:        "us-gaap",
		StatementType:   model.StatementIncome,
		TemporalNature:  model.Period,
		AvailabilityPct: 72.5,
		Tier:            model.TierVeryCommon,
		PriorityScore:   142.5,
		IsCritical:      true,
	}
	c := New(NewSnapshot("v1", time.Now(), 40, []model.FieldDescriptor{stored}), DefaultRules())

	assert.Equal(t, stored, c.Classify("us-gaap", "Revenues"))
	assert.Equal(t, "v1", c.Snapshot().Version())
}

func TestClassifier_Fallback(t *testing.T) {
	c := New(nil, DefaultRules())

	d := c.Classify("us-gaap", "InventoryNet")
	assert.Equal(t, "InventoryNet", d.ConceptName)
	assert.Equal(t, "us-gaap", d.Taxonomy)
	assert.Equal(t, model.StatementBalanceSheet, d.StatementType)
	assert.Equal(t, model.PointInTime, d.TemporalNature)
	assert.Equal(t, model.TierVeryRare, d.Tier)
	assert.Zero(t, d.PriorityScore)
	assert.Zero(t, d.AvailabilityPct)

	d = c.Classify("dei", "SomethingUnheardOf")
	assert.Equal(t, model.StatementOther, d.StatementType)
	assert.Equal(t, model.Period, d.TemporalNature)

	assert.Equal(t, c.Classify("us-gaap", "InventoryNet"), c.Classify("us-gaap", "InventoryNet"))
}

func TestIsCritical(t *testing.T) {
	assert.True(t, IsCritical("Revenues"))
	assert.True(t, IsCritical("NetIncomeLoss"))
	assert.True(t, IsCritical("LongTermDebtNoncurrent"))
	assert.True(t, IsCritical("commonstockvalue"))
	assert.True(t, IsCritical("Assets"))
	assert.True(t, IsCritical("Liabilities"))
	assert.False(t, IsCritical("DeferredTaxAssetsNet"))
	assert.False(t, IsCritical("OtherLiabilitiesNoncurrent"))
	assert.False(t, IsCritical("NumberOfEmployees"))
}

func catalogFacts(cik int, concepts map[string][]string) *xbrl.CompanyFacts {
	f := &xbrl.CompanyFacts{CIK: cik, Facts: map[string]xbrl.FactNS{}}
	for ns, names := range concepts {
		f.Facts[ns] = xbrl.FactNS{}
		for _, n := range names {
			label := n
			if strings.HasPrefix(n, "Old") {
				label = "Deprecated: " + n
			}
			f.Facts[ns][n] = xbrl.Fact{Label: label}
		}
	}
	return f
}

func TestCatalog_Build(t *testing.T) {
	cat := NewCatalog()
	cat.Add("1", catalogFacts(1, map[string][]string{"us-gaap": {"Assets", "Revenues", "OldConcept"}}))
	cat.Add("2", catalogFacts(2, map[string][]string{"us-gaap": {"Assets"}, "ifrs-full": {"Revenue"}}))
	cat.Add("2", catalogFacts(2, map[string][]string{"us-gaap": {"Assets"}}))
	cat.Add("3", nil)
	require.Equal(t, 2, cat.Entities())

	built := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	snap := cat.Build("2026-01-02", built, DefaultScoring(), DefaultRules())

	assert.Equal(t, "2026-01-02", snap.Version())
	assert.Equal(t, 2, snap.EntityCount())
	assert.Equal(t, 4, snap.Len())

	assets, ok := snap.Lookup("Assets")
	require.True(t, ok)
	assert.InDelta(t, 100.0, assets.AvailabilityPct, 0.001)
	assert.Equal(t, model.TierUniversal, assets.Tier)
	assert.Equal(t, model.PointInTime, assets.TemporalNature)
	assert.True(t, assets.IsCritical)
	assert.InDelta(t, 180.0, assets.PriorityScore, 0.001)

	rev, ok := snap.Lookup("Revenues")
	require.True(t, ok)
	assert.True(t, rev.IsCritical)
	assert.Equal(t, model.TierCommon, rev.Tier)
	assert.InDelta(t, 105.0, rev.PriorityScore, 0.001)

	ifrsRev, ok := snap.Lookup("Revenue")
	require.True(t, ok)
	assert.Equal(t, "ifrs-full", ifrsRev.Taxonomy)
	assert.InDelta(t, 100.0, ifrsRev.PriorityScore, 0.001)

	old, ok := snap.Lookup("OldConcept")
	require.True(t, ok)
	assert.True(t, old.Deprecated)
	assert.InDelta(t, -45.0, old.PriorityScore, 0.001)

	descs := snap.Descriptors()
	require.Len(t, descs, 4)
	assert.Equal(t, "Assets", descs[0].ConceptName)
	assert.Equal(t, "OldConcept", descs[3].ConceptName)

	t.Run("label carries the vocabulary", func(t *testing.T) {
		cat := NewCatalog()
		cat.Add("1", &xbrl.CompanyFacts{CIK: 1, Facts: map[string]xbrl.FactNS{
			"acme": {
				"ZzCustomLine":  xbrl.Fact{Label: "Total Revenue from operations"},
				"ZzCustomOther": xbrl.Fact{Label: "Headcount at period end"},
			},
		}})
		snap := cat.Build("v", built, DefaultScoring(), DefaultRules())

		line, ok := snap.Lookup("ZzCustomLine")
		require.True(t, ok)
		assert.Equal(t, model.StatementIncome, line.StatementType)
		assert.Equal(t, model.Period, line.TemporalNature)
		assert.Equal(t, "Total Revenue from operations", line.Label)

		other, ok := snap.Lookup("ZzCustomOther")
		require.True(t, ok)
		assert.Equal(t, model.StatementOther, other.StatementType)
	})
}

func TestSnapshot_SaveLoad(t *testing.T) {
	snap := NewSnapshot("v7", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), 12, []model.FieldDescriptor{
		{ConceptName: "Assets", Taxonomy: "us-gaap", StatementType: model.StatementBalanceSheet, TemporalNature: model.PointInTime, AvailabilityPct: 100, Tier: model.TierUniversal, PriorityScore: 130},
		{ConceptName: "Revenues", Taxonomy: "us-gaap", StatementType: model.StatementIncome, TemporalNature: model.Period, AvailabilityPct: 50, Tier: model.TierCommon, PriorityScore: 105, IsCritical: true},
	})

	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	require.NoError(t, snap.Save(path))

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, "v7", loaded.Version())
	assert.Equal(t, 12, loaded.EntityCount())
	assert.True(t, snap.BuiltAt().Equal(loaded.BuiltAt()))
	assert.Equal(t, snap.Descriptors(), loaded.Descriptors())
}

func TestLoadSnapshot_Errors(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classify: read snapshot")

	path := filepath.Join(t.TempDir(), "noversion.yaml")
	require.NoError(t, EmptySnapshotWithVersion("").Save(path))
	_, err = LoadSnapshot(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no version")
}

// EmptySnapshotWithVersion builds an empty snapshot with an explicit version for tests.
func EmptySnapshotWithVersion(v string) *Snapshot {
	return NewSnapshot(v, time.Time{}, 0, nil)
}
