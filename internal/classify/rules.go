package classify

import (
	"strings"

	"github.com/sells-group/pitfacts/internal/model"
)

// Rule maps concept names matching Match onto a statement type.
// Match receives lower-cased text: the concept name, optionally followed by
// its label and description.
type Rule struct {
	Name      string
	Match     func(name string) bool
	Statement model.StatementType
}

// RuleSet is an ordered, first-match-wins rule list with a mandatory default.
type RuleSet struct {
	rules    []Rule
	fallback Rule
}

// NewRuleSet builds a rule set. Concepts matching none of rules get fallback.
func NewRuleSet(fallback model.StatementType, rules ...Rule) RuleSet {
	rs := RuleSet{
		rules: make([]Rule, 0, len(rules)),
		fallback: Rule{
			Name:      "default",
			Match:     func(string) bool { return true },
			Statement: fallback,
		},
	}
	for _, r := range rules {
		if r.Match != nil {
			rs.rules = append(rs.rules, r)
		}
	}
	return rs
}

// Match returns the first rule that matches the concept name.
func (rs RuleSet) Match(concept string) Rule {
	return rs.match(strings.ToLower(concept))
}

// MatchText evaluates the rules against the concept name together with its
// human-readable label and description, for concepts whose names carry no
// statement vocabulary.
func (rs RuleSet) MatchText(concept, label, description string) Rule {
	text := concept
	for _, s := range []string{label, description} {
		if s = strings.TrimSpace(s); s != "" {
			text += " " + s
		}
	}
	return rs.match(strings.ToLower(text))
}

func (rs RuleSet) match(text string) Rule {
	for _, r := range rs.rules {
		if r.Match(text) {
			return r
		}
	}
	if rs.fallback.Match == nil {
		return Rule{Name: "default", Statement: model.StatementOther}
	}
	return rs.fallback
}

// Names lists rule names in evaluation order, default last.
func (rs RuleSet) Names() []string {
	out := make([]string, 0, len(rs.rules)+1)
	for _, r := range rs.rules {
		out = append(out, r.Name)
	}
	return append(out, "default")
}

// DefaultRules returns the standard keyword rules for EDGAR concept names.
func DefaultRules() RuleSet {
	return NewRuleSet(model.StatementOther,
		Rule{
			Name:      "document",
			Match:     hasPrefix("entity", "document", "amendment", "currentfiscal"),
			Statement: model.StatementDocument,
		},
		Rule{
			Name: "cash_flow",
			Match: containsAny(
				"cashflow", "operatingactivities", "investingactivities", "financingactivities",
				"cashprovidedby", "cashusedin", "proceedsfrom", "paymentsto", "paymentsfor",
				"repaymentsof", "periodincreasedecrease",
			),
			Statement: model.StatementCashFlow,
		},
		Rule{
			// Charges against assets still cover a period.
			Name: "period_charges",
			Match: all(
				containsAny("impairment", "amortization", "depreciation", "depletion"),
				not(containsAny("accumulated")),
			),
			Statement: model.StatementIncome,
		},
		Rule{
			Name: "income",
			Match: all(
				containsAny("revenue", "sales", "income", "expense", "profit", "loss", "earnings", "costof"),
				not(containsAny("payable", "receivable", "accrued", "accumulated", "liabilit", "asset", "deferredrevenue")),
			),
			Statement: model.StatementIncome,
		},
		Rule{
			Name: "balance_sheet",
			Match: containsAny(
				"asset", "liabilit", "equity", "stock", "debt", "payable", "receivable",
				"inventor", "goodwill", "accrued", "accumulated", "sharesoutstanding", "sharesissued",
				"carryingvalue", "deferredrevenue",
			),
			Statement: model.StatementBalanceSheet,
		},
	)
}

func containsAny(words ...string) func(string) bool {
	return func(name string) bool {
		for _, w := range words {
			if strings.Contains(name, w) {
				return true
			}
		}
		return false
	}
}

func hasPrefix(prefixes ...string) func(string) bool {
	return func(name string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(name, p) {
				return true
			}
		}
		return false
	}
}

func all(preds ...func(string) bool) func(string) bool {
	return func(name string) bool {
		for _, p := range preds {
			if !p(name) {
				return false
			}
		}
		return true
	}
}

func not(pred func(string) bool) func(string) bool {
	return func(name string) bool { return !pred(name) }
}
