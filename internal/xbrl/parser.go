// Package xbrl parses EDGAR company-facts documents and flattens them into raw facts.
package xbrl

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/rotisserie/eris"
)

// CompanyFacts represents the EDGAR company facts JSON structure.
type CompanyFacts struct {
	CIK        int               `json:"cik"`
	EntityName string            `json:"entityName"`
	Facts      map[string]FactNS `json:"facts"`
}

// FactNS groups facts by concept name within one taxonomy (e.g., "us-gaap", "dei").
type FactNS map[string]Fact

// Fact is a single concept with its instances keyed by unit.
type Fact struct {
	Label       string                 `json:"label"`
	Description string                 `json:"description"`
	Units       map[string][]FactValue `json:"units"`
}

// FactValue is a single reported instance of a concept.
type FactValue struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end"`
	Val   any    `json:"val"`
	Accn  string `json:"accn"`
	FY    int    `json:"fy"`
	FP    string `json:"fp"`
	Form  string `json:"form"`
	Filed string `json:"filed"`
	Frame string `json:"frame,omitempty"`
}

// RawFact is one instance lifted out of the nested document, still unvalidated.
type RawFact struct {
	Taxonomy    string
	Concept     string
	Label       string
	Description string
	Unit        string
	FactValue
}

// ParseCompanyFacts parses an EDGAR company facts document from a reader.
// Numbers are kept as json.Number so non-numeric values can be told apart downstream.
func ParseCompanyFacts(r io.Reader) (*CompanyFacts, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var facts CompanyFacts
	if err := dec.Decode(&facts); err != nil {
		return nil, eris.Wrap(err, "xbrl: parse company facts")
	}
	return &facts, nil
}

// Flatten lifts every instance out of the document in a stable order:
// taxonomy, concept, unit, then the order instances appear in the source.
func Flatten(facts *CompanyFacts) []RawFact {
	if facts == nil || len(facts.Facts) == 0 {
		return nil
	}

	var out []RawFact
	for _, ns := range sortedKeys(facts.Facts) {
		concepts := facts.Facts[ns]
		for _, name := range sortedKeys(concepts) {
			fact := concepts[name]
			for _, unit := range sortedKeys(fact.Units) {
				for _, v := range fact.Units[unit] {
					out = append(out, RawFact{
						Taxonomy:    ns,
						Concept:     name,
						Label:       fact.Label,
						Description: fact.Description,
						Unit:        unit,
						FactValue:   v,
					})
				}
			}
		}
	}
	return out
}

// Concepts returns the qualified names ("taxonomy:Concept") present in the document.
func Concepts(facts *CompanyFacts) []string {
	if facts == nil {
		return nil
	}
	var out []string
	for _, ns := range sortedKeys(facts.Facts) {
		for _, name := range sortedKeys(facts.Facts[ns]) {
			out = append(out, QualifiedName(ns, name))
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
