package model

import "strings"

// amendmentSuffix marks a corrected refiling, e.g. "10-K/A".
const amendmentSuffix = "/A"

// annualForms are the base form designations that carry full-year results.
var annualForms = map[string]bool{
	"10-K": true,
	"20-F": true,
	"40-F": true,
}

// IsAmended reports whether the form designation marks an amendment.
func IsAmended(form string) bool {
	return strings.HasSuffix(strings.ToUpper(strings.TrimSpace(form)), amendmentSuffix)
}

// BaseForm strips the amendment suffix and normalizes case.
func BaseForm(form string) string {
	f := strings.ToUpper(strings.TrimSpace(form))
	return strings.TrimSuffix(f, amendmentSuffix)
}

// IsAnnualForm reports whether the form (amended or not) is an annual report.
func IsAnnualForm(form string) bool {
	return annualForms[BaseForm(form)]
}
