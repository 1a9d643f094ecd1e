package xbrl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Taxonomy namespaces seen in company facts documents.
const (
	TaxonomyUSGAAP = "us-gaap"
	TaxonomyIFRS   = "ifrs-full"
	TaxonomyDEI    = "dei"
	TaxonomySRT    = "srt"
)

// QualifiedName joins a taxonomy and concept as "taxonomy:Concept".
func QualifiedName(taxonomy, concept string) string {
	return taxonomy + ":" + concept
}

// SplitQualified splits "taxonomy:Concept". A bare name yields an empty taxonomy.
func SplitQualified(name string) (taxonomy, concept string) {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// EntityID renders a CIK as the canonical entity identifier (no leading zeros).
func EntityID(cik int) string {
	return strconv.Itoa(cik)
}

// NormalizeCIK strips a "CIK" prefix and leading zeros from an identifier.
func NormalizeCIK(s string) (string, error) {
	s = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "CIK")
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return "", eris.Errorf("xbrl: invalid CIK %q", s)
	}
	return strconv.Itoa(n), nil
}

// PaddedCIK renders an entity identifier as the 10-digit form used in EDGAR URLs and file names.
func PaddedCIK(entityID string) string {
	n, err := strconv.Atoi(strings.TrimSpace(entityID))
	if err != nil {
		return entityID
	}
	return fmt.Sprintf("%010d", n)
}
