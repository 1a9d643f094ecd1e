package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pitfacts/internal/fetcher"
	"github.com/sells-group/pitfacts/internal/xbrl"
)

// ErrNoFacts is returned when a source has no document for an entity.
var ErrNoFacts = eris.New("pipeline: no company facts")

// Source supplies the company-facts document for an entity.
type Source interface {
	Facts(ctx context.Context, entityID string) (*xbrl.CompanyFacts, error)
}

// DefaultEDGARBaseURL serves the company-facts API.
const DefaultEDGARBaseURL = "https://data.sec.gov"

// EDGARSource fetches company facts from the SEC API.
type EDGARSource struct {
	fetcher fetcher.Fetcher
	baseURL string
}

// NewEDGARSource creates an EDGARSource. An empty baseURL uses data.sec.gov.
func NewEDGARSource(f fetcher.Fetcher, baseURL string) *EDGARSource {
	if baseURL == "" {
		baseURL = DefaultEDGARBaseURL
	}
	return &EDGARSource{fetcher: f, baseURL: strings.TrimRight(baseURL, "/")}
}

// URL returns the company-facts URL for an entity.
func (s *EDGARSource) URL(entityID string) string {
	return CompanyFactsURL(s.baseURL, entityID)
}

// CompanyFactsURL builds {base}/api/xbrl/companyfacts/CIK##########.json.
func CompanyFactsURL(baseURL, entityID string) string {
	return fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%s.json", strings.TrimRight(baseURL, "/"), xbrl.PaddedCIK(entityID))
}

// Facts downloads and parses the entity's document.
func (s *EDGARSource) Facts(ctx context.Context, entityID string) (*xbrl.CompanyFacts, error) {
	body, err := s.fetcher.Download(ctx, s.URL(entityID))
	if err != nil {
		if errors.Is(err, fetcher.ErrNotFound) {
			return nil, eris.Wrapf(ErrNoFacts, "entity %s", entityID)
		}
		return nil, err
	}
	defer body.Close() //nolint:errcheck
	return xbrl.ParseCompanyFacts(body)
}

// DirSource reads company-facts documents from a directory, as written by
// the fetch command or a bulk companyfacts.zip extract.
type DirSource struct {
	dir string
}

// NewDirSource creates a DirSource rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Path returns the file the entity is read from: CIK##########.json when
// present, otherwise <entityID>.json.
func (s *DirSource) Path(entityID string) string {
	padded := filepath.Join(s.dir, "CIK"+xbrl.PaddedCIK(entityID)+".json")
	if _, err := os.Stat(padded); err == nil {
		return padded
	}
	return filepath.Join(s.dir, entityID+".json")
}

// Facts opens and parses the entity's file.
func (s *DirSource) Facts(_ context.Context, entityID string) (*xbrl.CompanyFacts, error) {
	f, err := os.Open(s.Path(entityID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(ErrNoFacts, "entity %s", entityID)
		}
		return nil, eris.Wrapf(err, "pipeline: open facts for %s", entityID)
	}
	defer f.Close() //nolint:errcheck
	return xbrl.ParseCompanyFacts(f)
}

// Entities lists the entity IDs with a document in the directory, sorted.
func (s *DirSource) Entities() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list facts dir")
	}
	seen := make(map[string]bool, len(matches))
	var ids []string
	for _, m := range matches {
		id, err := xbrl.NormalizeCIK(strings.TrimSuffix(filepath.Base(m), ".json"))
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
