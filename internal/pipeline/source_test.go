package pipeline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pitfacts/internal/fetcher"
	"github.com/sells-group/pitfacts/internal/resilience"
)

func stringsReader(s string) io.Reader { return strings.NewReader(s) }

func testFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout: 5 * time.Second,
		Retry:   resilience.RetryConfig{MaxAttempts: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
	})
}

func TestCompanyFactsURL(t *testing.T) {
	assert.Equal(t, "https://data.sec.gov/api/xbrl/companyfacts/CIK0000320193.json",
		CompanyFactsURL("https://data.sec.gov/", "320193"))
	assert.Equal(t, "https://data.sec.gov/api/xbrl/companyfacts/CIK0000000042.json",
		NewEDGARSource(nil, "").URL("42"))
}

func TestEDGARSource_Facts(t *testing.T) {
	var gotPath, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		if r.URL.Path == "/api/xbrl/companyfacts/CIK0000000042.json" {
			_, _ = io.WriteString(w, acmeFacts)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	src := NewEDGARSource(testFetcher(), srv.URL)

	doc, err := src.Facts(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", doc.EntityName)
	assert.Equal(t, "/api/xbrl/companyfacts/CIK0000000042.json", gotPath)
	assert.Equal(t, fetcher.DefaultUserAgent, gotUA)

	_, err = src.Facts(context.Background(), "7")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoFacts))
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CIK0000000042.json"), []byte(acmeFacts), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "7.json"), []byte(`{"cik": 7, "entityName": "Seven", "facts": {}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	src := NewDirSource(dir)

	doc, err := src.Facts(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", doc.EntityName)

	doc, err = src.Facts(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "Seven", doc.EntityName)

	_, err = src.Facts(context.Background(), "8")
	assert.True(t, errors.Is(err, ErrNoFacts))

	_, err = src.Facts(context.Background(), "bad")
	assert.Error(t, err)

	ids, err := src.Entities()
	require.NoError(t, err)
	assert.Equal(t, []string{"42", "7"}, ids)
}
