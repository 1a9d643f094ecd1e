package main

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pitfacts/internal/classify"
	"github.com/sells-group/pitfacts/internal/fetcher"
	"github.com/sells-group/pitfacts/internal/pipeline"
	"github.com/sells-group/pitfacts/internal/store"
)

// openSink opens the configured result store.
func openSink(ctx context.Context) (store.Sink, error) {
	return store.Open(ctx, store.Options{
		Driver:      cfg.Store.Driver,
		DatabaseURL: cfg.Store.DatabaseURL,
		SQLitePath:  cfg.Store.SQLitePath,
		MaxConns:    cfg.Store.MaxConns,
		BatchSize:   cfg.Pipeline.BatchSize,
		Retry:       cfg.Retry.Policy(),
	})
}

// loadPipeline loads the pinned snapshot. A snapshot that cannot be read stops the run.
func loadPipeline() (*pipeline.Pipeline, error) {
	snap, err := classify.LoadSnapshot(cfg.Classify.SnapshotPath)
	if err != nil {
		return nil, eris.Wrap(err, "load reference snapshot")
	}
	return pipeline.New(classify.New(snap, classify.DefaultRules()), pipelineConfig()), nil
}

func pipelineConfig() pipeline.Config {
	pc := pipeline.DefaultConfig()
	pc.Calendar = cfg.Calendar.Resolver()
	pc.Normalize = cfg.Normalize.Normalizer()
	return pc
}

func newFetcher() *fetcher.HTTPFetcher {
	retry := cfg.Retry.Policy()
	if cfg.EDGAR.MaxRetries > 0 {
		retry.MaxAttempts = cfg.EDGAR.MaxRetries
	}
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  cfg.EDGAR.UserAgent,
		Timeout:    cfg.EDGAR.Timeout(),
		Retry:      retry,
		RatePerSec: cfg.EDGAR.RatePerSec,
	})
}

// newSource reads from factsDir when set, otherwise from the EDGAR API.
func newSource(factsDir string) pipeline.Source {
	if factsDir != "" {
		return pipeline.NewDirSource(factsDir)
	}
	return pipeline.NewEDGARSource(newFetcher(), cfg.EDGAR.BaseURL)
}

// entityIDs merges positional arguments with IDs listed one per line in
// path. Blank lines and lines starting with # are skipped.
func entityIDs(args []string, path string) ([]string, error) {
	ids := append([]string(nil), args...)
	if path == "" {
		return ids, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open entity list %s", path)
	}
	defer f.Close() //nolint:errcheck

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	return ids, eris.Wrapf(sc.Err(), "read entity list %s", path)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
