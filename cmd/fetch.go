package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/pitfacts/internal/fetcher"
	"github.com/sells-group/pitfacts/internal/pipeline"
	"github.com/sells-group/pitfacts/internal/xbrl"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [cik...]",
	Short: "Download company-facts documents from EDGAR",
	Long:  "Downloads each entity's company-facts JSON into the facts directory as CIK##########.json, for offline catalog and run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("facts-dir")
		idsFile, _ := cmd.Flags().GetString("ids-file")
		if dir == "" {
			dir = cfg.Pipeline.FactsDir
		}
		if dir == "" {
			return eris.New("fetch: set --facts-dir or pipeline.facts_dir")
		}

		ids, err := entityIDs(args, idsFile)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return eris.New("fetch: no entities given")
		}

		return fetchAll(cmd.Context(), os.Stdout, newFetcher(), cfg.EDGAR.BaseURL, dir, ids, cfg.Pipeline.Workers)
	},
}

func init() {
	fetchCmd.Flags().String("facts-dir", "", "destination directory (defaults to pipeline.facts_dir)")
	fetchCmd.Flags().String("ids-file", "", "file with one CIK per line")
	rootCmd.AddCommand(fetchCmd)
}

// fetchAll downloads every entity's document. Missing entities are logged
// and skipped; any other error stops the fetch.
func fetchAll(ctx context.Context, out io.Writer, f fetcher.Fetcher, baseURL, dir string, ids []string, workers int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "fetch: create %s", dir)
	}

	norm := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, err := xbrl.NormalizeCIK(raw)
		if err != nil {
			return err
		}
		norm = append(norm, id)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	var fetched, missing atomic.Int64
	for _, id := range norm {
		g.Go(func() error {
			path := filepath.Join(dir, "CIK"+xbrl.PaddedCIK(id)+".json")
			n, err := f.DownloadToFile(gctx, pipeline.CompanyFactsURL(baseURL, id), path)
			if err != nil {
				if errors.Is(err, fetcher.ErrNotFound) {
					missing.Add(1)
					zap.L().Warn("fetch: no company facts", zap.String("entity", id))
					return nil
				}
				return eris.Wrapf(err, "fetch: entity %s", id)
			}
			fetched.Add(1)
			zap.L().Debug("fetched company facts", zap.String("entity", id), zap.Int64("bytes", n))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "fetched %d, missing %d -> %s\n", fetched.Load(), missing.Load(), dir)
	return nil
}
