package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pitfacts/internal/classify"
	"github.com/sells-group/pitfacts/internal/pipeline"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog [cik...]",
	Short: "Build a versioned reference snapshot",
	Long: `Builds the concept classification snapshot from a set of company-facts documents.
Without CIK arguments, every document in the facts directory is used. The snapshot
is written as YAML and pinned by later runs via classify.snapshot_path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		factsDir, _ := cmd.Flags().GetString("facts-dir")
		version, _ := cmd.Flags().GetString("version")
		out, _ := cmd.Flags().GetString("out")
		if factsDir == "" {
			factsDir = cfg.Pipeline.FactsDir
		}
		if out == "" {
			out = cfg.Classify.SnapshotPath
		}
		return buildCatalog(cmd.Context(), os.Stdout, newSource(factsDir), factsDir, args, version, out)
	},
}

func init() {
	catalogCmd.Flags().String("facts-dir", "", "directory of company-facts JSON files (defaults to pipeline.facts_dir)")
	catalogCmd.Flags().String("version", "", "snapshot version (defaults to a UTC timestamp)")
	catalogCmd.Flags().String("out", "", "output path (defaults to classify.snapshot_path)")
	rootCmd.AddCommand(catalogCmd)
}

func buildCatalog(ctx context.Context, w io.Writer, src pipeline.Source, factsDir string, ids []string, version, out string) error {
	if len(ids) == 0 {
		if factsDir == "" {
			return eris.New("catalog: pass CIKs or set a facts directory")
		}
		var err error
		if ids, err = pipeline.NewDirSource(factsDir).Entities(); err != nil {
			return err
		}
	}

	builtAt := time.Now().UTC()
	if version == "" {
		version = builtAt.Format("20060102T150405Z")
	}

	cat := classify.NewCatalog()
	for _, id := range ids {
		doc, err := src.Facts(ctx, id)
		if err != nil {
			zap.L().Warn("catalog: skipping entity", zap.String("entity", id), zap.Error(err))
			continue
		}
		cat.Add(id, doc)
	}
	if cat.Entities() == 0 {
		return eris.New("catalog: no entities could be read")
	}

	snap := cat.Build(version, builtAt, cfg.Classify.Scoring(), classify.DefaultRules())
	if err := snap.Save(out); err != nil {
		return eris.Wrap(err, "catalog: save snapshot")
	}

	_, _ = fmt.Fprintf(w, "snapshot %s: %d concepts from %d entities -> %s\n",
		snap.Version(), snap.Len(), snap.EntityCount(), out)
	return nil
}
