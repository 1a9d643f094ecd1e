package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pitfacts/internal/normalize"
	"github.com/sells-group/pitfacts/internal/pipeline"
	"github.com/sells-group/pitfacts/internal/runlog"
	"github.com/sells-group/pitfacts/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run [cik...]",
	Short: "Process entities against the pinned snapshot",
	Long: `Runs normalization, fiscal calendar resolution, timeline construction and
trailing metrics for each entity, and upserts the results into the configured store.
Entities come from arguments, --ids-file, or (with --all) every file in the facts directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		factsDir, _ := cmd.Flags().GetString("facts-dir")
		idsFile, _ := cmd.Flags().GetString("ids-file")
		all, _ := cmd.Flags().GetBool("all")
		workers, _ := cmd.Flags().GetInt("workers")
		if factsDir == "" {
			factsDir = cfg.Pipeline.FactsDir
		}
		if workers <= 0 {
			workers = cfg.Pipeline.Workers
		}

		ids, err := entityIDs(args, idsFile)
		if err != nil {
			return err
		}
		if all {
			if factsDir == "" {
				return eris.New("run: --all needs a facts directory")
			}
			dirIDs, err := pipeline.NewDirSource(factsDir).Entities()
			if err != nil {
				return err
			}
			ids = append(ids, dirIDs...)
		}
		if len(ids) == 0 {
			return eris.New("run: no entities given")
		}

		p, err := loadPipeline()
		if err != nil {
			return err
		}

		sink, err := openSink(ctx)
		if err != nil {
			return err
		}
		defer sink.Close() //nolint:errcheck
		if err := sink.Migrate(ctx); err != nil {
			return eris.Wrap(err, "run: migrate store")
		}

		opts := pipeline.RunnerOptions{Workers: workers}
		if pg, ok := sink.(*store.PostgresSink); ok {
			opts.RunLog = runlog.New(pg.Pool())
		}

		sum, err := pipeline.NewRunner(p, newSource(factsDir), sink, opts).Run(ctx, ids)
		if sum != nil {
			formatSummary(os.Stdout, sum)
		}
		if err != nil {
			return err
		}
		if len(sum.Failed) > 0 {
			zap.L().Warn("some entities failed",
				zap.Int("failed", len(sum.Failed)),
				zap.Strings("retryable", sum.Retryable),
			)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().String("facts-dir", "", "read company facts from this directory instead of the EDGAR API")
	runCmd.Flags().String("ids-file", "", "file with one CIK per line")
	runCmd.Flags().Bool("all", false, "process every entity in the facts directory")
	runCmd.Flags().Int("workers", 0, "parallel entities (defaults to pipeline.workers)")
	rootCmd.AddCommand(runCmd)
}

// formatSummary writes a run summary and its failures to w.
func formatSummary(out io.Writer, sum *pipeline.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "RUN\t%s\n", sum.RunID)
	_, _ = fmt.Fprintf(w, "SNAPSHOT\t%s\n", sum.SnapshotVersion)
	_, _ = fmt.Fprintf(w, "ENTITIES\t%d (%d ok, %d failed)\n", sum.Entities, sum.Succeeded, len(sum.Failed))
	_, _ = fmt.Fprintf(w, "FACTS\t%d\n", sum.Facts)
	_, _ = fmt.Fprintf(w, "EVENTS\t%d\n", sum.Events)
	_, _ = fmt.Fprintf(w, "METRICS\t%d\n", sum.Metrics)
	_, _ = fmt.Fprintf(w, "DURATION\t%s\n", sum.Duration.Round(time.Millisecond))

	reasons := make([]normalize.Reason, 0, len(sum.Discards))
	for r := range sum.Discards {
		reasons = append(reasons, r)
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
	for _, r := range reasons {
		_, _ = fmt.Fprintf(w, "DISCARDED %s\t%d\n", r, sum.Discards[r])
	}
	_ = w.Flush()

	if len(sum.Failed) == 0 {
		return
	}
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "\nENTITY\tSTAGE\tKIND\tERROR")
	for _, f := range sum.Failed {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.EntityID, f.Stage, f.Kind, truncate(f.Error, 80))
	}
	_ = w.Flush()
}
