package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pitfacts/internal/runlog"
	"github.com/sells-group/pitfacts/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the entity run log",
	Long:  "Displays recent per-entity runs recorded in pit.run_log. Requires the postgres store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		limit, _ := cmd.Flags().GetInt("limit")

		sink, err := openSink(ctx)
		if err != nil {
			return err
		}
		defer sink.Close() //nolint:errcheck

		pg, ok := sink.(*store.PostgresSink)
		if !ok {
			return eris.Errorf("status: run log needs the postgres store, not %q", cfg.Store.Driver)
		}

		entries, err := runlog.New(pg.Pool()).ListRecent(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "status")
		}

		if len(entries) == 0 {
			zap.L().Info("no runs recorded, run 'pitfacts run' first")
			return nil
		}

		formatRunLog(os.Stdout, entries)
		return nil
	},
}

func init() {
	statusCmd.Flags().Int("limit", 50, "max number of entries to display (0 for all)")
	rootCmd.AddCommand(statusCmd)
}

// formatRunLog writes a tabular representation of run log entries to w.
func formatRunLog(out io.Writer, entries []runlog.Entry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tENTITY\tSNAPSHOT\tSTATUS\tSTARTED\tDURATION\tFACTS\tEVENTS\tMETRICS\tERROR")
	_, _ = fmt.Fprintln(w, "--\t------\t--------\t------\t-------\t--------\t-----\t------\t-------\t-----")

	for _, e := range entries {
		dur := "-"
		if e.CompletedAt != nil {
			dur = e.CompletedAt.Sub(e.StartedAt).Round(time.Second).String()
		}

		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			e.ID,
			e.EntityID,
			e.SnapshotVersion,
			e.Status,
			e.StartedAt.Format("2006-01-02 15:04"),
			dur,
			e.Facts,
			e.Events,
			e.Metrics,
			truncate(e.Error, 60),
		)
	}
	_ = w.Flush()
}
