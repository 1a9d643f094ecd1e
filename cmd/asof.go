package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/pitfacts/internal/model"
	"github.com/sells-group/pitfacts/internal/pipeline"
	"github.com/sells-group/pitfacts/internal/store"
	"github.com/sells-group/pitfacts/internal/timeline"
	"github.com/sells-group/pitfacts/internal/ttm"
	"github.com/sells-group/pitfacts/internal/xbrl"
)

var asofCmd = &cobra.Command{
	Use:   "asof <cik> <yyyy-mm-dd>",
	Short: "Show what was publicly known about an entity on a date",
	Long: `Prints the filing in effect on the date and the latest trailing metrics disclosed
on or before it. Reads persisted results by default; with --file or --facts-dir the
entity is processed from its company-facts document instead.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		entityID, err := xbrl.NormalizeCIK(args[0])
		if err != nil {
			return err
		}
		date, err := model.ParseDate(args[1])
		if err != nil {
			return eris.Wrapf(err, "asof: parse date %q", args[1])
		}

		file, _ := cmd.Flags().GetString("file")
		factsDir, _ := cmd.Flags().GetString("facts-dir")

		var view asOfView
		if file != "" || factsDir != "" {
			view, err = asOfFromDocument(ctx, entityID, date, file, factsDir)
		} else {
			view, err = asOfFromStore(ctx, entityID, date)
		}
		if err != nil {
			return err
		}

		formatAsOf(os.Stdout, view)
		return nil
	},
}

func init() {
	asofCmd.Flags().String("file", "", "company-facts JSON file to process")
	asofCmd.Flags().String("facts-dir", "", "directory holding CIK##########.json documents")
	rootCmd.AddCommand(asofCmd)
}

// asOfView is the answer to "what was known about entity on date".
type asOfView struct {
	EntityID string
	Date     time.Time
	Event    *model.FilingEvent
	Metrics  []model.TTMMetric
}

func buildAsOfView(entityID string, date time.Time, tl *timeline.Timeline, metrics []model.TTMMetric) asOfView {
	v := asOfView{EntityID: entityID, Date: date, Metrics: ttm.KnownAsOf(metrics, date)}
	if ev, ok := tl.AsOf(date); ok {
		v.Event = &ev
	}
	return v
}

func asOfFromDocument(ctx context.Context, entityID string, date time.Time, file, factsDir string) (asOfView, error) {
	var doc *xbrl.CompanyFacts
	var err error
	if file != "" {
		doc, err = readCompanyFacts(file)
	} else {
		doc, err = pipeline.NewDirSource(factsDir).Facts(ctx, entityID)
	}
	if err != nil {
		return asOfView{}, err
	}

	p, err := loadPipeline()
	if err != nil {
		return asOfView{}, err
	}
	res, err := p.Process(entityID, doc)
	if err != nil {
		return asOfView{}, err
	}
	return buildAsOfView(entityID, date, res.Timeline, res.Metrics), nil
}

func readCompanyFacts(path string) (*xbrl.CompanyFacts, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "asof: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return xbrl.ParseCompanyFacts(f)
}

func asOfFromStore(ctx context.Context, entityID string, date time.Time) (asOfView, error) {
	sink, err := openSink(ctx)
	if err != nil {
		return asOfView{}, err
	}
	defer sink.Close() //nolint:errcheck
	return asOfFromSink(ctx, sink, entityID, date)
}

// asOfFromSink rebuilds the timeline from the persisted filing history.
func asOfFromSink(ctx context.Context, sink store.Sink, entityID string, date time.Time) (asOfView, error) {
	events, err := sink.Events(ctx, entityID)
	if err != nil {
		return asOfView{}, err
	}
	if len(events) == 0 {
		return asOfView{}, eris.Errorf("asof: no stored filings for %s; run it first", entityID)
	}
	metrics, err := sink.Metrics(ctx, entityID)
	if err != nil {
		return asOfView{}, err
	}
	return buildAsOfView(entityID, date, timeline.Build(entityID, events), metrics), nil
}

func formatAsOf(out io.Writer, v asOfView) {
	p := message.NewPrinter(language.English)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "Entity %s as of %s\n\n", v.EntityID, v.Date.Format(time.DateOnly))
	if v.Event == nil {
		_, _ = fmt.Fprintln(w, "No filings disclosed yet.")
		_ = w.Flush()
		return
	}

	e := v.Event
	_, _ = fmt.Fprintln(w, "FILED\tFORM\tFY\tFP\tPERIOD_END\tACCESSION")
	_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
		e.FilingDate.Format(time.DateOnly), e.Form, e.FiscalYear, e.FiscalPeriod,
		e.PeriodEnd.Format(time.DateOnly), e.AccessionID)

	if len(v.Metrics) > 0 {
		_, _ = fmt.Fprintln(w, "\nMETRIC\tVALUE\tUNIT\tPERIOD_END\tAS_OF\tFORM")
		for _, m := range v.Metrics {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				m.MetricName, p.Sprintf("%.0f", m.Value), m.Unit,
				m.PeriodEnd.Format(time.DateOnly), m.AsOfDate.Format(time.DateOnly), m.SourceForm)
		}
	}
	_ = w.Flush()
}
