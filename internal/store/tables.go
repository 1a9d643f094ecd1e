package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/pitfacts/internal/db"
	"github.com/sells-group/pitfacts/internal/model"
)

// Schema is the Postgres schema holding every pitfacts table.
const Schema = "pit"

type table struct {
	name    string
	columns []string
	keys    []string
}

var (
	factsTable = table{
		name: "financial_facts",
		columns: []string{
			"entity_id", "concept_name", "taxonomy", "statement_type", "temporal_nature",
			"period_start", "period_end", "value", "unit", "filing_date", "available_as_of",
			"fiscal_year", "fiscal_period", "form", "is_amended", "priority_score",
			"accession_id", "frame",
		},
		keys: []string{"entity_id", "concept_name", "period_end", "fiscal_period", "unit", "accession_id"},
	}
	eventsTable = table{
		name: "filing_events",
		columns: []string{
			"entity_id", "accession_id", "filing_date", "period_end", "form",
			"fiscal_year", "fiscal_period", "is_amended", "superseded_by",
		},
		keys: []string{"entity_id", "accession_id"},
	}
	metricsTable = table{
		name: "ttm_metrics",
		columns: []string{
			"entity_id", "metric_name", "as_of_date", "period_end", "value",
			"unit", "source_form", "concept", "accession_id",
		},
		keys: []string{"entity_id", "metric_name", "as_of_date"},
	}
	calendarsTable = table{
		name: "fiscal_calendars",
		columns: []string{
			"entity_id", "dominant_month", "confidence", "sample_size",
			"dominant_month_pct", "forms_observed", "most_recent_period_end",
		},
		keys: []string{"entity_id"},
	}
)

func (t table) qualified() string { return Schema + "." + t.name }

func (t table) upsertConfig() db.UpsertConfig {
	return db.UpsertConfig{Table: t.qualified(), Columns: t.columns, ConflictKeys: t.keys}
}

// sqliteUpsert builds a single-row INSERT ... ON CONFLICT DO UPDATE.
func (t table) sqliteUpsert() string {
	keys := make(map[string]bool, len(t.keys))
	for _, k := range t.keys {
		keys[k] = true
	}
	var sets []string
	for _, c := range t.columns {
		if !keys[c] {
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		t.name, strings.Join(t.columns, ", "), placeholders, strings.Join(t.keys, ", "), strings.Join(sets, ", "))
}

// dateCodec turns dates into driver values: time.Time for pgx, text for SQLite.
type dateCodec func(time.Time) any

func pgDate(t time.Time) any { return t }

func textDate(t time.Time) any { return t.Format(model.DateLayout) }

func optionalDate(enc dateCodec, t *time.Time) any {
	if t == nil {
		return nil
	}
	return enc(*t)
}

func optionalString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func factRow(f model.FinancialFact, enc dateCodec) []any {
	return []any{
		f.EntityID, f.ConceptName, f.Taxonomy, string(f.StatementType), string(f.TemporalNature),
		optionalDate(enc, f.PeriodStart), enc(f.PeriodEnd), f.Value, f.Unit, enc(f.FilingDate), enc(f.AvailableAsOf),
		f.FiscalYear, string(f.FiscalPeriod), f.Form, f.IsAmended, f.PriorityScore,
		f.AccessionID, optionalString(f.Frame),
	}
}

func eventRow(e model.FilingEvent, enc dateCodec) []any {
	return []any{
		e.EntityID, e.AccessionID, enc(e.FilingDate), enc(e.PeriodEnd), e.Form,
		e.FiscalYear, string(e.FiscalPeriod), e.IsAmended, optionalString(e.SupersededBy),
	}
}

func metricRow(m model.TTMMetric, enc dateCodec) []any {
	return []any{
		m.EntityID, string(m.MetricName), enc(m.AsOfDate), enc(m.PeriodEnd), m.Value,
		m.Unit, m.SourceForm, m.Concept, m.Accession,
	}
}

// calendarRow leaves forms to the caller; Postgres stores TEXT[] and SQLite JSON.
func calendarRow(c model.FiscalCalendar, forms any, enc dateCodec) []any {
	var month any
	if c.HasDominantMonth() {
		month = int(c.DominantMonth)
	}
	return []any{
		c.EntityID, month, string(c.Confidence), c.SampleSize,
		c.DominantMonthPct, forms, optionalDate(enc, c.MostRecentPeriodEnd),
	}
}
