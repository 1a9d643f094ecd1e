package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pitfacts/internal/db"
	"github.com/sells-group/pitfacts/internal/model"
	"github.com/sells-group/pitfacts/internal/resilience"
)

// DefaultBatchSize bounds the rows sent per COPY.
const DefaultBatchSize = 5000

// PostgresSink writes to the pit schema with COPY-staged bulk upserts.
// Each batch is retried on transient errors.
type PostgresSink struct {
	pool      db.Pool
	batchSize int
	retry     resilience.RetryConfig
	closeFn   func()
}

// NewPostgres creates a PostgresSink on pool.
func NewPostgres(pool db.Pool, batchSize int, retry resilience.RetryConfig) *PostgresSink {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	retry.OnRetry = resilience.RetryLogger("store.postgres", "bulk upsert")
	return &PostgresSink{pool: pool, batchSize: batchSize, retry: retry}
}

// Pool exposes the connection pool for the run log and migrations.
func (s *PostgresSink) Pool() db.Pool { return s.pool }

func (s *PostgresSink) upsert(ctx context.Context, t table, rows [][]any) (int64, error) {
	var total int64
	for start := 0; start < len(rows); start += s.batchSize {
		batch := rows[start:min(start+s.batchSize, len(rows))]
		n, err := resilience.DoVal(ctx, s.retry, func(ctx context.Context) (int64, error) {
			return db.BulkUpsert(ctx, s.pool, t.upsertConfig(), batch)
		})
		if err != nil {
			return total, eris.Wrapf(err, "store: upsert %s", t.qualified())
		}
		total += n
	}
	return total, nil
}

func (s *PostgresSink) UpsertFacts(ctx context.Context, facts []model.FinancialFact) (int64, error) {
	rows := make([][]any, len(facts))
	for i, f := range facts {
		rows[i] = factRow(f, pgDate)
	}
	return s.upsert(ctx, factsTable, rows)
}

func (s *PostgresSink) UpsertEvents(ctx context.Context, events []model.FilingEvent) (int64, error) {
	rows := make([][]any, len(events))
	for i, e := range events {
		rows[i] = eventRow(e, pgDate)
	}
	return s.upsert(ctx, eventsTable, rows)
}

func (s *PostgresSink) UpsertMetrics(ctx context.Context, metrics []model.TTMMetric) (int64, error) {
	rows := make([][]any, len(metrics))
	for i, m := range metrics {
		rows[i] = metricRow(m, pgDate)
	}
	return s.upsert(ctx, metricsTable, rows)
}

func (s *PostgresSink) UpsertCalendar(ctx context.Context, cal model.FiscalCalendar) error {
	forms := cal.FormsObserved
	if forms == nil {
		forms = []string{}
	}
	_, err := s.upsert(ctx, calendarsTable, [][]any{calendarRow(cal, forms, pgDate)})
	return err
}

func (s *PostgresSink) Events(ctx context.Context, entityID string) ([]model.FilingEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT entity_id, accession_id, filing_date, period_end, form, fiscal_year, fiscal_period, is_amended, superseded_by
		 FROM pit.filing_events WHERE entity_id = $1 ORDER BY filing_date, accession_id`,
		entityID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "store: query events for %s", entityID)
	}
	defer rows.Close()

	var out []model.FilingEvent
	for rows.Next() {
		var e model.FilingEvent
		var fp string
		var supersededBy *string
		if err := rows.Scan(&e.EntityID, &e.AccessionID, &e.FilingDate, &e.PeriodEnd, &e.Form,
			&e.FiscalYear, &fp, &e.IsAmended, &supersededBy); err != nil {
			return nil, eris.Wrap(err, "store: scan event")
		}
		e.FiscalPeriod = model.FiscalPeriod(fp)
		if supersededBy != nil {
			e.SupersededBy = *supersededBy
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate events")
}

func (s *PostgresSink) Metrics(ctx context.Context, entityID string) ([]model.TTMMetric, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT entity_id, metric_name, as_of_date, period_end, value, unit, source_form, concept, accession_id
		 FROM pit.ttm_metrics WHERE entity_id = $1 ORDER BY metric_name, as_of_date`,
		entityID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "store: query metrics for %s", entityID)
	}
	defer rows.Close()

	var out []model.TTMMetric
	for rows.Next() {
		var m model.TTMMetric
		var name string
		var asOf, end time.Time
		if err := rows.Scan(&m.EntityID, &name, &asOf, &end, &m.Value, &m.Unit,
			&m.SourceForm, &m.Concept, &m.Accession); err != nil {
			return nil, eris.Wrap(err, "store: scan metric")
		}
		m.MetricName = model.MetricName(name)
		m.AsOfDate, m.PeriodEnd = asOf.UTC(), end.UTC()
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate metrics")
}

func (s *PostgresSink) Migrate(ctx context.Context) error {
	return MigratePostgres(ctx, s.pool)
}

func (s *PostgresSink) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
