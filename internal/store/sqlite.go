package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/pitfacts/internal/model"
)

// SQLiteSink writes to a local SQLite file. Dates are stored as YYYY-MM-DD text.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteSink{db: db}, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS financial_facts (
	entity_id       TEXT NOT NULL,
	concept_name    TEXT NOT NULL,
	taxonomy        TEXT NOT NULL,
	statement_type  TEXT NOT NULL,
	temporal_nature TEXT NOT NULL,
	period_start    TEXT,
	period_end      TEXT NOT NULL,
	value           REAL NOT NULL,
	unit            TEXT NOT NULL,
	filing_date     TEXT NOT NULL,
	available_as_of TEXT NOT NULL,
	fiscal_year     INTEGER NOT NULL,
	fiscal_period   TEXT NOT NULL,
	form            TEXT NOT NULL,
	is_amended      INTEGER NOT NULL DEFAULT 0,
	priority_score  REAL NOT NULL DEFAULT 0,
	accession_id    TEXT NOT NULL,
	frame           TEXT,
	PRIMARY KEY (entity_id, concept_name, period_end, fiscal_period, unit, accession_id)
);

CREATE TABLE IF NOT EXISTS filing_events (
	entity_id     TEXT NOT NULL,
	accession_id  TEXT NOT NULL,
	filing_date   TEXT NOT NULL,
	period_end    TEXT NOT NULL,
	form          TEXT NOT NULL,
	fiscal_year   INTEGER NOT NULL,
	fiscal_period TEXT NOT NULL,
	is_amended    INTEGER NOT NULL DEFAULT 0,
	superseded_by TEXT,
	PRIMARY KEY (entity_id, accession_id)
);

CREATE TABLE IF NOT EXISTS ttm_metrics (
	entity_id    TEXT NOT NULL,
	metric_name  TEXT NOT NULL,
	as_of_date   TEXT NOT NULL,
	period_end   TEXT NOT NULL,
	value        REAL NOT NULL,
	unit         TEXT NOT NULL,
	source_form  TEXT NOT NULL,
	concept      TEXT NOT NULL,
	accession_id TEXT NOT NULL,
	PRIMARY KEY (entity_id, metric_name, as_of_date)
);

CREATE TABLE IF NOT EXISTS fiscal_calendars (
	entity_id              TEXT PRIMARY KEY,
	dominant_month         INTEGER,
	confidence             TEXT NOT NULL,
	sample_size            INTEGER NOT NULL DEFAULT 0,
	dominant_month_pct     REAL NOT NULL DEFAULT 0,
	forms_observed         TEXT NOT NULL DEFAULT '[]',
	most_recent_period_end TEXT
);

CREATE INDEX IF NOT EXISTS idx_facts_entity_available ON financial_facts(entity_id, available_as_of);
CREATE INDEX IF NOT EXISTS idx_events_entity_filed ON filing_events(entity_id, filing_date);
`

func (s *SQLiteSink) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteSchema)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// upsert writes rows in one transaction with a prepared statement.
func (s *SQLiteSink) upsert(ctx context.Context, t table, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, t.sqliteUpsert())
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: prepare upsert %s", t.name)
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert %s", t.name)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit")
	}
	return n, nil
}

func (s *SQLiteSink) UpsertFacts(ctx context.Context, facts []model.FinancialFact) (int64, error) {
	rows := make([][]any, len(facts))
	for i, f := range facts {
		rows[i] = factRow(f, textDate)
	}
	return s.upsert(ctx, factsTable, rows)
}

func (s *SQLiteSink) UpsertEvents(ctx context.Context, events []model.FilingEvent) (int64, error) {
	rows := make([][]any, len(events))
	for i, e := range events {
		rows[i] = eventRow(e, textDate)
	}
	return s.upsert(ctx, eventsTable, rows)
}

func (s *SQLiteSink) UpsertMetrics(ctx context.Context, metrics []model.TTMMetric) (int64, error) {
	rows := make([][]any, len(metrics))
	for i, m := range metrics {
		rows[i] = metricRow(m, textDate)
	}
	return s.upsert(ctx, metricsTable, rows)
}

func (s *SQLiteSink) UpsertCalendar(ctx context.Context, cal model.FiscalCalendar) error {
	forms := cal.FormsObserved
	if forms == nil {
		forms = []string{}
	}
	formsJSON, err := json.Marshal(forms)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal forms")
	}
	_, err = s.upsert(ctx, calendarsTable, [][]any{calendarRow(cal, string(formsJSON), textDate)})
	return err
}

func (s *SQLiteSink) Events(ctx context.Context, entityID string) ([]model.FilingEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_id, accession_id, filing_date, period_end, form, fiscal_year, fiscal_period, is_amended, superseded_by
		 FROM filing_events WHERE entity_id = ? ORDER BY filing_date, accession_id`,
		entityID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query events for %s", entityID)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.FilingEvent
	for rows.Next() {
		var e model.FilingEvent
		var filed, end, fp string
		var supersededBy sql.NullString
		if err := rows.Scan(&e.EntityID, &e.AccessionID, &filed, &end, &e.Form,
			&e.FiscalYear, &fp, &e.IsAmended, &supersededBy); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan event")
		}
		if e.FilingDate, err = model.ParseDate(filed); err != nil {
			return nil, err
		}
		if e.PeriodEnd, err = model.ParseDate(end); err != nil {
			return nil, err
		}
		e.FiscalPeriod = model.FiscalPeriod(fp)
		e.SupersededBy = supersededBy.String
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate events")
}

func (s *SQLiteSink) Metrics(ctx context.Context, entityID string) ([]model.TTMMetric, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_id, metric_name, as_of_date, period_end, value, unit, source_form, concept, accession_id
		 FROM ttm_metrics WHERE entity_id = ? ORDER BY metric_name, as_of_date`,
		entityID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query metrics for %s", entityID)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.TTMMetric
	for rows.Next() {
		var m model.TTMMetric
		var name, asOf, end string
		if err := rows.Scan(&m.EntityID, &name, &asOf, &end, &m.Value, &m.Unit,
			&m.SourceForm, &m.Concept, &m.Accession); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan metric")
		}
		m.MetricName = model.MetricName(name)
		if m.AsOfDate, err = model.ParseDate(asOf); err != nil {
			return nil, err
		}
		if m.PeriodEnd, err = model.ParseDate(end); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate metrics")
}

// Count returns the number of rows in one of the sink's tables.
func (s *SQLiteSink) Count(ctx context.Context, tableName string) (int64, error) {
	switch tableName {
	case factsTable.name, eventsTable.name, metricsTable.name, calendarsTable.name:
	default:
		return 0, eris.Errorf("sqlite: unknown table %q", tableName)
	}
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+tableName).Scan(&n)
	return n, eris.Wrapf(err, "sqlite: count %s", tableName)
}
