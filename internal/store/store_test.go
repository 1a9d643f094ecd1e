package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/pitfacts/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func datePtr(s string) *time.Time {
	d := model.MustDate(s)
	return &d
}

func sampleFacts() []model.FinancialFact {
	return []model.FinancialFact{
		{
			EntityID: "42", ConceptName: "Assets", Taxonomy: "us-gaap",
			StatementType: model.StatementBalanceSheet, TemporalNature: model.PointInTime,
			PeriodEnd: model.MustDate("2023-12-31"), Value: 1_000_000, Unit: "USD",
			FilingDate: model.MustDate("2024-02-20"), AvailableAsOf: model.MustDate("2024-02-20"),
			FiscalYear: 2023, FiscalPeriod: model.FiscalFY, Form: "10-K",
			PriorityScore: 130, AccessionID: "0000042-24-000005", Frame: "CY2023Q4I",
		},
		{
			EntityID: "42", ConceptName: "NetIncomeLoss", Taxonomy: "us-gaap",
			StatementType: model.StatementIncome, TemporalNature: model.Period,
			PeriodStart: datePtr("2023-01-01"), PeriodEnd: model.MustDate("2023-12-31"),
			Value: 209_800_000, Unit: "USD",
			FilingDate: model.MustDate("2024-02-20"), AvailableAsOf: model.MustDate("2024-02-20"),
			FiscalYear: 2023, FiscalPeriod: model.FiscalFY, Form: "10-K",
			PriorityScore: 155, AccessionID: "0000042-24-000005",
		},
	}
}

func sampleEvents() []model.FilingEvent {
	return []model.FilingEvent{
		{
			EntityID: "42", AccessionID: "orig", FilingDate: model.MustDate("2024-02-01"),
			PeriodEnd: model.MustDate("2023-12-31"), Form: "10-K", FiscalYear: 2023,
			FiscalPeriod: model.FiscalFY, SupersededBy: "amend",
		},
		{
			EntityID: "42", AccessionID: "amend", FilingDate: model.MustDate("2024-03-10"),
			PeriodEnd: model.MustDate("2023-12-31"), Form: "10-K/A", FiscalYear: 2023,
			FiscalPeriod: model.FiscalFY, IsAmended: true,
		},
	}
}

func sampleMetrics() []model.TTMMetric {
	return []model.TTMMetric{
		{
			EntityID: "42", MetricName: model.RevenueTTM, AsOfDate: model.MustDate("2024-02-01"),
			PeriodEnd: model.MustDate("2023-12-31"), Value: 100, Unit: "USD", SourceForm: "10-K",
			Concept: "us-gaap:Revenues", Accession: "orig",
		},
		{
			EntityID: "42", MetricName: model.NetIncomeTTM, AsOfDate: model.MustDate("2024-02-01"),
			PeriodEnd: model.MustDate("2023-12-31"), Value: 7, Unit: "USD", SourceForm: "10-K",
			Concept: "us-gaap:NetIncomeLoss", Accession: "orig",
		},
	}
}

func TestMemorySink(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Migrate(ctx))

	for range 2 {
		_, err := s.UpsertFacts(ctx, sampleFacts())
		require.NoError(t, err)
		_, err = s.UpsertEvents(ctx, sampleEvents())
		require.NoError(t, err)
		_, err = s.UpsertMetrics(ctx, sampleMetrics())
		require.NoError(t, err)
	}
	require.NoError(t, s.UpsertCalendar(ctx, model.FiscalCalendar{EntityID: "42", DominantMonth: time.December}))

	assert.Len(t, s.Facts("42"), 2, "rerun does not duplicate")

	events, err := s.Events(ctx, "42")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "orig", events[0].AccessionID)

	metrics, err := s.Metrics(ctx, "42")
	require.NoError(t, err)
	require.Len(t, metrics, 2)
	assert.Equal(t, model.NetIncomeTTM, metrics[0].MetricName)

	cal, ok := s.Calendar("42")
	require.True(t, ok)
	assert.Equal(t, time.December, cal.DominantMonth)

	none, err := s.Events(ctx, "7")
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NoError(t, s.Close())
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemorySink{}, s)

	_, err = Open(ctx, Options{Driver: "postgres"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")

	_, err = Open(ctx, Options{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestSQLiteUpsertStatement(t *testing.T) {
	assert.Equal(t,
		"INSERT INTO ttm_metrics (entity_id, metric_name, as_of_date, period_end, value, unit, source_form, concept, accession_id) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT (entity_id, metric_name, as_of_date) DO UPDATE SET "+
			"period_end = excluded.period_end, value = excluded.value, unit = excluded.unit, "+
			"source_form = excluded.source_form, concept = excluded.concept, accession_id = excluded.accession_id",
		metricsTable.sqliteUpsert())
}

func TestRowsMatchColumns(t *testing.T) {
	assert.Len(t, factRow(sampleFacts()[0], pgDate), len(factsTable.columns))
	assert.Len(t, eventRow(sampleEvents()[0], pgDate), len(eventsTable.columns))
	assert.Len(t, metricRow(sampleMetrics()[0], pgDate), len(metricsTable.columns))
	assert.Len(t, calendarRow(model.FiscalCalendar{}, nil, pgDate), len(calendarsTable.columns))

	row := factRow(sampleFacts()[0], textDate)
	assert.Nil(t, row[5], "missing period start stored as NULL")
	assert.Equal(t, "2023-12-31", row[6])

	cal := calendarRow(model.FiscalCalendar{EntityID: "1", Confidence: model.ConfidenceLow}, nil, textDate)
	assert.Nil(t, cal[1], "no dominant month stored as NULL")
}
