package timeline

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pitfacts/internal/model"
)

func event(fy int, fp model.FiscalPeriod, form, filed, end, accn string) model.FilingEvent {
	return model.FilingEvent{
		FilingDate:   model.MustDate(filed),
		PeriodEnd:    model.MustDate(end),
		Form:         form,
		FiscalYear:   fy,
		FiscalPeriod: fp,
		AccessionID:  accn,
		IsAmended:    model.IsAmended(form),
	}
}

func TestBuild_AmendmentSupersedes(t *testing.T) {
	tl := Build("42", []model.FilingEvent{
		event(2023, model.FiscalFY, "10-K/A", "2024-03-10", "2023-12-31", "0000042-24-000020"),
		event(2023, model.FiscalFY, "10-K", "2024-02-01", "2023-12-31", "0000042-24-000005"),
		event(2023, model.FiscalQ3, "10-Q", "2023-11-02", "2023-09-30", "0000042-23-000050"),
	})

	require.Equal(t, 2, tl.Len())
	events := tl.Events()
	assert.Equal(t, "10-Q", events[0].Form)
	assert.Equal(t, "10-K/A", events[1].Form)
	assert.Equal(t, "42", events[1].EntityID)

	got, ok := tl.AsOf(model.MustDate("2024-03-15"))
	require.True(t, ok)
	assert.Equal(t, "0000042-24-000020", got.AccessionID)
	assert.True(t, got.IsAmended)
}

func TestBuild_AsOfBeforeAmendmentSeesOriginal(t *testing.T) {
	tl := Build("42", []model.FilingEvent{
		event(2023, model.FiscalFY, "10-K", "2024-02-01", "2023-12-31", "a-orig"),
		event(2023, model.FiscalFY, "10-K/A", "2024-03-10", "2023-12-31", "a-amend"),
	})

	require.Equal(t, 1, tl.Len())
	assert.Equal(t, "a-amend", tl.Events()[0].AccessionID)

	got, ok := tl.AsOf(model.MustDate("2024-02-15"))
	require.True(t, ok)
	assert.Equal(t, "a-orig", got.AccessionID)
	assert.True(t, got.Effective(), "original was effective on the query date")

	got, ok = tl.AsOf(model.MustDate("2024-03-15"))
	require.True(t, ok)
	assert.Equal(t, "a-amend", got.AccessionID)

	history := tl.History()
	require.Len(t, history, 2)
	assert.Equal(t, "a-amend", history[0].SupersededBy)
	assert.True(t, history[1].Effective())
}

func TestBuild_DuplicateAccession(t *testing.T) {
	tl := Build("42", []model.FilingEvent{
		event(2023, model.FiscalFY, "10-K", "2024-02-01", "2023-12-31", "same"),
		event(2023, model.FiscalFY, "10-K", "2024-02-01", "2023-12-31", "same"),
	})
	assert.Equal(t, 1, tl.Len())
	assert.Len(t, tl.History(), 1)
}

func TestBuild_SameDayTieGoesToLargerAccession(t *testing.T) {
	tl := Build("42", []model.FilingEvent{
		event(2023, model.FiscalFY, "10-K", "2024-02-01", "2023-12-31", "0000042-24-000011"),
		event(2023, model.FiscalFY, "10-K/A", "2024-02-01", "2023-12-31", "0000042-24-000012"),
	})
	require.Equal(t, 1, tl.Len())
	assert.Equal(t, "0000042-24-000012", tl.Events()[0].AccessionID)
}

func TestBuild_NonDecreasingAndGaps(t *testing.T) {
	filings := []model.FilingEvent{
		event(2021, model.FiscalFY, "10-K", "2022-02-25", "2021-12-31", "a"),
		event(2023, model.FiscalQ1, "10-Q", "2023-05-05", "2023-03-31", "b"),
		event(2022, model.FiscalFY, "10-K", "2023-03-01", "2022-12-31", "c"),
		event(2022, model.FiscalQ2, "10-Q", "2022-08-04", "2022-06-30", "d"),
		// Fiscal year-end moved from December to June.
		event(2024, model.FiscalFY, "10-KT", "2024-09-01", "2024-06-30", "e"),
	}
	tl := Build("42", filings)
	require.Equal(t, 5, tl.Len())

	events := tl.Events()
	assert.True(t, sort.SliceIsSorted(events, func(i, j int) bool {
		return events[i].FilingDate.Before(events[j].FilingDate)
	}))
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].FilingDate.Before(events[i-1].FilingDate))
	}
}

func TestAsOf_Boundaries(t *testing.T) {
	tl := Build("42", []model.FilingEvent{
		event(2023, model.FiscalQ3, "10-Q", "2023-11-02", "2023-09-30", "q3"),
		event(2023, model.FiscalFY, "10-K", "2024-02-20", "2023-12-31", "fy"),
	})

	_, ok := tl.AsOf(model.MustDate("2023-11-01"))
	assert.False(t, ok, "before first filing")

	got, ok := tl.AsOf(model.MustDate("2023-11-02"))
	require.True(t, ok, "inclusive boundary")
	assert.Equal(t, "q3", got.AccessionID)

	got, ok = tl.AsOf(model.MustDate("2024-01-15"))
	require.True(t, ok)
	assert.Equal(t, "q3", got.AccessionID, "FY2023 not yet public")

	got, ok = tl.AsOf(model.MustDate("2024-02-20"))
	require.True(t, ok)
	assert.Equal(t, "fy", got.AccessionID)

	got, ok = tl.AsOf(model.MustDate("2030-01-01"))
	require.True(t, ok)
	assert.Equal(t, "fy", got.AccessionID)
}

func TestAsOf_Empty(t *testing.T) {
	tl := Build("42", nil)
	assert.Zero(t, tl.Len())
	_, ok := tl.AsOf(model.MustDate("2024-01-01"))
	assert.False(t, ok)
}

func TestIndex(t *testing.T) {
	idx := NewIndex()
	idx.Put(Build("1", []model.FilingEvent{event(2023, model.FiscalFY, "10-K", "2024-02-20", "2023-12-31", "x")}))

	got, ok := idx.AsOf("1", model.MustDate("2024-06-01"))
	require.True(t, ok)
	assert.Equal(t, "x", got.AccessionID)

	_, ok = idx.AsOf("2", model.MustDate("2024-06-01"))
	assert.False(t, ok)
}

func fact(tax, concept string, fy int, fp model.FiscalPeriod, form, end, filed, accn string) model.FinancialFact {
	return model.FinancialFact{
		EntityID:     "42",
		Taxonomy:     tax,
		ConceptName:  concept,
		FiscalYear:   fy,
		FiscalPeriod: fp,
		Form:         form,
		IsAmended:    model.IsAmended(form),
		PeriodEnd:    model.MustDate(end),
		FilingDate:   model.MustDate(filed),
		AccessionID:  accn,
	}
}

func TestFilingsFromFacts(t *testing.T) {
	facts := []model.FinancialFact{
		// 10-K with a prior-year comparative and a later cover-page date.
		fact("us-gaap", "Assets", 2023, model.FiscalFY, "10-K", "2022-12-31", "2024-02-20", "k"),
		fact("us-gaap", "Assets", 2023, model.FiscalFY, "10-K", "2023-12-31", "2024-02-20", "k"),
		fact("dei", "EntityCommonStockSharesOutstanding", 2023, model.FiscalFY, "10-K", "2024-02-10", "2024-02-20", "k"),
		fact("us-gaap", "NetIncomeLoss", 2023, model.FiscalQ3, "10-Q", "2023-09-30", "2023-11-02", "q"),
		// Cover-page only filing still yields an event.
		fact("dei", "EntityPublicFloat", 2022, model.FiscalFY, "10-K/A", "2022-06-30", "2023-04-01", "ka"),
		fact("us-gaap", "Assets", 2023, model.FiscalFY, "", "2023-12-31", "2024-02-20", "noform"),
	}

	got := FilingsFromFacts("42", facts)
	require.Len(t, got, 3)

	assert.Equal(t, "q", got[0].AccessionID)
	assert.Equal(t, model.MustDate("2023-09-30"), got[0].PeriodEnd)
	assert.Equal(t, model.FiscalQ3, got[0].FiscalPeriod)

	assert.Equal(t, "ka", got[1].AccessionID)
	assert.True(t, got[1].IsAmended)

	assert.Equal(t, "k", got[2].AccessionID)
	assert.Equal(t, model.MustDate("2023-12-31"), got[2].PeriodEnd)
	assert.Equal(t, model.MustDate("2024-02-20"), got[2].FilingDate)
	assert.Equal(t, 2023, got[2].FiscalYear)
	assert.Equal(t, "10-K", got[2].Form)
	assert.Equal(t, "42", got[2].EntityID)
}
