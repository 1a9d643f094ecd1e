package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		form    string
		amended bool
		annual  bool
		base    string
	}{
		{"10-K", false, true, "10-K"},
		{"10-K/A", true, true, "10-K"},
		{"20-F", false, true, "20-F"},
		{"40-F/A", true, true, "40-F"},
		{"10-Q", false, false, "10-Q"},
		{"10-q/a", true, false, "10-Q"},
		{" 8-K ", false, false, "8-K"},
		{"", false, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.form, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.amended, IsAmended(tt.form))
			assert.Equal(t, tt.annual, IsAnnualForm(tt.form))
			assert.Equal(t, tt.base, BaseForm(tt.form))
		})
	}
}

func TestNatureOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, PointInTime, NatureOf(StatementBalanceSheet))
	assert.Equal(t, Period, NatureOf(StatementIncome))
	assert.Equal(t, Period, NatureOf(StatementCashFlow))
	assert.Equal(t, Period, NatureOf(StatementOther))
}

func TestParseFiscalPeriod(t *testing.T) {
	t.Parallel()

	p, ok := ParseFiscalPeriod("fy")
	require.True(t, ok)
	assert.Equal(t, FiscalFY, p)
	assert.False(t, p.IsQuarter())

	p, ok = ParseFiscalPeriod("Q3")
	require.True(t, ok)
	assert.True(t, p.IsQuarter())

	_, ok = ParseFiscalPeriod("H1")
	assert.False(t, ok)
	_, ok = ParseFiscalPeriod("")
	assert.False(t, ok)
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	d, err := ParseDate("2024-02-20")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("02/20/2024")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model: parse date")
}

func TestFilingEvent_Supersedes(t *testing.T) {
	t.Parallel()

	orig := FilingEvent{FilingDate: MustDate("2024-02-01"), AccessionID: "0001-24-000010"}
	amend := FilingEvent{FilingDate: MustDate("2024-03-10"), AccessionID: "0001-24-000005"}
	sameDay := FilingEvent{FilingDate: MustDate("2024-02-01"), AccessionID: "0001-24-000011"}

	assert.True(t, amend.Supersedes(orig))
	assert.False(t, orig.Supersedes(amend))
	assert.True(t, sameDay.Supersedes(orig))
	assert.False(t, orig.Supersedes(sameDay))
	assert.False(t, orig.Supersedes(orig))
}

func TestFactKey_Less(t *testing.T) {
	t.Parallel()

	a := FactKey{EntityID: "1", ConceptName: "Assets", PeriodEnd: MustDate("2023-12-31"), FiscalPeriod: FiscalFY, Unit: "USD", AccessionID: "a"}
	b := a
	b.AccessionID = "b"
	c := a
	c.PeriodEnd = MustDate("2022-12-31")

	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.True(t, c.Less(a))
	assert.False(t, a.Less(a))
}

func TestFiscalCalendar_HasDominantMonth(t *testing.T) {
	t.Parallel()

	assert.False(t, FiscalCalendar{}.HasDominantMonth())
	assert.True(t, FiscalCalendar{DominantMonth: time.September}.HasDominantMonth())
}
