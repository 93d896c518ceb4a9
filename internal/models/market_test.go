package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func month(year int, m time.Month) time.Time {
	return time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
}

func TestMonthHelpers(t *testing.T) {
	mid := time.Date(2024, 1, 31, 23, 59, 0, 0, time.FixedZone("BRT", -3*3600))
	assert.True(t, MonthOf(mid).Equal(month(2024, 1)), "month of %s", mid)
	assert.Equal(t, time.UTC, MonthOf(mid).Location())
	assert.True(t, AddMonths(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1).Equal(month(2024, 2)))
	assert.True(t, AddMonths(month(2024, 12), 1).Equal(month(2025, 1)))
	assert.Equal(t, "2024-03-01", FormatMonth(month(2024, 3)))
}

func TestGapFill(t *testing.T) {
	d := decimal.RequireFromString
	a := &AssetData{Ticker: "X", Months: []AssetMonth{
		{Date: time.Date(2020, 4, 15, 0, 0, 0, 0, time.UTC), Close: d("12"), Dividends: d("0.5")},
		{Date: month(2020, 1), Close: d("10"), Dividends: d("0.1")},
		{Date: month(2020, 1), Close: d("11")},
	}}
	a.GapFill()

	require.Len(t, a.Months, 4)
	for i, m := range a.Months {
		assert.True(t, m.Date.Equal(month(2020, time.Month(1+i))), "month %d is %s", i, m.Date)
	}
	assert.True(t, a.Months[0].Close.Equal(d("11")), "last duplicate wins")
	assert.True(t, a.Months[0].Dividends.IsZero())
	assert.True(t, a.Months[1].Close.Equal(d("11")))
	assert.True(t, a.Months[1].Open.Equal(d("11")))
	assert.True(t, a.Months[1].Dividends.IsZero())
	assert.True(t, a.Months[1].Splits.IsZero())
	assert.True(t, a.Months[2].Close.Equal(d("11")))
	assert.True(t, a.Months[3].Close.Equal(d("12")))
	assert.True(t, a.Months[3].Dividends.Equal(d("0.5")))

	assert.True(t, a.Info().FirstAvailable.Equal(month(2020, 1)))
	_, ok := a.Month(month(2020, 5))
	assert.False(t, ok)
	_, ok = a.Month(month(2019, 12))
	assert.False(t, ok)
	m, ok := a.Month(time.Date(2020, 3, 20, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.True(t, m.Close.Equal(d("11")))

	empty := &AssetData{Ticker: "E"}
	empty.GapFill()
	assert.Empty(t, empty.Months)
	assert.True(t, empty.Info().FirstAvailable.IsZero())
}
