package tariff

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stromtarif/stromtarif/pkg/types"
)

func priceDay(date string, v float64) types.DailyPrices {
	return types.DailyPrices{Date: date, Hourly: flatPrices(v)}
}

func TestDayAverage(t *testing.T) {
	day := priceDay("01/01/2025", 10)
	day.Hourly[0] = ptr(34)
	day.Hourly[1] = nil
	day.Hourly[2] = ptr(math.NaN())
	avg := DayAverage(day)
	require.NotNil(t, avg)
	assert.InDelta(t, (34+21*10)/22.0, *avg, 1e-9)

	assert.Nil(t, DayAverage(types.DailyPrices{Date: "02/01/2025", Hourly: make([]*float64, types.HoursPerDay)}))
	assert.Nil(t, DayAverage(types.DailyPrices{Date: "02/01/2025"}))
}

func TestScaleCommutesWithMean(t *testing.T) {
	raw := make([]float64, types.HoursPerDay)
	scaled := types.DailyPrices{Hourly: make([]*float64, types.HoursPerDay)}
	unscaled := types.DailyPrices{Hourly: make([]*float64, types.HoursPerDay)}
	for h := range raw {
		raw[h] = float64(h*37%101) + 0.7
		scaled.Hourly[h] = ptr(raw[h] * 0.1)
		unscaled.Hourly[h] = ptr(raw[h])
	}
	assert.InDelta(t, *DayAverage(unscaled)*0.1, *DayAverage(scaled), 1e-9)
}

func TestExtremesTies(t *testing.T) {
	days := []types.DayAggregate{
		{Date: "01/01/2025", Average: ptr(5)},
		{Date: "02/01/2025"},
		{Date: "03/01/2025", Average: ptr(5)},
		{Date: "04/01/2025", Average: ptr(9)},
		{Date: "05/01/2025", Average: ptr(9)},
	}
	cheapest, mostExpensive := Extremes(days)
	require.NotNil(t, cheapest)
	require.NotNil(t, mostExpensive)
	assert.Equal(t, "01/01/2025", cheapest.Date)
	assert.Equal(t, "04/01/2025", mostExpensive.Date)

	cheapest, mostExpensive = Extremes([]types.DayAggregate{{Date: "01/01/2025"}})
	assert.Nil(t, cheapest)
	assert.Nil(t, mostExpensive)
}

func TestAggregateMonth(t *testing.T) {
	var records []types.DailyPrices
	records = append(records, priceDay("30/12/2024", 100), priceDay("31/12/2024", 100))
	day := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	for day.Month() == time.January {
		records = append(records, priceDay(FormatDate(day), float64(day.Day())))
		day = day.AddDate(0, 0, 1)
	}
	records = append(records, priceDay("01/02/2025", 50), priceDay("02/02/2025", 50))
	// out of order and duplicated records must not matter
	records[5], records[20] = records[20], records[5]
	records = append(records, priceDay("15/01/2025", 999))

	t.Run("Table", func(t *testing.T) {
		agg, err := AggregateMonth(records, "01/2025", Table2025)
		require.NoError(t, err)
		assert.Equal(t, "01/2025", agg.MonthKey)
		require.Len(t, agg.Days, 31)
		assert.Equal(t, "01/01/2025", agg.Days[0].Date)
		assert.Equal(t, "31/01/2025", agg.Days[30].Date)
		require.NotNil(t, agg.Average)
		assert.InDelta(t, 16.0, *agg.Average, 1e-9)
		assert.Equal(t, "01/01/2025", agg.Cheapest.Date)
		assert.Equal(t, "31/01/2025", agg.MostExpensive.Date)

		require.Len(t, agg.Weeks, 5)
		first := agg.Weeks[0]
		assert.Equal(t, "01", first.WeekNumber)
		assert.Equal(t, [2]string{"30/12/2024", "05/01/2025"}, first.DateRange)
		require.Len(t, first.Days, 7)
		assert.Equal(t, "30/12/2024", first.MostExpensive.Date)
		assert.InDelta(t, (100+100+1+2+3+4+5)/7.0, *first.Average, 1e-9)

		last := agg.Weeks[4]
		assert.Equal(t, "05", last.WeekNumber)
		require.Len(t, last.Days, 7)
		assert.Equal(t, "27/01/2025", last.Cheapest.Date)
		assert.Equal(t, "01/02/2025", last.MostExpensive.Date)
	})

	t.Run("Computed", func(t *testing.T) {
		agg, err := AggregateMonth(records, "01/2025", ComputedWeeks{})
		require.NoError(t, err)
		require.Len(t, agg.Weeks, 5)
		assert.Equal(t, [2]string{"01/01/2025", "05/01/2025"}, agg.Weeks[0].DateRange)
		assert.InDelta(t, 3.0, *agg.Weeks[0].Average, 1e-9)
		assert.Len(t, agg.Weeks[4].Days, 5)
	})

	t.Run("NoData", func(t *testing.T) {
		agg, err := AggregateMonth(records, "03/2025", Table2025)
		require.NoError(t, err)
		assert.Nil(t, agg.Average)
		assert.Nil(t, agg.Cheapest)
		assert.Nil(t, agg.MostExpensive)
		assert.Empty(t, agg.Days)
		for _, w := range agg.Weeks {
			assert.Nil(t, w.Average)
		}
	})

	t.Run("OnlyMissingValues", func(t *testing.T) {
		empty := []types.DailyPrices{{Date: "03/03/2025", Hourly: make([]*float64, types.HoursPerDay)}}
		agg, err := AggregateMonth(empty, "03/2025", Table2025)
		require.NoError(t, err)
		require.Len(t, agg.Days, 1)
		assert.Nil(t, agg.Days[0].Average)
		assert.Nil(t, agg.Average)
	})

	t.Run("InvalidMonth", func(t *testing.T) {
		_, err := AggregateMonth(records, "2025-01", Table2025)
		assert.ErrorIs(t, err, ErrInvalidMonthKey)

		_, err = AggregateMonth(records, "05/2023", Table2025)
		assert.ErrorIs(t, err, ErrMonthNotInTable)
	})
}

func TestRoundMonth(t *testing.T) {
	agg := types.MonthlyAggregate{
		MonthKey:      "01/2025",
		Average:       ptr(1.005),
		Cheapest:      &types.DayAggregate{Date: "01/01/2025", Average: ptr(0.333)},
		MostExpensive: &types.DayAggregate{Date: "02/01/2025", Average: ptr(2.999)},
		Weeks:         []types.WeeklyAggregate{{WeekNumber: "01", Average: ptr(1.666)}},
	}
	rounded := RoundMonth(agg)
	assert.Equal(t, 1.01, *rounded.Average)
	assert.Equal(t, 0.33, *rounded.Cheapest.Average)
	assert.Equal(t, 3.0, *rounded.MostExpensive.Average)
	assert.Equal(t, 1.67, *rounded.Weeks[0].Average)
	assert.Equal(t, 1.666, *agg.Weeks[0].Average)
}
