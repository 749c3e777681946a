package tariff

import (
	"math"
	"sort"
	"time"

	"github.com/stromtarif/stromtarif/pkg/types"
)

// DayAverage returns the mean of the valid hourly prices of a day or nil if
// there are none.
func DayAverage(day types.DailyPrices) *float64 {
	var sum float64
	var n int
	for _, p := range day.Hourly {
		if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
			continue
		}
		sum += *p
		n++
	}
	if n == 0 {
		return nil
	}
	return ptr(sum / float64(n))
}

// MeanOfDays returns the mean of the non-nil day averages or nil if there
// are none.
func MeanOfDays(days []types.DayAggregate) *float64 {
	var sum float64
	var n int
	for _, d := range days {
		if d.Average == nil {
			continue
		}
		sum += *d.Average
		n++
	}
	if n == 0 {
		return nil
	}
	return ptr(sum / float64(n))
}

// Extremes returns the cheapest and most expensive day by average price.
// Days without an average are ignored and ties go to the earlier day, so
// days must already be in date order.
func Extremes(days []types.DayAggregate) (*types.DayAggregate, *types.DayAggregate) {
	var cheapest, mostExpensive *types.DayAggregate
	for i := range days {
		d := days[i]
		if d.Average == nil {
			continue
		}
		if cheapest == nil || *d.Average < *cheapest.Average {
			cheapest = &d
		}
		if mostExpensive == nil || *d.Average > *mostExpensive.Average {
			mostExpensive = &d
		}
	}
	return cheapest, mostExpensive
}

type datedPrices struct {
	t   time.Time
	day types.DailyPrices
}

// indexByDate parses the dates of all records and drops records with an
// invalid date. The first record for a date wins.
func indexByDate(records []types.DailyPrices) map[string]datedPrices {
	idx := make(map[string]datedPrices, len(records))
	for _, r := range records {
		t, err := ParseDate(r.Date)
		if err != nil {
			continue
		}
		if _, ok := idx[r.Date]; ok {
			continue
		}
		idx[r.Date] = datedPrices{t: t, day: r}
	}
	return idx
}

// MonthDays returns the records of the given MM/YYYY month sorted by date.
func MonthDays(records []types.DailyPrices, monthKey string) ([]types.DailyPrices, error) {
	year, month, err := ParseMonthKey(monthKey)
	if err != nil {
		return nil, err
	}
	var dated []datedPrices
	for _, d := range indexByDate(records) {
		if d.t.Year() == year && d.t.Month() == month {
			dated = append(dated, d)
		}
	}
	sort.Slice(dated, func(i, j int) bool {
		return dated[i].t.Before(dated[j].t)
	})
	out := make([]types.DailyPrices, len(dated))
	for i, d := range dated {
		out[i] = d.day
	}
	return out, nil
}

// aggregateWeek summarizes the member days of a week that have records.
func aggregateWeek(week types.CalendarWeek, idx map[string]datedPrices) types.WeeklyAggregate {
	agg := types.WeeklyAggregate{
		WeekNumber: week.WeekNumber,
		DateRange:  week.DateRange(),
		Days:       []types.DayAggregate{},
	}
	// member dates are already in date order
	for _, date := range week.MemberDates {
		d, ok := idx[date]
		if !ok {
			continue
		}
		agg.Days = append(agg.Days, types.DayAggregate{Date: date, Average: DayAverage(d.day)})
	}
	agg.Average = MeanOfDays(agg.Days)
	agg.Cheapest, agg.MostExpensive = Extremes(agg.Days)
	return agg
}

// AggregateMonth calculates the average, cheapest and most expensive day of
// a month as well as the same values for each of its weeks. A month without
// any valid day has a nil average.
func AggregateMonth(records []types.DailyPrices, monthKey string, bucketer WeekBucketer) (types.MonthlyAggregate, error) {
	year, month, err := ParseMonthKey(monthKey)
	if err != nil {
		return types.MonthlyAggregate{}, err
	}
	weeks, err := bucketer.Weeks(year, month)
	if err != nil {
		return types.MonthlyAggregate{}, err
	}
	days, err := MonthDays(records, monthKey)
	if err != nil {
		return types.MonthlyAggregate{}, err
	}

	agg := types.MonthlyAggregate{
		MonthKey: monthKey,
		Days:     make([]types.DayAggregate, 0, len(days)),
		Weeks:    make([]types.WeeklyAggregate, 0, len(weeks)),
	}
	for _, d := range days {
		agg.Days = append(agg.Days, types.DayAggregate{Date: d.Date, Average: DayAverage(d)})
	}
	agg.Average = MeanOfDays(agg.Days)
	agg.Cheapest, agg.MostExpensive = Extremes(agg.Days)

	idx := indexByDate(records)
	for _, w := range weeks {
		agg.Weeks = append(agg.Weeks, aggregateWeek(w, idx))
	}
	return agg, nil
}

// RoundMonth rounds all prices of an aggregate for display.
func RoundMonth(agg types.MonthlyAggregate) types.MonthlyAggregate {
	agg.Average = Round2Ptr(agg.Average)
	agg.Cheapest = roundDay(agg.Cheapest)
	agg.MostExpensive = roundDay(agg.MostExpensive)
	agg.Days = roundDays(agg.Days)
	weeks := make([]types.WeeklyAggregate, len(agg.Weeks))
	for i, w := range agg.Weeks {
		w.Average = Round2Ptr(w.Average)
		w.Cheapest = roundDay(w.Cheapest)
		w.MostExpensive = roundDay(w.MostExpensive)
		w.Days = roundDays(w.Days)
		weeks[i] = w
	}
	agg.Weeks = weeks
	return agg
}

func roundDay(d *types.DayAggregate) *types.DayAggregate {
	if d == nil {
		return nil
	}
	return &types.DayAggregate{Date: d.Date, Average: Round2Ptr(d.Average)}
}

func roundDays(days []types.DayAggregate) []types.DayAggregate {
	out := make([]types.DayAggregate, len(days))
	for i, d := range days {
		out[i] = types.DayAggregate{Date: d.Date, Average: Round2Ptr(d.Average)}
	}
	return out
}
