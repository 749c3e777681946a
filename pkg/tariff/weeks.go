package tariff

import (
	"errors"
	"fmt"
	"time"

	"github.com/stromtarif/stromtarif/pkg/types"
)

// ErrMonthNotInTable is returned when the fixed week table has no entry for
// the requested month.
var ErrMonthNotInTable = errors.New("month not covered by the week table")

// WeekBucketer groups the days of a month into calendar weeks.
type WeekBucketer interface {
	Weeks(year int, month time.Month) ([]types.CalendarWeek, error)
}

// Bucketer returns the WeekBucketer for a strategy. An empty strategy selects
// the fixed table.
func Bucketer(strategy types.WeekStrategy) (WeekBucketer, error) {
	switch strategy {
	case types.WeekStrategyTable, "":
		return Table2025, nil
	case types.WeekStrategyComputed:
		return ComputedWeeks{}, nil
	default:
		return nil, fmt.Errorf("unknown week strategy: %q", string(strategy))
	}
}

type tableWeek struct {
	monthKey string
	number   string
	// first is the Monday the week starts on.
	first string
}

// FixedTable is a predefined list of weeks per month. A week lists all 7 of
// its dates even when some of them belong to a neighbouring month or year.
type FixedTable struct {
	byMonth map[string][]types.CalendarWeek
	byDate  map[string]types.CalendarWeek
}

func newFixedTable(weeks []tableWeek) *FixedTable {
	t := &FixedTable{
		byMonth: make(map[string][]types.CalendarWeek),
		byDate:  make(map[string]types.CalendarWeek),
	}
	for _, w := range weeks {
		first, err := ParseDate(w.first)
		if err != nil {
			panic(fmt.Errorf("invalid week table entry %s: %w", w.number, err))
		}
		cw := types.CalendarWeek{
			WeekNumber: w.number,
			MonthKey:   w.monthKey,
		}
		for i := 0; i < 7; i++ {
			cw.MemberDates = append(cw.MemberDates, FormatDate(first.AddDate(0, 0, i)))
		}
		t.byMonth[w.monthKey] = append(t.byMonth[w.monthKey], cw)
		for _, d := range cw.MemberDates {
			t.byDate[d] = cw
		}
	}
	return t
}

// Weeks implements WeekBucketer.
func (t *FixedTable) Weeks(year int, month time.Month) ([]types.CalendarWeek, error) {
	key := MonthKey(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
	weeks, ok := t.byMonth[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMonthNotInTable, key)
	}
	out := make([]types.CalendarWeek, len(weeks))
	for i, w := range weeks {
		w.MemberDates = append([]string(nil), w.MemberDates...)
		out[i] = w
	}
	return out, nil
}

// WeekOf returns the week a DD/MM/YYYY date is assigned to.
func (t *FixedTable) WeekOf(date string) (types.CalendarWeek, bool) {
	w, ok := t.byDate[date]
	return w, ok
}

// Table2025 is the week table used for the 2025 price data. Weeks follow ISO
// numbering and are listed under the month containing their Thursday. The
// first week of 2026 is listed under December so that the last days of 2025
// have a week.
var Table2025 = newFixedTable([]tableWeek{
	{"01/2025", "01", "30/12/2024"},
	{"01/2025", "02", "06/01/2025"},
	{"01/2025", "03", "13/01/2025"},
	{"01/2025", "04", "20/01/2025"},
	{"01/2025", "05", "27/01/2025"},
	{"02/2025", "06", "03/02/2025"},
	{"02/2025", "07", "10/02/2025"},
	{"02/2025", "08", "17/02/2025"},
	{"02/2025", "09", "24/02/2025"},
	{"03/2025", "10", "03/03/2025"},
	{"03/2025", "11", "10/03/2025"},
	{"03/2025", "12", "17/03/2025"},
	{"03/2025", "13", "24/03/2025"},
	{"04/2025", "14", "31/03/2025"},
	{"04/2025", "15", "07/04/2025"},
	{"04/2025", "16", "14/04/2025"},
	{"04/2025", "17", "21/04/2025"},
	{"05/2025", "18", "28/04/2025"},
	{"05/2025", "19", "05/05/2025"},
	{"05/2025", "20", "12/05/2025"},
	{"05/2025", "21", "19/05/2025"},
	{"05/2025", "22", "26/05/2025"},
	{"06/2025", "23", "02/06/2025"},
	{"06/2025", "24", "09/06/2025"},
	{"06/2025", "25", "16/06/2025"},
	{"06/2025", "26", "23/06/2025"},
	{"07/2025", "27", "30/06/2025"},
	{"07/2025", "28", "07/07/2025"},
	{"07/2025", "29", "14/07/2025"},
	{"07/2025", "30", "21/07/2025"},
	{"07/2025", "31", "28/07/2025"},
	{"08/2025", "32", "04/08/2025"},
	{"08/2025", "33", "11/08/2025"},
	{"08/2025", "34", "18/08/2025"},
	{"08/2025", "35", "25/08/2025"},
	{"09/2025", "36", "01/09/2025"},
	{"09/2025", "37", "08/09/2025"},
	{"09/2025", "38", "15/09/2025"},
	{"09/2025", "39", "22/09/2025"},
	{"10/2025", "40", "29/09/2025"},
	{"10/2025", "41", "06/10/2025"},
	{"10/2025", "42", "13/10/2025"},
	{"10/2025", "43", "20/10/2025"},
	{"10/2025", "44", "27/10/2025"},
	{"11/2025", "45", "03/11/2025"},
	{"11/2025", "46", "10/11/2025"},
	{"11/2025", "47", "17/11/2025"},
	{"11/2025", "48", "24/11/2025"},
	{"12/2025", "49", "01/12/2025"},
	{"12/2025", "50", "08/12/2025"},
	{"12/2025", "51", "15/12/2025"},
	{"12/2025", "52", "22/12/2025"},
	{"12/2025", "01", "29/12/2025"},
})

// ComputedWeeks numbers the weeks of a month from 1, starting a new week
// every Monday. The first and last week are usually partial.
type ComputedWeeks struct{}

// WeekOfMonth returns the week number of t within its month:
// adjusted = day + weekday(1st) - 1, week = (adjusted-1)/7 + 1, with Monday
// as weekday 1 and Sunday as 7.
func (ComputedWeeks) WeekOfMonth(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	adjusted := t.Day() + isoWeekday(first) - 1
	return (adjusted-1)/7 + 1
}

// DayRange returns the first and last day of month covered by the given
// week. ok is false if the week does not fall in the month.
func (ComputedWeeks) DayRange(year int, month time.Month, week int) (int, int, bool) {
	if week < 1 {
		return 0, 0, false
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := DaysInMonth(year, month)
	start := (week-1)*7 - isoWeekday(first) + 2
	end := start + 6
	if start < 1 {
		start = 1
	}
	if end > days {
		end = days
	}
	if start > days || end < 1 {
		return 0, 0, false
	}
	return start, end, true
}

// Weeks implements WeekBucketer.
func (c ComputedWeeks) Weeks(year int, month time.Month) ([]types.CalendarWeek, error) {
	key := MonthKey(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
	var weeks []types.CalendarWeek
	for week := 1; ; week++ {
		start, end, ok := c.DayRange(year, month, week)
		if !ok {
			break
		}
		cw := types.CalendarWeek{
			WeekNumber: fmt.Sprintf("%02d", week),
			MonthKey:   key,
		}
		for d := start; d <= end; d++ {
			cw.MemberDates = append(cw.MemberDates, FormatDate(time.Date(year, month, d, 0, 0, 0, 0, time.UTC)))
		}
		weeks = append(weeks, cw)
	}
	return weeks, nil
}
