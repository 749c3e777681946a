package tariff

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/stromtarif/stromtarif/pkg/types"
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidMonthKey = errors.New("invalid month key")

	datePattern  = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	monthPattern = regexp.MustCompile(`^\d{2}/\d{4}$`)
)

// ParseDate parses a DD/MM/YYYY date in UTC.
func ParseDate(s string) (time.Time, error) {
	if !datePattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	t, err := time.Parse(types.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %w", ErrInvalidDate, s, err)
	}
	return t, nil
}

// ValidDate returns true if s is a real DD/MM/YYYY date.
func ValidDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// FormatDate formats t as DD/MM/YYYY.
func FormatDate(t time.Time) string {
	return t.Format(types.DateLayout)
}

// ParseMonthKey parses an MM/YYYY month key.
func ParseMonthKey(s string) (int, time.Month, error) {
	if !monthPattern.MatchString(s) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidMonthKey, s)
	}
	t, err := time.Parse(types.MonthLayout, s)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q: %w", ErrInvalidMonthKey, s, err)
	}
	return t.Year(), t.Month(), nil
}

// MonthKey returns the MM/YYYY key of the month containing t.
func MonthKey(t time.Time) string {
	return t.Format(types.MonthLayout)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// isoWeekday returns 1 for Monday through 7 for Sunday.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
