package utils

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// DateLayout is the ISO date layout used for inputs, outputs and holiday keys.
const DateLayout = "2006-01-02"

// SortDates sorts a slice of time.Time in ascending order.
func SortDates(dates []time.Time) {
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
}

// ParseDate converts YYYY-MM-DD to a UTC midnight time.Time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("ParseDate: %w", err)
	}
	return t, nil
}

// Date builds a UTC midnight date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the clock part of t and moves it to UTC.
func Truncate(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// Days returns the number of calendar days from start to end.
func Days(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Hours() / 24))
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// IsEndOfMonth reports whether t is the last calendar day of its month.
func IsEndOfMonth(t time.Time) bool {
	return t.Day() == DaysInMonth(t.Year(), t.Month())
}

// IsLastDayOfFebruary reports whether t is Feb 28 (non-leap) or Feb 29.
func IsLastDayOfFebruary(t time.Time) bool {
	return t.Month() == time.February && IsEndOfMonth(t)
}

// AddMonth behaves like Excel's EDATE: the day is clamped to the target month's
// length instead of spilling over. With eom set and t on a month end, the result
// is pinned to the target month's end.
func AddMonth(t time.Time, months int, eom bool) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	last := DaysInMonth(first.Year(), first.Month())
	day := t.Day()
	if day > last || (eom && IsEndOfMonth(t)) {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// PriorMonthEnd returns the last calendar day of the month before t.
func PriorMonthEnd(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), 1).AddDate(0, 0, -1)
}

// RoundTo rounds a float to the specified decimal places.
func RoundTo(val float64, decimals uint32) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
