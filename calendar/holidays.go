package calendar

import (
	"time"

	"github.com/meenmo/bondlib/utils"
)

// Holiday rules are evaluated per date; there are no precomputed tables.

func isUSDHoliday(d time.Time) bool {
	y := d.Year()
	switch {
	// New Year's Day. A Saturday holiday is not moved back into December.
	case d.Equal(observedSundayOnly(utils.Date(y, time.January, 1))):
		return true
	case d.Equal(nthWeekday(y, time.January, time.Monday, 3)): // Martin Luther King Jr. Day
		return true
	case d.Equal(nthWeekday(y, time.February, time.Monday, 3)): // Washington's Birthday
		return true
	case d.Equal(easterSunday(y).AddDate(0, 0, -2)): // Good Friday
		return true
	case d.Equal(lastWeekday(y, time.May, time.Monday)): // Memorial Day
		return true
	case y >= 2022 && d.Equal(observed(utils.Date(y, time.June, 19))): // Juneteenth
		return true
	case d.Equal(observed(utils.Date(y, time.July, 4))):
		return true
	case d.Equal(nthWeekday(y, time.September, time.Monday, 1)): // Labor Day
		return true
	case d.Equal(nthWeekday(y, time.October, time.Monday, 2)): // Columbus Day
		return true
	case d.Equal(observedSundayOnly(utils.Date(y, time.November, 11))): // Veterans Day
		return true
	case d.Equal(nthWeekday(y, time.November, time.Thursday, 4)): // Thanksgiving
		return true
	case d.Equal(observed(utils.Date(y, time.December, 25))):
		return true
	}
	return false
}

func isTARGETHoliday(d time.Time) bool {
	y := d.Year()
	easter := easterSunday(y)
	switch {
	case d.Month() == time.January && d.Day() == 1:
		return true
	case d.Equal(easter.AddDate(0, 0, -2)), d.Equal(easter.AddDate(0, 0, 1)):
		return true
	case d.Month() == time.May && d.Day() == 1:
		return true
	case d.Month() == time.December && (d.Day() == 25 || d.Day() == 26):
		return true
	}
	return false
}

func isGBPHoliday(d time.Time) bool {
	y := d.Year()
	easter := easterSunday(y)
	xmas := utils.Date(y, time.December, 25)
	boxing := utils.Date(y, time.December, 26)
	// Christmas and Boxing Day substitutes are the next weekdays not already holidays.
	xmasObs, boxingObs := xmas, boxing
	switch xmas.Weekday() {
	case time.Friday:
		boxingObs = boxing.AddDate(0, 0, 2)
	case time.Saturday:
		xmasObs = xmas.AddDate(0, 0, 2)
		boxingObs = boxing.AddDate(0, 0, 2)
	case time.Sunday:
		xmasObs = xmas.AddDate(0, 0, 2)
	}
	switch {
	case d.Equal(nextWeekday(utils.Date(y, time.January, 1))):
		return true
	case d.Equal(easter.AddDate(0, 0, -2)), d.Equal(easter.AddDate(0, 0, 1)):
		return true
	case d.Equal(nthWeekday(y, time.May, time.Monday, 1)): // Early May bank holiday
		return true
	case d.Equal(lastWeekday(y, time.May, time.Monday)): // Spring bank holiday
		return true
	case d.Equal(lastWeekday(y, time.August, time.Monday)): // Summer bank holiday
		return true
	case d.Equal(xmasObs), d.Equal(boxingObs):
		return true
	}
	return false
}

// observed moves a Saturday holiday to Friday and a Sunday holiday to Monday.
func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

func observedSundayOnly(d time.Time) time.Time {
	if d.Weekday() == time.Sunday {
		return d.AddDate(0, 0, 1)
	}
	return d
}

func nextWeekday(d time.Time) time.Time {
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// nthWeekday returns the n-th (1-based) given weekday of a month.
func nthWeekday(y int, m time.Month, wd time.Weekday, n int) time.Time {
	first := utils.Date(y, m, 1)
	offset := (int(wd) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+7*(n-1))
}

func lastWeekday(y int, m time.Month, wd time.Weekday) time.Time {
	last := utils.Date(y, m, utils.DaysInMonth(y, m))
	offset := (int(last.Weekday()) - int(wd) + 7) % 7
	return last.AddDate(0, 0, -offset)
}

// easterSunday uses the anonymous Gregorian algorithm.
func easterSunday(y int) time.Time {
	a := y % 19
	b := y / 100
	c := y % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return utils.Date(y, time.Month(month), day)
}
