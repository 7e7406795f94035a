// Package daycount converts date spans into day counts and year fractions under
// the market's named conventions.
package daycount

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/meenmo/bondlib/utils"
)

// Convention names a day count convention.
type Convention string

const (
	ActActISDA     Convention = "ACT/ACT ISDA"
	ActActICMA     Convention = "ACT/ACT ICMA"
	Thirty360      Convention = "30/360"
	Thirty360E     Convention = "30E/360"
	Thirty360EISDA Convention = "30E/360 ISDA"
	Act360         Convention = "ACT/360"
	Act365F        Convention = "ACT/365F"
)

// ErrUnknownConvention is returned by Parse for names outside the supported set.
var ErrUnknownConvention = errors.New("unknown day count convention")

var aliases = map[string]Convention{
	"ACT/ACT ISDA":     ActActISDA,
	"ACT/ACT HISTORIC": ActActISDA,
	"ACTUAL/ACTUAL":    ActActISDA,
	"ACT/ACT ICMA":     ActActICMA,
	"ACT/ACT ISMA":     ActActICMA,
	"ACT/ACT BOND":     ActActICMA,
	"ACT/ACT":          ActActICMA,
	"ACT/ACT (BOND)":   ActActICMA,
	"30/360":           Thirty360,
	"30/360 US":        Thirty360,
	"30U/360":          Thirty360,
	"BOND BASIS":       Thirty360,
	"30E/360":          Thirty360E,
	"EUROBOND BASIS":   Thirty360E,
	"30E/360 ISDA":     Thirty360EISDA,
	"ACT/360":          Act360,
	"ACTUAL/360":       Act360,
	"ACT/365F":         Act365F,
	"ACT/365":          Act365F,
	"ACT/365 FIXED":    Act365F,
	"ACTUAL/365":       Act365F,
}

// Parse normalises a convention name (case, spacing and common aliases).
func Parse(s string) (Convention, error) {
	key := strings.Join(strings.Fields(strings.ToUpper(s)), " ")
	if c, ok := aliases[key]; ok {
		return c, nil
	}
	return "", fmt.Errorf("daycount.Parse: %q: %w", s, ErrUnknownConvention)
}

// Valid reports whether c is one of the supported conventions.
func (c Convention) Valid() bool {
	switch c {
	case ActActISDA, ActActICMA, Thirty360, Thirty360E, Thirty360EISDA, Act360, Act365F:
		return true
	}
	return false
}

// IsThirty360 reports whether c belongs to the 30/360 family.
func (c Convention) IsThirty360() bool {
	return c == Thirty360 || c == Thirty360E || c == Thirty360EISDA
}

// Reference carries what some conventions need beyond the two dates.
//
// Start/End is the notional coupon period used by ACT/ACT ICMA. Frequency is the
// number of coupons per year and EndOfMonth pins the notional grid to month
// ends. Maturity drives the February rule of 30E/360 ISDA.
type Reference struct {
	Start      time.Time
	End        time.Time
	Frequency  int
	EndOfMonth bool
	Maturity   time.Time
}

// DayCount returns the day numerator of the convention between start and end.
func DayCount(c Convention, start, end time.Time, ref Reference) int {
	switch c {
	case Thirty360:
		return thirty360US(start, end)
	case Thirty360E:
		return thirty360E(start, end)
	case Thirty360EISDA:
		return thirty360EISDA(start, end, ref.Maturity)
	default:
		return utils.Days(start, end)
	}
}

// YearFraction computes the year fraction between two dates.
func YearFraction(c Convention, start, end time.Time, ref Reference) float64 {
	if end.Before(start) {
		return -YearFraction(c, end, start, ref)
	}
	switch c {
	case Act360:
		return float64(utils.Days(start, end)) / 360.0
	case Act365F:
		return float64(utils.Days(start, end)) / 365.0
	case Thirty360, Thirty360E, Thirty360EISDA:
		return float64(DayCount(c, start, end, ref)) / 360.0
	case ActActISDA:
		return actActISDA(start, end)
	case ActActICMA:
		return actActICMA(start, end, ref)
	default:
		return float64(utils.Days(start, end)) / 365.0
	}
}

func actActISDA(start, end time.Time) float64 {
	if !start.Before(end) {
		return 0
	}
	var yf float64
	cur := start
	for cur.Year() < end.Year() {
		next := utils.Date(cur.Year()+1, time.January, 1)
		yf += float64(utils.Days(cur, next)) / float64(daysInYear(cur.Year()))
		cur = next
	}
	yf += float64(utils.Days(cur, end)) / float64(daysInYear(end.Year()))
	return yf
}

func daysInYear(y int) int {
	if y%4 == 0 && (y%100 != 0 || y%400 == 0) {
		return 366
	}
	return 365
}

// actActICMA measures [start, end] in notional coupon periods laid on a grid
// anchored at the end of the reference period, so long stubs are counted one
// notional period at a time.
func actActICMA(start, end time.Time, ref Reference) float64 {
	freq := max(ref.Frequency, 1)
	months := 12 / freq
	anchor := ref.End
	if anchor.IsZero() || ref.Start.IsZero() || !ref.Start.Before(anchor) {
		anchor = utils.AddMonth(start, months, ref.EndOfMonth)
	}
	grid := func(k int) time.Time {
		return utils.AddMonth(anchor, k*months, ref.EndOfMonth)
	}

	k := 0
	for start.Before(grid(k - 1)) {
		k--
	}
	for !start.Before(grid(k)) {
		k++
	}

	var periods float64
	for cur := start; cur.Before(end); k++ {
		lo, hi := grid(k-1), grid(k)
		stop := end
		if hi.Before(stop) {
			stop = hi
		}
		periods += float64(utils.Days(cur, stop)) / float64(utils.Days(lo, hi))
		cur = stop
	}
	return periods / float64(freq)
}

func thirty360US(start, end time.Time) int {
	y1, m1, d1 := start.Year(), int(start.Month()), start.Day()
	y2, m2, d2 := end.Year(), int(end.Month()), end.Day()
	if utils.IsLastDayOfFebruary(start) && utils.IsLastDayOfFebruary(end) {
		d2 = 30
	}
	if utils.IsLastDayOfFebruary(start) {
		d1 = 30
	}
	if d2 == 31 && d1 >= 30 {
		d2 = 30
	}
	if d1 == 31 {
		d1 = 30
	}
	return 360*(y2-y1) + 30*(m2-m1) + (d2 - d1)
}

func thirty360E(start, end time.Time) int {
	d1 := min(start.Day(), 30)
	d2 := min(end.Day(), 30)
	return 360*(end.Year()-start.Year()) + 30*(int(end.Month())-int(start.Month())) + (d2 - d1)
}

func thirty360EISDA(start, end, maturity time.Time) int {
	d1, d2 := start.Day(), end.Day()
	if utils.IsEndOfMonth(start) {
		d1 = 30
	}
	if utils.IsEndOfMonth(end) && !(end.Equal(maturity) && end.Month() == time.February) {
		d2 = 30
	}
	return 360*(end.Year()-start.Year()) + 30*(int(end.Month())-int(start.Month())) + (d2 - d1)
}
