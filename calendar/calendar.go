package calendar

import (
	"time"

	"github.com/meenmo/bondlib/utils"
)

// Calendar answers business-day questions for a market.
type Calendar interface {
	IsBusinessDay(t time.Time) bool
}

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	// USD follows the SIFMA recommendation for US government securities.
	USD    CalendarID = "USD"
	TARGET CalendarID = "TARGET"
	GBP    CalendarID = "GBP"
	// NONE treats every weekday as a business day.
	NONE CalendarID = "NONE"
)

// Valid reports whether id names a known calendar.
func (id CalendarID) Valid() bool {
	switch id {
	case USD, TARGET, GBP, NONE:
		return true
	}
	return false
}

// IsBusinessDay checks weekends and the calendar's holiday rules.
func (id CalendarID) IsBusinessDay(t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !id.IsHoliday(t)
}

// IsHoliday reports whether t is a weekday holiday on the calendar.
func (id CalendarID) IsHoliday(t time.Time) bool {
	d := utils.Truncate(t)
	switch id {
	case USD:
		return isUSDHoliday(d)
	case TARGET:
		return isTARGETHoliday(d)
	case GBP:
		return isGBPHoliday(d)
	default:
		return false
	}
}

// ForCurrency returns the settlement calendar conventionally used for a currency.
func ForCurrency(ccy string) CalendarID {
	switch ccy {
	case "USD":
		return USD
	case "EUR":
		return TARGET
	case "GBP":
		return GBP
	default:
		return NONE
	}
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal Calendar, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if cal.IsBusinessDay(t) {
			n -= step
		}
	}
	return t
}

// LastBusinessDayOfMonth returns the last business day of the month containing t.
func LastBusinessDayOfMonth(cal Calendar, t time.Time) time.Time {
	nextMonth := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return AddBusinessDays(cal, nextMonth, -1)
}
