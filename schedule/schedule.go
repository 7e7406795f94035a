// Package schedule builds bond accrual and payment schedules.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/meenmo/bondlib/calendar"
	"github.com/meenmo/bondlib/utils"
)

// ErrDegenerate is wrapped by every *Error.
var ErrDegenerate = errors.New("degenerate schedule")

// Error reports a schedule that cannot be generated from the given dates.
type Error struct {
	Effective time.Time
	Maturity  time.Time
	Reason    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("schedule: %s (effective %s, maturity %s)", e.Reason,
		e.Effective.Format(utils.DateLayout), e.Maturity.Format(utils.DateLayout))
}

func (e *Error) Unwrap() error { return ErrDegenerate }

// Period is one accrual period.
//
// StartDate/EndDate are the accrual boundaries, PayDate is EndDate rolled by the
// business-day convention. RefStart/RefEnd is the notional regular period the
// period is measured against; it equals [StartDate, EndDate] unless Stub is set.
type Period struct {
	StartDate time.Time
	EndDate   time.Time
	PayDate   time.Time
	RefStart  time.Time
	RefEnd    time.Time
	Stub      bool
}

// Schedule is an ordered, gap-free sequence of periods ending at maturity.
type Schedule []Period

// Params configures Generate.
type Params struct {
	Effective       time.Time
	Maturity        time.Time
	FirstCouponDate time.Time
	FrequencyMonths int
	EndOfMonth      bool
	Calendar        calendar.Calendar
	Convention      calendar.BusinessDayConvention
	// AdjustAccrual also rolls accrual boundaries. Bonds normally accrue on
	// unadjusted dates and only move the payment.
	AdjustAccrual bool
}

// Generate builds the schedule backward from maturity in FrequencyMonths steps.
//
// The chronologically first period is flagged as a stub when irregular. When a
// FirstCouponDate is given that does not sit on the backward grid, dates are
// rolled forward from it instead and the last period becomes a back stub.
func Generate(p Params) (Schedule, error) {
	if !p.Maturity.After(p.Effective) {
		return nil, &Error{Effective: p.Effective, Maturity: p.Maturity, Reason: "maturity on or before effective date"}
	}
	if p.FrequencyMonths <= 0 || 12%p.FrequencyMonths != 0 {
		return nil, &Error{Effective: p.Effective, Maturity: p.Maturity, Reason: fmt.Sprintf("unsupported frequency of %d months", p.FrequencyMonths)}
	}
	if p.Calendar == nil {
		p.Calendar = calendar.NONE
	}

	first := p.FirstCouponDate
	if !first.IsZero() && (!first.After(p.Effective) || !first.Before(p.Maturity)) {
		first = time.Time{}
	}

	dates := backwardDates(p)
	backStub := false
	if !first.IsZero() {
		if onGrid(dates, first) {
			dates = dropBefore(dates, first)
		} else {
			dates = forwardDates(p, first)
			backStub = true
		}
	}
	dates = append([]time.Time{p.Effective}, dates...)

	periods := make(Schedule, 0, len(dates)-1)
	for i := 0; i < len(dates)-1; i++ {
		start, end := dates[i], dates[i+1]
		isLast := i == len(dates)-2
		per := Period{StartDate: start, EndDate: end, RefStart: start, RefEnd: end}

		if !isRegular(start, end, p) {
			per.Stub = true
			if isLast && backStub {
				per.RefEnd = utils.AddMonth(start, p.FrequencyMonths, p.EndOfMonth)
			} else {
				per.RefStart = utils.AddMonth(end, -p.FrequencyMonths, p.EndOfMonth)
			}
		}

		per.PayDate = calendar.Adjust(p.Calendar, end, p.Convention)
		// Effective and maturity dates anchor the schedule and are never moved.
		if p.AdjustAccrual {
			if i > 0 {
				per.StartDate = periods[i-1].EndDate
			}
			if !isLast {
				per.EndDate = per.PayDate
			}
		}
		periods = append(periods, per)
	}

	if err := periods.Validate(); err != nil {
		return nil, &Error{Effective: p.Effective, Maturity: p.Maturity, Reason: err.Error()}
	}
	return periods, nil
}

func backwardDates(p Params) []time.Time {
	var rev []time.Time
	for k := 0; ; k++ {
		d := utils.AddMonth(p.Maturity, -k*p.FrequencyMonths, p.EndOfMonth)
		if !d.After(p.Effective) {
			break
		}
		rev = append(rev, d)
	}
	out := make([]time.Time, len(rev))
	for i, d := range rev {
		out[len(rev)-1-i] = d
	}
	return out
}

func forwardDates(p Params, first time.Time) []time.Time {
	out := []time.Time{first}
	for k := 1; ; k++ {
		d := utils.AddMonth(first, k*p.FrequencyMonths, p.EndOfMonth)
		if !d.Before(p.Maturity) {
			break
		}
		out = append(out, d)
	}
	return append(out, p.Maturity)
}

func onGrid(dates []time.Time, t time.Time) bool {
	for _, d := range dates {
		if d.Equal(t) {
			return true
		}
	}
	return false
}

func dropBefore(dates []time.Time, t time.Time) []time.Time {
	for i, d := range dates {
		if !d.Before(t) {
			return dates[i:]
		}
	}
	return dates
}

func isRegular(start, end time.Time, p Params) bool {
	return utils.AddMonth(end, -p.FrequencyMonths, p.EndOfMonth).Equal(start) ||
		utils.AddMonth(start, p.FrequencyMonths, p.EndOfMonth).Equal(end)
}

// Validate checks ordering and contiguity.
func (s Schedule) Validate() error {
	if len(s) == 0 {
		return errors.New("empty schedule")
	}
	for i, per := range s {
		if !per.StartDate.Before(per.EndDate) {
			return fmt.Errorf("period %d: start %s not before end %s", i,
				per.StartDate.Format(utils.DateLayout), per.EndDate.Format(utils.DateLayout))
		}
		if i > 0 && !s[i-1].EndDate.Equal(per.StartDate) {
			return fmt.Errorf("period %d: gap after %s", i, s[i-1].EndDate.Format(utils.DateLayout))
		}
	}
	return nil
}

// Maturity returns the final accrual end date.
func (s Schedule) Maturity() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].EndDate
}

// PeriodAt returns the index of the period with StartDate <= t < EndDate.
func (s Schedule) PeriodAt(t time.Time) (int, bool) {
	for i, per := range s {
		if !t.Before(per.StartDate) && t.Before(per.EndDate) {
			return i, true
		}
	}
	return -1, false
}
