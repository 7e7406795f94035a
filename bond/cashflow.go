package bond

import (
	"fmt"
	"time"

	"github.com/meenmo/bondlib/daycount"
	"github.com/meenmo/bondlib/schedule"
	"github.com/meenmo/bondlib/utils"
)

// BuildSchedule generates the coupon schedule of s as seen from settlement.
//
// The schedule starts at the issue date when known. Otherwise it starts one
// regular period before the first coupon date, or at the last regular date on or
// before settlement when neither date is known.
func BuildSchedule(s Specification, settlement time.Time) (schedule.Schedule, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return schedule.Generate(schedule.Params{
		Effective:       EffectiveDate(s, settlement),
		Maturity:        s.Maturity,
		FirstCouponDate: s.FirstCouponDate,
		FrequencyMonths: s.Frequency.Months(),
		EndOfMonth:      s.EndOfMonth,
		Calendar:        s.MarketCalendar(),
		Convention:      s.BusinessConvention,
	})
}

// EffectiveDate returns the accrual start of the first period.
func EffectiveDate(s Specification, settlement time.Time) time.Time {
	months := s.Frequency.Months()
	switch {
	case !s.IssueDate.IsZero():
		return s.IssueDate
	case !s.FirstCouponDate.IsZero():
		return utils.AddMonth(s.FirstCouponDate, -months, s.EndOfMonth)
	}
	d := s.Maturity
	for k := 1; d.After(settlement); k++ {
		d = utils.AddMonth(s.Maturity, -k*months, s.EndOfMonth)
	}
	return d
}

// reference returns the day count context of a period.
func reference(s Specification, p schedule.Period) daycount.Reference {
	return daycount.Reference{
		Start:      p.RefStart,
		End:        p.RefEnd,
		Frequency:  int(s.Frequency),
		EndOfMonth: s.EndOfMonth,
		Maturity:   s.Maturity,
	}
}

// fixedCouponBasis reports whether regular periods pay exactly rate/frequency.
func fixedCouponBasis(c daycount.Convention) bool {
	return c == daycount.ActActICMA || c.IsThirty360()
}

// CouponAmount returns the coupon paid for period p, in currency units.
func CouponAmount(s Specification, p schedule.Period) float64 {
	if !p.Stub && fixedCouponBasis(s.DayCount) {
		return s.CouponRate * s.FaceValue / float64(s.Frequency)
	}
	return s.CouponRate * s.FaceValue * daycount.YearFraction(s.DayCount, p.StartDate, p.EndDate, reference(s, p))
}

// Cashflows returns the payments of every period ending after settlement. The
// final payment carries the face value.
func Cashflows(s Specification, sched schedule.Schedule, settlement time.Time) []Cashflow {
	out := make([]Cashflow, 0, len(sched))
	for i, p := range sched {
		if !p.EndDate.After(settlement) {
			continue
		}
		cf := Cashflow{
			Date:       p.PayDate,
			AccrualEnd: p.EndDate,
			Coupon:     CouponAmount(s, p),
			Kind:       KindCoupon,
		}
		if i == len(sched)-1 {
			cf.Principal = s.FaceValue
			cf.Kind = KindCouponAndPrincipal
			if cf.Coupon == 0 {
				cf.Kind = KindPrincipal
			}
		}
		out = append(out, cf)
	}
	return out
}

// AccruedForPeriod returns the coupon of p accrued from its start to settlement,
// in currency units: coupon × YF(start, settlement) / YF(start, end).
//
// It returns exactly zero at the period start and exactly the full coupon at
// the period end.
func AccruedForPeriod(s Specification, p schedule.Period, settlement time.Time) float64 {
	if !settlement.After(p.StartDate) {
		return 0
	}
	coupon := CouponAmount(s, p)
	if !settlement.Before(p.EndDate) {
		return coupon
	}
	ref := reference(s, p)
	full := daycount.YearFraction(s.DayCount, p.StartDate, p.EndDate, ref)
	if full == 0 {
		return 0
	}
	return coupon * daycount.YearFraction(s.DayCount, p.StartDate, settlement, ref) / full
}

// AccruedInterest returns accrued interest per 100 face at settlement, using the
// period [P, N) with P <= settlement < N.
func AccruedInterest(s Specification, sched schedule.Schedule, settlement time.Time) (float64, error) {
	if len(sched) == 0 {
		return 0, fmt.Errorf("AccruedInterest: empty schedule")
	}
	i, ok := sched.PeriodAt(settlement)
	if !ok {
		// Before the first accrual start or at/after maturity nothing is owed.
		return 0, nil
	}
	return AccruedForPeriod(s, sched[i], settlement) * 100 / s.FaceValue, nil
}
