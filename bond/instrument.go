package bond

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/bondlib/daycount"
	"github.com/meenmo/bondlib/schedule"
	"github.com/meenmo/bondlib/utils"
)

// Instrument is a bond specification fixed to one settlement date: its schedule,
// remaining cashflows and their discounting times. It is immutable.
type Instrument struct {
	Spec       Specification
	Schedule   schedule.Schedule
	Settlement time.Time

	cashflows []Cashflow
	flows     []flow
	accrued   float64
}

// flow is a cashflow per 100 face positioned t coupon periods after settlement.
type flow struct {
	t      float64
	amount float64
}

// NewInstrument validates s and builds everything needed to price it at settlement.
func NewInstrument(s Specification, settlement time.Time) (*Instrument, error) {
	if settlement.IsZero() {
		return nil, fmt.Errorf("NewInstrument: settlement date is required")
	}
	if !settlement.Before(s.Maturity) {
		return nil, fmt.Errorf("NewInstrument: settlement %s on or after maturity %s",
			settlement.Format(utils.DateLayout), s.Maturity.Format(utils.DateLayout))
	}
	sched, err := BuildSchedule(s, settlement)
	if err != nil {
		return nil, err
	}
	accrued, err := AccruedInterest(s, sched, settlement)
	if err != nil {
		return nil, err
	}

	in := &Instrument{
		Spec:       s,
		Schedule:   sched,
		Settlement: settlement,
		cashflows:  Cashflows(s, sched, settlement),
		accrued:    accrued,
	}
	in.flows = discountTimes(s, sched, settlement)
	return in, nil
}

// discountTimes positions each remaining cashflow in coupon periods from
// settlement: freq × YF(settlement, end of the current period) for the first
// one, then freq × YF of each following period added on. Regular ICMA and
// 30/360 periods therefore count exactly one.
func discountTimes(s Specification, sched schedule.Schedule, settlement time.Time) []flow {
	freq := float64(s.Frequency)
	scale := 100 / s.FaceValue
	out := make([]flow, 0, len(sched))

	var t float64
	started := false
	for i, p := range sched {
		if !p.EndDate.After(settlement) {
			continue
		}
		ref := reference(s, p)
		if !started {
			t = freq * daycount.YearFraction(s.DayCount, settlement, p.EndDate, ref)
			started = true
		} else if !p.Stub && fixedCouponBasis(s.DayCount) {
			t++
		} else {
			t += freq * daycount.YearFraction(s.DayCount, p.StartDate, p.EndDate, ref)
		}
		amount := CouponAmount(s, p)
		if i == len(sched)-1 {
			amount += s.FaceValue
		}
		out = append(out, flow{t: t, amount: amount * scale})
	}
	return out
}

// Cashflows returns the payments still due after settlement.
func (in *Instrument) Cashflows() []Cashflow {
	out := make([]Cashflow, len(in.cashflows))
	copy(out, in.cashflows)
	return out
}

// AccruedInterest returns accrued interest per 100 face.
func (in *Instrument) AccruedInterest() float64 {
	return in.accrued
}

// DirtyPrice returns the price per 100 face at yield y, compounded at the bond's
// frequency.
func (in *Instrument) DirtyPrice(y float64) float64 {
	p, _, _ := in.priceDerivatives(y)
	return p
}

// CleanPrice returns DirtyPrice less accrued interest.
func (in *Instrument) CleanPrice(y float64) float64 {
	return in.DirtyPrice(y) - in.accrued
}

// priceDerivatives returns price, dP/dy and d²P/dy².
//
//	P      = Σ a_k · v^t_k,          v = 1 / (1 + y/f)
//	dP/dy  = Σ −a_k · t_k/f · v^(t_k+1)
//	d²P/dy² = Σ a_k · t_k(t_k+1)/f² · v^(t_k+2)
func (in *Instrument) priceDerivatives(y float64) (float64, float64, float64) {
	f := float64(in.Spec.Frequency)
	base := 1 + y/f
	if base <= 0 {
		return math.Inf(1), math.Inf(-1), math.Inf(1)
	}
	var price, d1, d2 float64
	for _, fl := range in.flows {
		disc := math.Pow(base, -fl.t)
		price += fl.amount * disc
		d1 -= fl.amount * fl.t / f * disc / base
		d2 += fl.amount * fl.t * (fl.t + 1) / (f * f) * disc / (base * base)
	}
	return price, d1, d2
}
