package spread

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/curve"
	"github.com/meenmo/bondlib/daycount"
)

// ErrZeroAnnuity is returned when no coupon period remains to spread over.
var ErrZeroAnnuity = errors.New("annuity is zero")

// ASWResult is a par asset swap spread against the benchmark curve.
type ASWResult struct {
	SpreadBP float64 `json:"spread_bp"`
	PVCurve  float64 `json:"pv_curve"`
	PV01     float64 `json:"pv01"`
}

// AssetSwapSpread computes the par-par asset swap spread (in bp) using:
//
//	ASW ≈ (PV_bond^{curve} - P_dirty) / PV01
//
// where PV01 is the PV of 1bp per 100 notional over the bond's remaining coupon
// periods, accrued on the bond's day count and discounted on the curve.
func AssetSwapSpread(in *bond.Instrument, dirtyPrice float64, c *curve.Curve) (ASWResult, error) {
	if c == nil {
		return ASWResult{}, fmt.Errorf("AssetSwapSpread: %w", ErrNilCurve)
	}

	scale := 100 / in.Spec.FaceValue
	var pvs []float64
	for _, cf := range in.Cashflows() {
		df, _ := c.Discount(curve.YearsBetween(in.Settlement, cf.Date), 0)
		pvs = append(pvs, cf.Amount()*scale*df)
	}
	pvBond := floats.Sum(pvs)

	var pv01 float64
	for _, p := range in.Schedule {
		if !p.EndDate.After(in.Settlement) {
			continue
		}
		start := p.StartDate
		if start.Before(in.Settlement) {
			start = in.Settlement
		}
		accrual := daycount.YearFraction(in.Spec.DayCount, start, p.EndDate, daycount.Reference{
			Start:      p.RefStart,
			End:        p.RefEnd,
			Frequency:  int(in.Spec.Frequency),
			EndOfMonth: in.Spec.EndOfMonth,
			Maturity:   in.Spec.Maturity,
		})
		df, _ := c.Discount(curve.YearsBetween(in.Settlement, p.PayDate), 0)
		pv01 += 100 * accrual * 1e-4 * df
	}
	if pv01 == 0 {
		return ASWResult{}, fmt.Errorf("AssetSwapSpread: %w", ErrZeroAnnuity)
	}

	return ASWResult{
		SpreadBP: (pvBond - dirtyPrice) / pv01,
		PVCurve:  pvBond,
		PV01:     pv01,
	}, nil
}
