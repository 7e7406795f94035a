// Package spread measures a bond's yield and price against a benchmark curve.
package spread

import (
	"errors"
	"fmt"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/curve"
	"github.com/meenmo/bondlib/solver"
)

// ErrNilCurve is returned when a required curve argument is nil.
var ErrNilCurve = errors.New("nil curve")

// GSpreadResult is a single-point spread to the interpolated benchmark.
type GSpreadResult struct {
	SpreadBP       float64 `json:"spread_bp"`
	BenchmarkYield float64 `json:"benchmark_yield"`
	Tenor          float64 `json:"tenor"`
}

// GSpread returns (yield - benchmark yield at the bond's tenor) in basis points.
// Tenor is ACT/365F years from settlement to maturity.
func GSpread(in *bond.Instrument, yield float64, c *curve.Curve) (GSpreadResult, error) {
	if c == nil {
		return GSpreadResult{}, fmt.Errorf("GSpread: %w", ErrNilCurve)
	}
	tenor := curve.YearsBetween(in.Settlement, in.Spec.Maturity)
	bench := c.YieldAt(tenor)
	return GSpreadResult{
		SpreadBP:       (yield - bench) * 1e4,
		BenchmarkYield: bench,
		Tenor:          tenor,
	}, nil
}

// ZSpreadResult is the constant curve shift that reprices the bond.
type ZSpreadResult struct {
	SpreadBP   float64 `json:"spread_bp"`
	Converged  bool    `json:"converged"`
	Iterations int     `json:"iterations"`
	Residual   float64 `json:"residual"`
}

// ZSpread solves for s such that the bond's own cashflows, each discounted on
// the curve at its payment time plus s, sum to dirtyPrice (per 100 face).
func ZSpread(in *bond.Instrument, dirtyPrice float64, c *curve.Curve, opts solver.Options) (ZSpreadResult, error) {
	if c == nil {
		return ZSpreadResult{}, fmt.Errorf("ZSpread: %w", ErrNilCurve)
	}
	cfs := in.Cashflows()
	times := make([]float64, len(cfs))
	amounts := make([]float64, len(cfs))
	scale := 100 / in.Spec.FaceValue
	for i, cf := range cfs {
		times[i] = curve.YearsBetween(in.Settlement, cf.Date)
		amounts[i] = cf.Amount() * scale
	}

	opts.Guess = 0
	res, err := solver.Solve(func(s float64) (float64, float64) {
		var pv, dpv float64
		for i, t := range times {
			df, ddf := c.Discount(t, s)
			pv += amounts[i] * df
			dpv += amounts[i] * ddf
		}
		return pv - dirtyPrice, dpv
	}, opts)

	out := ZSpreadResult{
		SpreadBP:   res.Root * 1e4,
		Converged:  res.Converged,
		Iterations: res.Iterations,
		Residual:   res.Residual,
	}
	if err != nil {
		return out, fmt.Errorf("ZSpread: %w", err)
	}
	return out, nil
}
