package bond

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// OneBasisPoint is the yield bump used for PVBP.
const OneBasisPoint = 1e-4

// RiskMetrics are yield sensitivities of the dirty price.
//
// Durations are in years, Convexity in years², PVBP in price per 100 face.
type RiskMetrics struct {
	MacaulayDuration float64 `json:"macaulay_duration"`
	ModifiedDuration float64 `json:"modified_duration"`
	Convexity        float64 `json:"convexity"`
	PVBP             float64 `json:"pvbp"`
}

// RiskMetrics derives durations, convexity and PVBP at the solved yield. The
// yield is taken as given and never re-solved.
func (in *Instrument) RiskMetrics(sol YieldSolution) RiskMetrics {
	y := sol.Yield
	f := float64(in.Spec.Frequency)
	base := 1 + y/f

	pv := make([]float64, len(in.flows))
	years := make([]float64, len(in.flows))
	for i, fl := range in.flows {
		pv[i] = fl.amount * math.Pow(base, -fl.t)
		years[i] = fl.t / f
	}
	price := floats.Sum(pv)
	if price == 0 {
		return RiskMetrics{}
	}

	macaulay := floats.Dot(years, pv) / price
	_, _, d2 := in.priceDerivatives(y)
	return RiskMetrics{
		MacaulayDuration: macaulay,
		ModifiedDuration: macaulay / base,
		Convexity:        d2 / price,
		PVBP:             (in.DirtyPrice(y-OneBasisPoint) - in.DirtyPrice(y+OneBasisPoint)) / 2,
	}
}
