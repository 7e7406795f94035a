package bond

import (
	"errors"
	"fmt"

	"github.com/meenmo/bondlib/solver"
)

// ErrNonPositivePrice is returned for clean prices that cannot be solved.
var ErrNonPositivePrice = errors.New("price must be positive")

// YieldSolution is the outcome of SolveYield.
//
// Yield is a decimal (0.049 == 4.9%). Residual is dirty price error at Yield.
type YieldSolution struct {
	Yield      float64 `json:"yield"`
	Converged  bool    `json:"converged"`
	Iterations int     `json:"iterations"`
	Residual   float64 `json:"residual"`
}

// ConvergenceError carries the best estimate when the solver runs out of budget.
type ConvergenceError struct {
	Solution YieldSolution
	Err      error
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("SolveYield: no convergence after %d iterations (best %.10f, residual %.3g): %v",
		e.Solution.Iterations, e.Solution.Yield, e.Solution.Residual, e.Err)
}

func (e *ConvergenceError) Unwrap() error { return e.Err }

// SolveYield finds y such that DirtyPrice(y) equals cleanPrice plus accrued
// interest. On failure the returned solution is the best estimate and the error
// is a *ConvergenceError.
func (in *Instrument) SolveYield(cleanPrice float64, opts solver.Options) (YieldSolution, error) {
	if !(cleanPrice > 0) {
		return YieldSolution{}, fmt.Errorf("SolveYield: clean price %v: %w", cleanPrice, ErrNonPositivePrice)
	}
	target := cleanPrice + in.accrued
	if opts.Guess == 0 {
		opts.Guess = in.Spec.CouponRate
	}

	res, err := solver.Solve(func(y float64) (float64, float64) {
		p, d1, _ := in.priceDerivatives(y)
		return p - target, d1
	}, opts)

	sol := YieldSolution{
		Yield:      res.Root,
		Converged:  res.Converged,
		Iterations: res.Iterations,
		Residual:   res.Residual,
	}
	if err != nil {
		return sol, &ConvergenceError{Solution: sol, Err: err}
	}
	return sol, nil
}
