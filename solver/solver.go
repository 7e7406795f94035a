// Package solver finds roots of smooth monotone functions such as the
// price-yield relation.
package solver

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrDidNotConverge is returned when the iteration or time budget runs out.
	ErrDidNotConverge = errors.New("did not converge")
	// ErrNotBracketed is returned when no sign change is found within the limits.
	ErrNotBracketed = errors.New("root not bracketed")
)

// Func returns f(x) and f'(x).
type Func func(x float64) (float64, float64)

// Options bounds the search.
type Options struct {
	// Tolerance is the |f(x)| level accepted as a root.
	Tolerance float64
	// MaxIterations caps function evaluations after bracketing.
	MaxIterations int
	// TimeBudget caps wall-clock time; zero disables the check.
	TimeBudget time.Duration
	// Guess is the Newton starting point.
	Guess float64
	// Lower/Upper is the initial bracket, widened up to Floor/Ceiling.
	Lower   float64
	Upper   float64
	Floor   float64
	Ceiling float64
	// DerivativeThreshold is the minimum |f'(x)| for a Newton step.
	DerivativeThreshold float64
}

// DefaultOptions matches the yield search: a [-5%, 50%] bracket that may widen.
func DefaultOptions() Options {
	return Options{
		Tolerance:           1e-10,
		MaxIterations:       100,
		TimeBudget:          250 * time.Millisecond,
		Guess:               0.05,
		Lower:               -0.05,
		Upper:               0.50,
		Floor:               -0.95,
		Ceiling:             10.0,
		DerivativeThreshold: 1e-15,
	}
}

// Result is the outcome of Solve. On failure Root holds the best estimate seen.
type Result struct {
	Root       float64
	Residual   float64
	Iterations int
	Converged  bool
}

// Solve runs Newton-Raphson inside a sign-changing bracket. Steps that leave
// the bracket or meet a flat derivative fall back to bisection, so the bracket
// always shrinks.
func Solve(f Func, opts Options) (Result, error) {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 100
	}
	var deadline time.Time
	if opts.TimeBudget > 0 {
		deadline = time.Now().Add(opts.TimeBudget)
	}

	lo, hi := opts.Lower, opts.Upper
	flo, _ := f(lo)
	fhi, _ := f(hi)
	best := Result{Root: lo, Residual: flo}
	if math.Abs(fhi) < math.Abs(flo) {
		best = Result{Root: hi, Residual: fhi}
	}

	// Widen toward Floor/Ceiling until the sign changes.
	for widen := 0; sameSign(flo, fhi) && widen < 60; widen++ {
		moved := false
		if lo > opts.Floor {
			lo = math.Max(opts.Floor, lo-(hi-lo))
			flo, _ = f(lo)
			moved = true
		}
		if hi < opts.Ceiling {
			hi = math.Min(opts.Ceiling, hi+(hi-lo))
			fhi, _ = f(hi)
			moved = true
		}
		if !moved {
			break
		}
	}
	if math.Abs(flo) < math.Abs(best.Residual) {
		best = Result{Root: lo, Residual: flo}
	}
	if math.Abs(fhi) < math.Abs(best.Residual) {
		best = Result{Root: hi, Residual: fhi}
	}
	if math.Abs(best.Residual) < opts.Tolerance {
		best.Converged = true
		return best, nil
	}
	if sameSign(flo, fhi) {
		return best, fmt.Errorf("solver: [%g, %g]: %w", lo, hi, ErrNotBracketed)
	}

	x := opts.Guess
	if x <= lo || x >= hi {
		x = 0.5 * (lo + hi)
	}
	for iter := 1; iter <= opts.MaxIterations; iter++ {
		fx, dfx := f(x)
		best.Iterations = iter
		if math.Abs(fx) < math.Abs(best.Residual) {
			best.Root, best.Residual = x, fx
		}
		if math.Abs(fx) < opts.Tolerance {
			best.Root, best.Residual, best.Converged = x, fx, true
			return best, nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return best, fmt.Errorf("solver: time budget %s exceeded after %d iterations: %w", opts.TimeBudget, iter, ErrDidNotConverge)
		}

		if sameSign(fx, flo) {
			lo, flo = x, fx
		} else {
			hi = x
		}

		next := x
		if math.Abs(dfx) > opts.DerivativeThreshold {
			next = x - fx/dfx
		}
		if next <= lo || next >= hi || next == x {
			next = 0.5 * (lo + hi)
		}
		if next == lo || next == hi {
			// lo and hi are adjacent floats; nothing left to refine.
			break
		}
		x = next
	}
	return best, fmt.Errorf("solver: %d iterations, residual %g: %w", best.Iterations, best.Residual, ErrDidNotConverge)
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}
