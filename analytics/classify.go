package analytics

import (
	"context"
	"errors"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/resolve"
	"github.com/meenmo/bondlib/schedule"
	"github.com/meenmo/bondlib/solver"
)

func classify(err error) Kind {
	var (
		failure     *Failure
		resolveErr  *resolve.Error
		scheduleErr *schedule.Error
		convErr     *bond.ConvergenceError
	)
	switch {
	case errors.As(err, &failure):
		return failure.Kind
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Canceled
	case errors.As(err, &resolveErr):
		return ParseFailure
	case errors.As(err, &scheduleErr), errors.Is(err, schedule.ErrDegenerate):
		return ScheduleError
	case errors.As(err, &convErr), errors.Is(err, solver.ErrDidNotConverge), errors.Is(err, solver.ErrNotBracketed):
		return ConvergenceFailure
	}
	return InputError
}

func fail(res *Result, err error) Result {
	var failure *Failure
	if !errors.As(err, &failure) {
		failure = &Failure{Kind: classify(err), Message: err.Error()}
	}
	return Result{
		Index:         res.Index,
		Status:        StatusFailed,
		Identifier:    res.Identifier,
		Description:   res.Description,
		Settlement:    res.Settlement,
		Specification: res.Specification,
		Trace:         res.Trace,
		Solver:        res.Solver,
		Failure:       failure,
	}
}
