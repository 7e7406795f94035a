package analytics_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meenmo/bondlib/analytics"
	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/curve"
	"github.com/meenmo/bondlib/resolve"
	"github.com/meenmo/bondlib/solver"
	"github.com/meenmo/bondlib/utils"
)

var settle = utils.Date(2025, 6, 30)

type countingCurves struct {
	calls atomic.Int32
	curve *curve.Curve
}

func (c *countingCurves) BenchmarkCurve(string) (*curve.Curve, bool) {
	c.calls.Add(1)
	return c.curve, c.curve != nil
}

type panickingCurves struct{}

func (panickingCurves) BenchmarkCurve(string) (*curve.Curve, bool) {
	panic("curve store corrupted")
}

func usdCurve(t *testing.T) *curve.Curve {
	t.Helper()
	c, err := curve.New(settle, "USD", []curve.Node{
		{Tenor: 2, Yield: 0.039},
		{Tenor: 10, Yield: 0.043},
		{Tenor: 30, Yield: 0.047},
	})
	require.NoError(t, err)
	return c
}

func treasury(metrics ...analytics.Metric) analytics.Request {
	return analytics.Request{
		Description: "T 3 08/15/52",
		CleanPrice:  71.66,
		Settlement:  settle,
		Metrics:     metrics,
	}
}

func TestAnalyze_Treasury(t *testing.T) {
	t.Parallel()

	curves := &countingCurves{curve: usdCurve(t)}
	e := analytics.NewEngine(analytics.Environment{Curves: curves})
	res := e.Analyze(context.Background(), treasury())

	require.Nil(t, res.Failure)
	require.Equal(t, analytics.StatusOK, res.Status)
	require.Equal(t, resolve.TierDescription, res.Trace.Tier(resolve.FieldCouponRate))
	require.Equal(t, resolve.Government, res.Trace.AssetClass)

	require.InDelta(t, 4.899157594, *res.Yield, 5e-4)
	require.InDelta(t, 1.5*135.0/181.0, *res.AccruedInterest, 1e-10)
	require.InDelta(t, 71.66+*res.AccruedInterest, *res.DirtyPrice, 1e-12)
	require.InDelta(t, 16.3490, *res.ModifiedDuration, 1e-3)
	require.InDelta(t, 16.7495, *res.MacaulayDuration, 1e-3)
	require.InDelta(t, 370.14, *res.Convexity, 0.5)
	require.InDelta(t, 0.118986, *res.PVBP, 1e-4)
	require.True(t, res.Solver.Converged)

	require.NotNil(t, res.GSpread)
	require.NotNil(t, res.ZSpread)
	require.NotNil(t, res.ASWSpread)
	require.InDelta(t, 4.6429, *res.BenchmarkYield, 1e-3)
	require.InDelta(t, (*res.Yield-*res.BenchmarkYield)*100, *res.GSpread, 1e-9)
	require.Positive(t, curves.calls.Load())
}

func TestAnalyze_MetricFilterSkipsCurve(t *testing.T) {
	t.Parallel()

	curves := &countingCurves{}
	e := analytics.NewEngine(analytics.Environment{Curves: curves})
	res := e.Analyze(context.Background(), treasury(analytics.MetricYield, analytics.MetricDuration))

	require.Equal(t, analytics.StatusOK, res.Status)
	require.NotNil(t, res.Yield)
	require.NotNil(t, res.ModifiedDuration)
	require.Nil(t, res.Convexity)
	require.Nil(t, res.AccruedInterest)
	require.Nil(t, res.GSpread)
	require.Zero(t, curves.calls.Load())
}

func TestAnalyze_AccruedOnlySkipsSolver(t *testing.T) {
	t.Parallel()

	res := analytics.NewEngine(analytics.Environment{}).
		Analyze(context.Background(), treasury(analytics.MetricAccrued, analytics.MetricPrice))
	require.Equal(t, analytics.StatusOK, res.Status)
	require.Nil(t, res.Solver)
	require.Nil(t, res.Yield)
	require.NotNil(t, res.CleanPrice)
	require.NotNil(t, res.AccruedInterest)
}

func TestAnalyze_Matured(t *testing.T) {
	t.Parallel()

	zero := 0.0
	bad := bond.Frequency(5)
	cases := map[string]struct {
		settlement time.Time
		overrides  resolve.Overrides
	}{
		"on maturity":    {settlement: utils.Date(2052, 8, 15)},
		"after maturity": {settlement: utils.Date(2060, 1, 1)},
		"invalid overrides": {
			settlement: utils.Date(2060, 1, 1),
			overrides:  resolve.Overrides{FaceValue: &zero, Frequency: &bad},
		},
	}
	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			req := treasury()
			req.Settlement = tc.settlement
			req.Overrides = tc.overrides
			req.CleanPrice = 0

			res := analytics.NewEngine(analytics.Environment{}).Analyze(context.Background(), req)
			require.Equal(t, analytics.StatusMatured, res.Status)
			require.Nil(t, res.Failure)
			require.NotNil(t, res.Specification)
			require.Nil(t, res.Yield)
			require.Nil(t, res.AccruedInterest)
			require.Nil(t, res.DirtyPrice)
			require.Nil(t, res.ZSpread)
		})
	}
}

func TestAnalyze_FailureKinds(t *testing.T) {
	t.Parallel()

	bad := bond.Frequency(5)
	zero := 0.0
	lateIssue := utils.Date(2053, 1, 1)
	cases := []struct {
		name string
		req  analytics.Request
		env  analytics.Environment
		kind analytics.Kind
	}{
		{"no input", analytics.Request{CleanPrice: 100, Settlement: settle}, analytics.Environment{}, analytics.InputError},
		{"no settlement", analytics.Request{Description: "T 3 08/15/52", CleanPrice: 100}, analytics.Environment{}, analytics.InputError},
		{"unparseable description", analytics.Request{Description: "not a bond", CleanPrice: 100, Settlement: settle}, analytics.Environment{}, analytics.ParseFailure},
		{"non-positive price", analytics.Request{Description: "T 3 08/15/52", CleanPrice: -1, Settlement: settle}, analytics.Environment{}, analytics.InputError},
		{"invalid override", analytics.Request{Description: "T 3 08/15/52", CleanPrice: 100, Settlement: settle, Overrides: resolve.Overrides{Frequency: &bad}}, analytics.Environment{}, analytics.InputError},
		{"zero face override", analytics.Request{Description: "T 3 08/15/52", CleanPrice: 100, Settlement: settle, Overrides: resolve.Overrides{FaceValue: &zero}}, analytics.Environment{}, analytics.InputError},
		{"issue after maturity", analytics.Request{Description: "T 3 08/15/52", CleanPrice: 100, Settlement: settle, Overrides: resolve.Overrides{IssueDate: &lateIssue}}, analytics.Environment{}, analytics.ScheduleError},
		{"missing curve", treasury(analytics.MetricZSpread), analytics.Environment{}, analytics.InputError},
		{"panic", treasury(analytics.MetricGSpread), analytics.Environment{Curves: panickingCurves{}}, analytics.Internal},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := analytics.NewEngine(tc.env).Analyze(context.Background(), tc.req)
			require.Equal(t, analytics.StatusFailed, res.Status)
			require.NotNil(t, res.Failure)
			require.Equal(t, tc.kind, res.Failure.Kind, res.Failure.Message)
			require.Nil(t, res.Yield)
			require.Nil(t, res.GSpread)
		})
	}
}

func TestAnalyzeBatch(t *testing.T) {
	t.Parallel()

	reqs := []analytics.Request{
		treasury(analytics.MetricYield),
		{Description: "not a bond", CleanPrice: 100, Settlement: settle},
		{Description: "Acme Corp 5.25% 2031-06-30", CleanPrice: 101, Settlement: settle, Metrics: []analytics.Metric{analytics.MetricYield}},
		{Description: "T 3 08/15/52", CleanPrice: 71.66, Settlement: utils.Date(2053, 1, 1)},
	}
	for _, workers := range []int{1, 3, 16} {
		res := analytics.NewEngine(analytics.Environment{}, analytics.WithWorkers(workers)).
			AnalyzeBatch(context.Background(), reqs)
		require.Len(t, res, len(reqs))
		for i, r := range res {
			require.Equal(t, i, r.Index)
			require.Equal(t, reqs[i].Description, r.Description)
		}
		require.Equal(t, analytics.StatusOK, res[0].Status)
		require.Equal(t, analytics.ParseFailure, res[1].Failure.Kind)
		require.Equal(t, analytics.StatusOK, res[2].Status)
		require.Equal(t, resolve.Corporate, res[2].Trace.AssetClass)
		require.Equal(t, analytics.StatusMatured, res[3].Status)
	}
}

func TestAnalyzeBatch_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := analytics.NewEngine(analytics.Environment{}).AnalyzeBatch(ctx, []analytics.Request{treasury(), treasury()})
	require.Len(t, res, 2)
	for i, r := range res {
		require.Equal(t, i, r.Index)
		require.Equal(t, analytics.StatusFailed, r.Status)
		require.Equal(t, analytics.Canceled, r.Failure.Kind)
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	t.Parallel()

	e := analytics.NewEngine(analytics.Environment{Curves: &countingCurves{curve: usdCurve(t)}})
	first := e.Analyze(context.Background(), treasury())
	second := e.Analyze(context.Background(), treasury())
	require.Equal(t, first, second)
}

func TestAnalyze_ConvergenceFailureKeepsEstimate(t *testing.T) {
	t.Parallel()

	opts := solver.DefaultOptions()
	opts.Guess = 0
	opts.MaxIterations = 2
	res := analytics.NewEngine(analytics.Environment{}, analytics.WithSolverOptions(opts)).
		Analyze(context.Background(), treasury(analytics.MetricYield))

	require.Equal(t, analytics.StatusFailed, res.Status)
	require.Equal(t, analytics.ConvergenceFailure, res.Failure.Kind)
	require.NotNil(t, res.Solver)
	require.False(t, res.Solver.Converged)
	require.Equal(t, 2, res.Solver.Iterations)
	require.InDelta(t, 4.9, res.Solver.Estimate, 1.5)
	require.Nil(t, res.Yield)
}
