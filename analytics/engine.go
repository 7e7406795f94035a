package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/curve"
	"github.com/meenmo/bondlib/resolve"
	"github.com/meenmo/bondlib/solver"
	"github.com/meenmo/bondlib/spread"
	"github.com/meenmo/bondlib/utils"
)

// CurveSource supplies the benchmark curve for a currency.
type CurveSource interface {
	BenchmarkCurve(currency string) (*curve.Curve, bool)
}

// Environment is the read-only data an Engine works against. Any field may
// be nil.
type Environment struct {
	References  resolve.ReferenceLookup
	Conventions resolve.ConventionLookup
	Curves      CurveSource
}

// Engine analyses requests against one Environment.
type Engine struct {
	env      Environment
	resolver *resolve.Resolver
	opts     solver.Options
	workers  int
	cache    *Cache
	log      zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger (default: disabled).
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithSolverOptions sets the yield and z-spread solver limits.
func WithSolverOptions(o solver.Options) Option {
	return func(e *Engine) { e.opts = o }
}

// WithWorkers bounds AnalyzeBatch concurrency.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithCache enables result memoisation.
func WithCache(c *Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// NewEngine returns an Engine over env.
func NewEngine(env Environment, opts ...Option) *Engine {
	solverOpts := solver.DefaultOptions()
	solverOpts.Guess = 0
	e := &Engine{
		env:      env,
		resolver: resolve.New(env.References, env.Conventions),
		opts:     solverOpts,
		workers:  8,
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Analyze runs one request. It never panics and never returns an error:
// failures are reported in Result.Failure.
func (e *Engine) Analyze(ctx context.Context, req Request) Result {
	return e.analyze(ctx, e.log, req)
}

// AnalyzeBatch runs reqs concurrently and returns results in input order with
// Index set. A failing request does not affect the others. Requests not
// started before ctx is done fail with kind Canceled.
func (e *Engine) AnalyzeBatch(ctx context.Context, reqs []Request) []Result {
	logger := e.log.With().Str("batch", uuid.New().String()).Logger()
	logger.Debug().Int("requests", len(reqs)).Int("workers", e.workers).Msg("batch started")
	start := time.Now()

	results := make([]Result, len(reqs))
	var g errgroup.Group
	g.SetLimit(e.workers)
	for i := range reqs {
		if err := ctx.Err(); err != nil {
			results[i] = canceled(i, reqs[i], err)
			continue
		}
		i := i
		g.Go(func() error {
			results[i] = e.analyze(ctx, logger, reqs[i])
			results[i].Index = i
			return nil
		})
	}
	_ = g.Wait()

	logger.Debug().Dur("elapsed", time.Since(start)).Msg("batch finished")
	return results
}

func canceled(i int, req Request, err error) Result {
	return Result{
		Index:       i,
		Status:      StatusFailed,
		Identifier:  req.Identifier,
		Description: req.Description,
		Settlement:  req.Settlement,
		Failure:     &Failure{Kind: Canceled, Message: err.Error()},
	}
}

func (e *Engine) analyze(ctx context.Context, logger zerolog.Logger, req Request) (res Result) {
	res = Result{
		Identifier:  req.Identifier,
		Description: req.Description,
		Settlement:  utils.Truncate(req.Settlement),
	}
	if err := ctx.Err(); err != nil {
		return canceled(0, req, err)
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Str("stack", string(debug.Stack())).
				Str("identifier", req.Identifier).Msg("analytics panic recovered")
			res = fail(&res, &Failure{Kind: Internal, Message: fmt.Sprint(r)})
		}
	}()

	var key string
	if e.cache != nil {
		var err error
		if key, err = Key(req); err == nil {
			if cached, ok := e.cache.get(key); ok {
				logger.Debug().Str("identifier", req.Identifier).Msg("cache hit")
				return cached
			}
		}
	}

	res = e.run(logger, req, res)
	if res.Status == StatusFailed {
		logger.Warn().Str("identifier", req.Identifier).Str("description", req.Description).
			Str("kind", string(res.Failure.Kind)).Msg(res.Failure.Message)
	}
	if key != "" && res.Failure == nil {
		e.cache.add(key, res)
	}
	return res
}

func (e *Engine) run(logger zerolog.Logger, req Request, res Result) Result {
	if req.Identifier == "" && req.Description == "" {
		return fail(&res, &Failure{Kind: InputError, Message: resolve.ErrNoInput.Error()})
	}
	if res.Settlement.IsZero() {
		return fail(&res, &Failure{Kind: InputError, Message: "settlement date is required"})
	}

	spec, trace, err := e.resolver.Resolve(req.Identifier, req.Description, req.Overrides)
	if trace.Fields != nil {
		res.Trace = &trace
	}
	if err != nil {
		return fail(&res, err)
	}
	res.Specification = &spec
	logger.Debug().Str("identifier", req.Identifier).Interface("tiers", trace.Fields).
		Int("lookup_misses", len(trace.Misses)).Msg("specification resolved")

	if !res.Settlement.Before(spec.Maturity) {
		res.Status = StatusMatured
		return res
	}
	if err := spec.Validate(); err != nil {
		return fail(&res, err)
	}

	if !(req.CleanPrice > 0) || math.IsInf(req.CleanPrice, 0) {
		return fail(&res, &Failure{Kind: InputError, Message: fmt.Sprintf("clean price %v must be a positive number", req.CleanPrice)})
	}

	in, err := bond.NewInstrument(spec, res.Settlement)
	if err != nil {
		return fail(&res, err)
	}
	need := newMetricSet(req.Metrics)
	accrued := in.AccruedInterest()
	dirty := req.CleanPrice + accrued

	if need[MetricAccrued] {
		res.AccruedInterest = ptr(accrued)
	}
	if need[MetricPrice] {
		res.CleanPrice = ptr(req.CleanPrice)
		res.DirtyPrice = ptr(dirty)
	}

	var sol bond.YieldSolution
	if need.needsYield() {
		sol, err = in.SolveYield(req.CleanPrice, e.opts)
		res.Solver = &SolverDiagnostics{
			Estimate:   sol.Yield * 100,
			Iterations: sol.Iterations,
			Residual:   sol.Residual,
			Converged:  sol.Converged,
		}
		if err != nil {
			return fail(&res, err)
		}
		logger.Debug().Str("identifier", req.Identifier).Int("iterations", sol.Iterations).
			Float64("yield", sol.Yield).Msg("yield solved")
		if need[MetricYield] {
			res.Yield = ptr(sol.Yield * 100)
		}
		if need.any(MetricDuration, MetricConvexity, MetricPVBP) {
			rm := in.RiskMetrics(sol)
			if need[MetricDuration] {
				res.ModifiedDuration = ptr(rm.ModifiedDuration)
				res.MacaulayDuration = ptr(rm.MacaulayDuration)
			}
			if need[MetricConvexity] {
				res.Convexity = ptr(rm.Convexity)
			}
			if need[MetricPVBP] {
				res.PVBP = ptr(rm.PVBP)
			}
		}
	}

	if need.needsCurve() {
		if err := e.spreads(in, need, sol, dirty, &res); err != nil {
			return fail(&res, err)
		}
	}

	res.Status = StatusOK
	return res
}

func (e *Engine) spreads(in *bond.Instrument, need metricSet, sol bond.YieldSolution, dirty float64, res *Result) error {
	var c *curve.Curve
	ok := false
	if e.env.Curves != nil {
		c, ok = e.env.Curves.BenchmarkCurve(in.Spec.Currency)
	}
	if !ok || c == nil {
		return &Failure{Kind: InputError, Message: fmt.Sprintf("no benchmark curve for %s", in.Spec.Currency)}
	}

	if need[MetricGSpread] {
		g, err := spread.GSpread(in, sol.Yield, c)
		if err != nil {
			return err
		}
		res.GSpread = ptr(g.SpreadBP)
		res.BenchmarkYield = ptr(g.BenchmarkYield * 100)
	}
	if need[MetricZSpread] {
		z, err := spread.ZSpread(in, dirty, c, e.opts)
		if err != nil {
			return err
		}
		res.ZSpread = ptr(z.SpreadBP)
	}
	if need[MetricASWSpread] {
		a, err := spread.AssetSwapSpread(in, dirty, c)
		if errors.Is(err, spread.ErrZeroAnnuity) {
			return &Failure{Kind: InputError, Message: err.Error()}
		}
		if err != nil {
			return err
		}
		res.ASWSpread = ptr(a.SpreadBP)
	}
	return nil
}
