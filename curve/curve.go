// Package curve holds benchmark yield curves used as the spread reference.
package curve

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/interp"

	"github.com/meenmo/bondlib/utils"
)

var (
	// ErrEmptyCurve is returned when a curve has no nodes.
	ErrEmptyCurve = errors.New("curve has no nodes")
	// ErrInvalidNode is returned for non-positive or duplicate tenors and non-finite yields.
	ErrInvalidNode = errors.New("invalid curve node")
)

// Interpolation selects how yields between nodes are inferred.
type Interpolation string

const (
	// Linear interpolates yields.
	Linear Interpolation = "LINEAR"
	// LogLinear interpolates log discount factors, i.e. linearly in yield × tenor.
	LogLinear Interpolation = "LOG_LINEAR"
)

// Continuous marks continuously compounded curve yields.
const Continuous = 0

// Node is a (tenor in years, yield as decimal) point.
type Node struct {
	Tenor float64 `json:"tenor"`
	Yield float64 `json:"yield"`
}

// Curve is an immutable benchmark curve snapshot for one as-of date.
//
// Yields are zero yields compounded Compounding times a year (Continuous = 0).
// Outside the node range the curve is flat.
type Curve struct {
	asOf        time.Time
	currency    string
	nodes       []Node
	method      Interpolation
	compounding int

	fit interp.PiecewiseLinear
}

// Option configures New.
type Option func(*Curve)

// WithInterpolation sets the interpolation method (default Linear).
func WithInterpolation(m Interpolation) Option {
	return func(c *Curve) { c.method = m }
}

// WithCompounding sets the compounding frequency of the node yields (default 2).
func WithCompounding(periodsPerYear int) Option {
	return func(c *Curve) { c.compounding = periodsPerYear }
}

// New sorts and validates nodes and fits the interpolant.
func New(asOf time.Time, currency string, nodes []Node, opts ...Option) (*Curve, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("curve.New %s %s: %w", currency, asOf.Format(utils.DateLayout), ErrEmptyCurve)
	}
	c := &Curve{
		asOf:        asOf,
		currency:    currency,
		nodes:       append([]Node(nil), nodes...),
		method:      Linear,
		compounding: 2,
	}
	for _, o := range opts {
		o(c)
	}
	if c.method != Linear && c.method != LogLinear {
		return nil, fmt.Errorf("curve.New: unsupported interpolation %q", c.method)
	}
	if c.compounding < 0 {
		return nil, fmt.Errorf("curve.New: negative compounding %d", c.compounding)
	}

	sort.Slice(c.nodes, func(i, j int) bool { return c.nodes[i].Tenor < c.nodes[j].Tenor })
	for i, n := range c.nodes {
		if !(n.Tenor > 0) || math.IsInf(n.Tenor, 0) || math.IsNaN(n.Yield) || math.IsInf(n.Yield, 0) {
			return nil, fmt.Errorf("curve.New: node %+v: %w", n, ErrInvalidNode)
		}
		if i > 0 && n.Tenor == c.nodes[i-1].Tenor {
			return nil, fmt.Errorf("curve.New: duplicate tenor %g: %w", n.Tenor, ErrInvalidNode)
		}
	}

	if len(c.nodes) > 1 {
		xs := make([]float64, len(c.nodes))
		ys := make([]float64, len(c.nodes))
		for i, n := range c.nodes {
			xs[i] = n.Tenor
			ys[i] = n.Yield
			if c.method == LogLinear {
				ys[i] = c.logDiscount(n.Yield, n.Tenor)
			}
		}
		if err := c.fit.Fit(xs, ys); err != nil {
			return nil, fmt.Errorf("curve.New: fit: %w", err)
		}
	}
	return c, nil
}

func (c *Curve) AsOf() time.Time              { return c.asOf }
func (c *Curve) Currency() string             { return c.currency }
func (c *Curve) Interpolation() Interpolation { return c.method }
func (c *Curve) Compounding() int             { return c.compounding }

// Nodes returns a copy of the sorted nodes.
func (c *Curve) Nodes() []Node {
	return append([]Node(nil), c.nodes...)
}

// YieldAt returns the interpolated yield at tenor years, flat beyond the ends.
func (c *Curve) YieldAt(tenor float64) float64 {
	first, last := c.nodes[0], c.nodes[len(c.nodes)-1]
	switch {
	case len(c.nodes) == 1, tenor <= first.Tenor:
		return first.Yield
	case tenor >= last.Tenor:
		return last.Yield
	}
	v := c.fit.Predict(tenor)
	if c.method == LogLinear {
		return c.yieldFromLogDiscount(v, tenor)
	}
	return v
}

// Discount returns the discount factor at tenor with spread added to the
// curve yield, and its derivative with respect to the spread.
func (c *Curve) Discount(tenor, spread float64) (float64, float64) {
	if tenor <= 0 {
		return 1, 0
	}
	r := c.YieldAt(tenor) + spread
	if c.compounding == Continuous {
		df := math.Exp(-r * tenor)
		return df, -tenor * df
	}
	m := float64(c.compounding)
	base := 1 + r/m
	if base <= 0 {
		return math.Inf(1), math.Inf(-1)
	}
	df := math.Pow(base, -m*tenor)
	return df, -tenor * df / base
}

// logDiscount returns -ln DF for yield r at tenor t.
func (c *Curve) logDiscount(r, t float64) float64 {
	if c.compounding == Continuous {
		return r * t
	}
	m := float64(c.compounding)
	return m * t * math.Log1p(r/m)
}

func (c *Curve) yieldFromLogDiscount(g, t float64) float64 {
	if c.compounding == Continuous {
		return g / t
	}
	m := float64(c.compounding)
	return m * math.Expm1(g/(m*t))
}

// YearsBetween measures curve time on an ACT/365F axis.
func YearsBetween(from, to time.Time) float64 {
	return float64(utils.Days(from, to)) / 365.0
}
