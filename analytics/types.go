// Package analytics runs bond analytics requests end to end: resolution,
// maturity guard, pricing, risk and spreads.
package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/resolve"
)

// Kind classifies a request failure.
type Kind string

const (
	InputError Kind = "input_error"
	// LookupMiss only appears in resolution traces; it never fails a request.
	LookupMiss         Kind = "lookup_miss"
	ParseFailure       Kind = "parse_failure"
	ScheduleError      Kind = "schedule_error"
	ConvergenceFailure Kind = "convergence_failure"
	Canceled           Kind = "canceled"
	Internal           Kind = "internal"
)

// Failure describes why a request produced no metrics.
type Failure struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Status is the outcome of one request.
type Status string

const (
	StatusOK      Status = "ok"
	StatusMatured Status = "matured"
	StatusFailed  Status = "failed"
)

// Metric selects a group of output fields.
type Metric string

const (
	MetricYield     Metric = "yield"
	MetricDuration  Metric = "duration"
	MetricConvexity Metric = "convexity"
	MetricPVBP      Metric = "pvbp"
	MetricAccrued   Metric = "accrued"
	MetricPrice     Metric = "price"
	MetricGSpread   Metric = "g_spread"
	MetricZSpread   Metric = "z_spread"
	MetricASWSpread Metric = "asw_spread"
)

// AllMetrics lists every metric in output order.
var AllMetrics = []Metric{
	MetricYield, MetricDuration, MetricConvexity, MetricPVBP, MetricAccrued,
	MetricPrice, MetricGSpread, MetricZSpread, MetricASWSpread,
}

// ParseMetric accepts a metric name in any case.
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllMetrics {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("analytics: unknown metric %q", s)
}

type metricSet map[Metric]bool

// newMetricSet returns the requested metrics; empty means all.
func newMetricSet(ms []Metric) metricSet {
	set := make(metricSet, len(AllMetrics))
	if len(ms) == 0 {
		ms = AllMetrics
	}
	for _, m := range ms {
		set[m] = true
	}
	return set
}

func (s metricSet) any(ms ...Metric) bool {
	for _, m := range ms {
		if s[m] {
			return true
		}
	}
	return false
}

func (s metricSet) needsYield() bool {
	return s.any(MetricYield, MetricDuration, MetricConvexity, MetricPVBP, MetricGSpread)
}

func (s metricSet) needsCurve() bool {
	return s.any(MetricGSpread, MetricZSpread, MetricASWSpread)
}

// canonicalMetrics sorts and de-duplicates ms.
func canonicalMetrics(ms []Metric) []Metric {
	if len(ms) == 0 {
		return nil
	}
	seen := make(map[Metric]bool, len(ms))
	out := make([]Metric, 0, len(ms))
	for _, m := range ms {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Request is one bond to analyse. CleanPrice is per 100 face.
type Request struct {
	Identifier  string            `json:"identifier,omitempty"`
	Description string            `json:"description,omitempty"`
	CleanPrice  float64           `json:"clean_price"`
	Settlement  time.Time         `json:"settlement"`
	Overrides   resolve.Overrides `json:"overrides"`
	Metrics     []Metric          `json:"metrics,omitempty"`
}

// SolverDiagnostics reports the yield solve. Estimate is the last yield
// iterate in percent, the best answer available when Converged is false.
type SolverDiagnostics struct {
	Estimate   float64 `json:"estimate"`
	Iterations int     `json:"iterations"`
	Residual   float64 `json:"residual"`
	Converged  bool    `json:"converged"`
}

// Result is the outcome of one request. Yields are in percent, spreads in
// basis points and prices per 100 face. Metrics that were not requested, or
// that cannot exist (matured, failed), are nil.
type Result struct {
	Index         int                 `json:"index"`
	Status        Status              `json:"status"`
	Identifier    string              `json:"identifier,omitempty"`
	Description   string              `json:"description,omitempty"`
	Settlement    time.Time           `json:"settlement"`
	Specification *bond.Specification `json:"specification,omitempty"`
	Trace         *resolve.Trace      `json:"resolution_trace,omitempty"`

	Yield            *float64 `json:"yield"`
	ModifiedDuration *float64 `json:"modified_duration"`
	MacaulayDuration *float64 `json:"macaulay_duration"`
	Convexity        *float64 `json:"convexity"`
	PVBP             *float64 `json:"pvbp"`
	AccruedInterest  *float64 `json:"accrued_interest"`
	CleanPrice       *float64 `json:"clean_price"`
	DirtyPrice       *float64 `json:"dirty_price"`
	GSpread          *float64 `json:"g_spread"`
	ZSpread          *float64 `json:"z_spread"`
	ASWSpread        *float64 `json:"asw_spread"`
	BenchmarkYield   *float64 `json:"benchmark_yield,omitempty"`

	Solver  *SolverDiagnostics `json:"solver,omitempty"`
	Failure *Failure           `json:"failure,omitempty"`
}

func ptr(v float64) *float64 { return &v }
