package refdata

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/meenmo/bondlib/curve"
	"github.com/meenmo/bondlib/utils"
)

// CurveNode is a tenor string and a yield in percent.
type CurveNode struct {
	Tenor string  `json:"tenor"`
	Yield float64 `json:"yield"`
}

// CurveInput is the JSON form of one benchmark curve.
type CurveInput struct {
	Currency      string      `json:"currency"`
	AsOf          string      `json:"as_of"`
	Interpolation string      `json:"interpolation,omitempty"`
	Compounding   *int        `json:"compounding,omitempty"`
	Nodes         []CurveNode `json:"nodes"`
}

// CurveSet maps currency to a benchmark curve.
type CurveSet struct {
	curves map[string]*curve.Curve
}

// NewCurveSet indexes curves by currency. A later curve for the same currency
// replaces an earlier one.
func NewCurveSet(curves ...*curve.Curve) *CurveSet {
	s := &CurveSet{curves: make(map[string]*curve.Curve, len(curves))}
	for _, c := range curves {
		s.curves[strings.ToUpper(c.Currency())] = c
	}
	return s
}

// BenchmarkCurve returns the curve for currency.
func (s *CurveSet) BenchmarkCurve(currency string) (*curve.Curve, bool) {
	if s == nil {
		return nil, false
	}
	c, ok := s.curves[strings.ToUpper(currency)]
	return c, ok
}

// Len returns the number of curves.
func (s *CurveSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.curves)
}

// ReadCurvesJSON accepts either a single curve object or an array of them.
func ReadCurvesJSON(r io.Reader) (*CurveSet, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ReadCurvesJSON: %w", err)
	}
	var inputs []CurveInput
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		err = json.Unmarshal(raw, &inputs)
	} else {
		var one CurveInput
		err = json.Unmarshal(raw, &one)
		inputs = []CurveInput{one}
	}
	if err != nil {
		return nil, fmt.Errorf("ReadCurvesJSON: %w", err)
	}

	curves := make([]*curve.Curve, 0, len(inputs))
	for _, in := range inputs {
		c, err := in.Build()
		if err != nil {
			return nil, fmt.Errorf("ReadCurvesJSON: %w", err)
		}
		curves = append(curves, c)
	}
	return NewCurveSet(curves...), nil
}

// LoadCurvesJSON reads a curve file.
func LoadCurvesJSON(path string) (*CurveSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadCurvesJSON: %w", err)
	}
	defer f.Close()
	return ReadCurvesJSON(f)
}

// Build converts the JSON form into a curve.
func (in CurveInput) Build() (*curve.Curve, error) {
	ccy := strings.ToUpper(strings.TrimSpace(in.Currency))
	if ccy == "" {
		return nil, fmt.Errorf("curve without currency")
	}
	asOf, err := utils.ParseDate(in.AsOf)
	if err != nil {
		return nil, fmt.Errorf("%s curve as_of: %w", ccy, err)
	}
	nodes := make([]curve.Node, 0, len(in.Nodes))
	for _, n := range in.Nodes {
		tenor, err := curve.ParseTenor(n.Tenor)
		if err != nil {
			return nil, fmt.Errorf("%s curve: %w", ccy, err)
		}
		nodes = append(nodes, curve.Node{Tenor: tenor, Yield: n.Yield / 100})
	}
	var opts []curve.Option
	if in.Interpolation != "" {
		opts = append(opts, curve.WithInterpolation(curve.Interpolation(strings.ToUpper(in.Interpolation))))
	}
	if in.Compounding != nil {
		opts = append(opts, curve.WithCompounding(*in.Compounding))
	}
	return curve.New(asOf, ccy, nodes, opts...)
}
