package analytics

import (
	"encoding/hex"
	"fmt"
	"maps"
	"slices"

	"github.com/goccy/go-json"
	lru "github.com/hashicorp/golang-lru"
	"github.com/zeebo/blake3"

	"github.com/meenmo/bondlib/utils"
)

// Cache memoises results for one Environment snapshot. It is only used when
// handed to an Engine with WithCache; entries are never shared across
// environments.
type Cache struct {
	entries *lru.Cache
}

// NewCache returns an LRU cache holding up to size results.
func NewCache(size int) (*Cache, error) {
	entries, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("NewCache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Key digests the full request tuple. Requests differing only in metric order
// or duplicate metrics share a key.
func Key(req Request) (string, error) {
	req.Settlement = utils.Truncate(req.Settlement)
	req.Metrics = canonicalMetrics(req.Metrics)
	raw, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("analytics.Key: %w", err)
	}
	sum := blake3.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func (c *Cache) get(key string) (Result, bool) {
	v, ok := c.entries.Get(key)
	if !ok {
		return Result{}, false
	}
	return v.(Result).clone(), true
}

func (c *Cache) add(key string, r Result) {
	c.entries.Add(key, r.clone())
}

// clone copies r so that no pointer, map or slice is shared with the copy.
func (r Result) clone() Result {
	out := r
	for _, f := range []**float64{
		&out.Yield, &out.ModifiedDuration, &out.MacaulayDuration, &out.Convexity,
		&out.PVBP, &out.AccruedInterest, &out.CleanPrice, &out.DirtyPrice,
		&out.GSpread, &out.ZSpread, &out.ASWSpread, &out.BenchmarkYield,
	} {
		if *f != nil {
			*f = ptr(**f)
		}
	}
	if r.Specification != nil {
		spec := *r.Specification
		out.Specification = &spec
	}
	if r.Trace != nil {
		trace := *r.Trace
		trace.Fields = maps.Clone(r.Trace.Fields)
		trace.Misses = slices.Clone(r.Trace.Misses)
		out.Trace = &trace
	}
	if r.Solver != nil {
		diag := *r.Solver
		out.Solver = &diag
	}
	if r.Failure != nil {
		failure := *r.Failure
		out.Failure = &failure
	}
	return out
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	return c.entries.Len()
}
