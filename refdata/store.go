package refdata

import (
	"fmt"
	"sort"
)

// ReferenceStore is an immutable identifier → Record table.
type ReferenceStore struct {
	records map[string]Record
}

// NewReferenceStore indexes records by normalised identifier. Duplicate
// identifiers are rejected.
func NewReferenceStore(records []Record) (*ReferenceStore, error) {
	s := &ReferenceStore{records: make(map[string]Record, len(records))}
	for _, r := range records {
		id := NormalizeIdentifier(r.Identifier)
		if id == "" {
			return nil, fmt.Errorf("NewReferenceStore: record without identifier")
		}
		if _, dup := s.records[id]; dup {
			return nil, fmt.Errorf("NewReferenceStore: duplicate identifier %s", id)
		}
		r.Identifier = id
		s.records[id] = r
	}
	return s, nil
}

// LookupIdentifier returns the record for id. A nine-character CUSIP also
// matches the record stored under its US ISIN.
func (s *ReferenceStore) LookupIdentifier(id string) (Record, bool) {
	if s == nil {
		return Record{}, false
	}
	id = NormalizeIdentifier(id)
	if r, ok := s.records[id]; ok {
		return r, true
	}
	if len(id) == 9 {
		if isin, err := ISINFromCUSIP(id, "US"); err == nil {
			r, ok := s.records[isin]
			return r, ok
		}
	}
	return Record{}, false
}

// Len returns the number of records.
func (s *ReferenceStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Observation is a convention seen Count times for a ticker.
type Observation struct {
	Ticker     string
	Convention Convention
	Count      int
}

// ConventionStore is an immutable ticker → majority Convention table.
type ConventionStore struct {
	preferred map[string]Convention
	counts    map[string]int
}

// NewConventionStore aggregates observations per ticker and keeps the most
// frequent combination. Ties go to the lowest (day count, business convention,
// frequency) key so the choice never depends on input order.
func NewConventionStore(obs []Observation) *ConventionStore {
	tally := make(map[string]map[string]int)
	combos := make(map[string]Convention)
	for _, o := range obs {
		t := NormalizeTicker(o.Ticker)
		if t == "" || o.Count <= 0 {
			continue
		}
		if tally[t] == nil {
			tally[t] = make(map[string]int)
		}
		k := o.Convention.key()
		tally[t][k] += o.Count
		combos[k] = o.Convention
	}

	s := &ConventionStore{
		preferred: make(map[string]Convention, len(tally)),
		counts:    make(map[string]int, len(tally)),
	}
	for ticker, byKey := range tally {
		keys := make([]string, 0, len(byKey))
		for k := range byKey {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		best := keys[0]
		for _, k := range keys[1:] {
			if byKey[k] > byKey[best] {
				best = k
			}
		}
		s.preferred[ticker] = combos[best]
		s.counts[ticker] = byKey[best]
	}
	return s
}

// PreferredConvention returns the majority convention observed for ticker.
func (s *ConventionStore) PreferredConvention(ticker string) (Convention, bool) {
	if s == nil {
		return Convention{}, false
	}
	c, ok := s.preferred[NormalizeTicker(ticker)]
	return c, ok
}

// Support returns how many observations back the preferred convention.
func (s *ConventionStore) Support(ticker string) int {
	if s == nil {
		return 0
	}
	return s.counts[NormalizeTicker(ticker)]
}

// Len returns the number of tickers with a preference.
func (s *ConventionStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.preferred)
}
