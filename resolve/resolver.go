// Package resolve turns an identifier, a free-text description and caller
// overrides into a complete bond.Specification.
//
// Every field is taken from the highest tier that supplies it:
//
//	override > identifier lookup > description > ticker preference > asset-class default
package resolve

import (
	"fmt"
	"strings"
	"time"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/calendar"
	"github.com/meenmo/bondlib/daycount"
	"github.com/meenmo/bondlib/refdata"
	"github.com/meenmo/bondlib/utils"
)

// DefaultFaceValue and DefaultCurrency are the asset-class defaults.
const (
	DefaultFaceValue = 100.0
	DefaultCurrency  = "USD"
)

// ReferenceLookup finds reference data by exact identifier.
type ReferenceLookup interface {
	LookupIdentifier(id string) (refdata.Record, bool)
}

// ConventionLookup returns the majority convention for a ticker.
type ConventionLookup interface {
	PreferredConvention(ticker string) (refdata.Convention, bool)
}

// Overrides are caller-supplied field values. Nil means not overridden.
// Ticker and Currency are upper-cased like every other source of those codes.
type Overrides struct {
	Issuer             *string                         `json:"issuer,omitempty"`
	Ticker             *string                         `json:"ticker,omitempty"`
	CouponRate         *float64                        `json:"coupon_rate,omitempty"`
	Maturity           *time.Time                      `json:"maturity,omitempty"`
	IssueDate          *time.Time                      `json:"issue_date,omitempty"`
	FirstCouponDate    *time.Time                      `json:"first_coupon_date,omitempty"`
	DayCount           *daycount.Convention            `json:"day_count,omitempty"`
	BusinessConvention *calendar.BusinessDayConvention `json:"business_convention,omitempty"`
	Frequency          *bond.Frequency                 `json:"frequency,omitempty"`
	FaceValue          *float64                        `json:"face_value,omitempty"`
	Currency           *string                         `json:"currency,omitempty"`
	Calendar           *calendar.CalendarID            `json:"calendar,omitempty"`
	EndOfMonth         *bool                           `json:"end_of_month,omitempty"`
}

// Resolver applies the precedence chain against read-only stores. Either
// store may be nil.
type Resolver struct {
	refs        ReferenceLookup
	conventions ConventionLookup
}

// New returns a Resolver over the given stores.
func New(refs ReferenceLookup, conventions ConventionLookup) *Resolver {
	return &Resolver{refs: refs, conventions: conventions}
}

type builder struct {
	spec  bond.Specification
	trace Trace
}

func (b *builder) claim(f Field, t Tier) bool {
	if _, done := b.trace.Fields[f]; done {
		return false
	}
	b.trace.Fields[f] = t
	return true
}

func (b *builder) has(f Field) bool {
	_, ok := b.trace.Fields[f]
	return ok
}

// Resolve builds the specification. It fails with *Error only when the coupon
// or maturity is still unknown after every tier. The result is not validated;
// callers run Specification.Validate once they know the bond is still live.
func (r *Resolver) Resolve(identifier, description string, ov Overrides) (bond.Specification, Trace, error) {
	identifier = refdata.NormalizeIdentifier(identifier)
	description = strings.TrimSpace(description)
	if identifier == "" && description == "" {
		return bond.Specification{}, Trace{}, fmt.Errorf("Resolve: %w", ErrNoInput)
	}

	b := &builder{trace: Trace{Fields: make(map[Field]Tier)}}
	b.applyOverrides(ov)
	if identifier != "" {
		r.applyIdentifier(b, identifier)
	}
	if description != "" {
		b.applyDescription(description)
	}
	r.applyTickerPreference(b)

	var missing []Field
	for _, f := range []Field{FieldCouponRate, FieldMaturity} {
		if !b.has(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return bond.Specification{}, b.trace, &Error{
			Identifier:  identifier,
			Description: description,
			Missing:     missing,
			Trace:       b.trace,
		}
	}
	b.applyDefaults()
	return b.spec, b.trace, nil
}

func (b *builder) applyOverrides(ov Overrides) {
	const t = TierOverride
	if ov.Issuer != nil && b.claim(FieldIssuer, t) {
		b.spec.Issuer = *ov.Issuer
	}
	if ov.Ticker != nil && b.claim(FieldTicker, t) {
		b.spec.Ticker = refdata.NormalizeTicker(*ov.Ticker)
	}
	if ov.CouponRate != nil && b.claim(FieldCouponRate, t) {
		b.spec.CouponRate = *ov.CouponRate
	}
	if ov.Maturity != nil && b.claim(FieldMaturity, t) {
		b.spec.Maturity = utils.Truncate(*ov.Maturity)
	}
	if ov.IssueDate != nil && b.claim(FieldIssueDate, t) {
		b.spec.IssueDate = utils.Truncate(*ov.IssueDate)
	}
	if ov.FirstCouponDate != nil && b.claim(FieldFirstCouponDate, t) {
		b.spec.FirstCouponDate = utils.Truncate(*ov.FirstCouponDate)
	}
	if ov.DayCount != nil && b.claim(FieldDayCount, t) {
		b.spec.DayCount = *ov.DayCount
	}
	if ov.BusinessConvention != nil && b.claim(FieldBusinessConvention, t) {
		b.spec.BusinessConvention = *ov.BusinessConvention
	}
	if ov.Frequency != nil && b.claim(FieldFrequency, t) {
		b.spec.Frequency = *ov.Frequency
	}
	if ov.FaceValue != nil && b.claim(FieldFaceValue, t) {
		b.spec.FaceValue = *ov.FaceValue
	}
	if ov.Currency != nil && b.claim(FieldCurrency, t) {
		b.spec.Currency = strings.ToUpper(*ov.Currency)
	}
	if ov.Calendar != nil && b.claim(FieldCalendar, t) {
		b.spec.Calendar = *ov.Calendar
	}
	if ov.EndOfMonth != nil && b.claim(FieldEndOfMonth, t) {
		b.spec.EndOfMonth = *ov.EndOfMonth
	}
}

func (r *Resolver) applyIdentifier(b *builder, id string) {
	if refdata.LooksLikeISIN(id) {
		if err := refdata.ValidateISIN(id); err != nil {
			b.trace.miss("identifier", id, "ISIN check digit mismatch")
			return
		}
	}
	if r.refs == nil {
		b.trace.miss("identifier", id, "no reference data loaded")
		return
	}
	rec, ok := r.refs.LookupIdentifier(id)
	if !ok {
		b.trace.miss("identifier", id, "not found")
		return
	}

	const t = TierIdentifier
	if rec.Issuer != "" && b.claim(FieldIssuer, t) {
		b.spec.Issuer = rec.Issuer
	}
	if rec.Ticker != "" && b.claim(FieldTicker, t) {
		b.spec.Ticker = rec.Ticker
	}
	if rec.CouponRate != nil && b.claim(FieldCouponRate, t) {
		b.spec.CouponRate = *rec.CouponRate
	}
	if !rec.Maturity.IsZero() && b.claim(FieldMaturity, t) {
		b.spec.Maturity = rec.Maturity
	}
	if !rec.IssueDate.IsZero() && b.claim(FieldIssueDate, t) {
		b.spec.IssueDate = rec.IssueDate
	}
	if !rec.FirstCouponDate.IsZero() && b.claim(FieldFirstCouponDate, t) {
		b.spec.FirstCouponDate = rec.FirstCouponDate
	}
	if rec.DayCount != "" && b.claim(FieldDayCount, t) {
		b.spec.DayCount = rec.DayCount
	}
	if rec.BusinessConvention != "" && b.claim(FieldBusinessConvention, t) {
		b.spec.BusinessConvention = rec.BusinessConvention
	}
	if rec.Frequency != 0 && b.claim(FieldFrequency, t) {
		b.spec.Frequency = rec.Frequency
	}
	if rec.FaceValue > 0 && b.claim(FieldFaceValue, t) {
		b.spec.FaceValue = rec.FaceValue
	}
	if rec.Currency != "" && b.claim(FieldCurrency, t) {
		b.spec.Currency = rec.Currency
	}
	if rec.Calendar != "" && b.claim(FieldCalendar, t) {
		b.spec.Calendar = rec.Calendar
	}
	if rec.EndOfMonth != nil && b.claim(FieldEndOfMonth, t) {
		b.spec.EndOfMonth = *rec.EndOfMonth
	}
}

func (b *builder) applyDescription(description string) {
	d, err := ParseDescription(description)
	if err != nil {
		b.trace.miss("description", description, err.Error())
		return
	}
	const t = TierDescription
	if d.Ticker != "" && b.claim(FieldTicker, t) {
		b.spec.Ticker = d.Ticker
	}
	if d.Issuer != "" && b.claim(FieldIssuer, t) {
		b.spec.Issuer = d.Issuer
	}
	if b.claim(FieldCouponRate, t) {
		b.spec.CouponRate = d.CouponRate
	}
	if b.claim(FieldMaturity, t) {
		b.spec.Maturity = d.Maturity
	}
}

func (r *Resolver) applyTickerPreference(b *builder) {
	if b.has(FieldDayCount) && b.has(FieldBusinessConvention) && b.has(FieldFrequency) {
		return
	}
	key := b.spec.Ticker
	if key == "" {
		key = b.spec.Issuer
	}
	if key == "" || r.conventions == nil {
		return
	}
	c, ok := r.conventions.PreferredConvention(key)
	if !ok {
		b.trace.miss("ticker_preference", refdata.NormalizeTicker(key), "no convention observed")
		return
	}
	const t = TierTickerPreference
	if c.DayCount != "" && b.claim(FieldDayCount, t) {
		b.spec.DayCount = c.DayCount
	}
	if c.BusinessConvention != "" && b.claim(FieldBusinessConvention, t) {
		b.spec.BusinessConvention = c.BusinessConvention
	}
	if c.Frequency != 0 && b.claim(FieldFrequency, t) {
		b.spec.Frequency = c.Frequency
	}
}

func (b *builder) applyDefaults() {
	const t = TierAssetClassDefault
	class := Classify(b.spec.Ticker, b.spec.Issuer)
	b.trace.AssetClass = class

	if b.claim(FieldDayCount, t) {
		b.spec.DayCount = class.DefaultDayCount()
	}
	if b.claim(FieldFrequency, t) {
		b.spec.Frequency = bond.Semiannual
	}
	if b.claim(FieldBusinessConvention, t) {
		b.spec.BusinessConvention = calendar.Following
	}
	if b.claim(FieldFaceValue, t) {
		b.spec.FaceValue = DefaultFaceValue
	}
	if b.claim(FieldCurrency, t) {
		b.spec.Currency = DefaultCurrency
	}
	if b.claim(FieldCalendar, t) {
		b.spec.Calendar = calendar.ForCurrency(b.spec.Currency)
	}
	if b.claim(FieldEndOfMonth, t) {
		b.spec.EndOfMonth = utils.IsEndOfMonth(b.spec.Maturity)
	}
}
