package resolve

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Field names a bond.Specification field in a resolution trace.
type Field string

const (
	FieldIssuer             Field = "issuer"
	FieldTicker             Field = "ticker"
	FieldCouponRate         Field = "coupon_rate"
	FieldMaturity           Field = "maturity"
	FieldIssueDate          Field = "issue_date"
	FieldFirstCouponDate    Field = "first_coupon_date"
	FieldDayCount           Field = "day_count"
	FieldBusinessConvention Field = "business_convention"
	FieldFrequency          Field = "frequency"
	FieldFaceValue          Field = "face_value"
	FieldCurrency           Field = "currency"
	FieldCalendar           Field = "calendar"
	FieldEndOfMonth         Field = "end_of_month"
)

// Tier is a precedence level, highest first.
type Tier int

const (
	TierUnset Tier = iota
	TierOverride
	TierIdentifier
	TierDescription
	TierTickerPreference
	TierAssetClassDefault
)

var tierNames = map[Tier]string{
	TierUnset:             "unset",
	TierOverride:          "override",
	TierIdentifier:        "identifier",
	TierDescription:       "description",
	TierTickerPreference:  "ticker_preference",
	TierAssetClassDefault: "asset_class_default",
}

func (t Tier) String() string {
	if s, ok := tierNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(b []byte) error {
	for k, v := range tierNames {
		if v == string(b) {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("resolve: unknown tier %q", b)
}

// Miss records a lookup that found nothing. Misses are informational.
type Miss struct {
	Source string `json:"source"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// Trace records which tier supplied each field.
type Trace struct {
	Fields     map[Field]Tier `json:"fields"`
	Misses     []Miss         `json:"lookup_misses,omitempty"`
	AssetClass AssetClass     `json:"asset_class,omitempty"`
}

// Tier returns the tier that supplied f, or TierUnset.
func (t Trace) Tier(f Field) Tier {
	return t.Fields[f]
}

func (t *Trace) miss(source, key, reason string) {
	t.Misses = append(t.Misses, Miss{Source: source, Key: key, Reason: reason})
}

// ErrParseFailure is wrapped by *Error.
var ErrParseFailure = errors.New("bond specification could not be resolved")

// ErrNoInput is returned when neither an identifier nor a description is given.
var ErrNoInput = errors.New("identifier or description required")

// Error reports required fields no tier could supply.
type Error struct {
	Identifier  string
	Description string
	Missing     []Field
	Trace       Trace
}

func (e *Error) Error() string {
	missing := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		missing[i] = string(f)
	}
	sort.Strings(missing)
	src := e.Identifier
	if e.Description != "" {
		if src != "" {
			src += " / "
		}
		src += fmt.Sprintf("%q", e.Description)
	}
	msg := fmt.Sprintf("resolve %s: missing %s", src, strings.Join(missing, ", "))
	for _, m := range e.Trace.Misses {
		msg += fmt.Sprintf("; %s %s: %s", m.Source, m.Key, m.Reason)
	}
	return msg
}

func (e *Error) Unwrap() error { return ErrParseFailure }
