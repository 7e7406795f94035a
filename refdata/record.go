// Package refdata holds the read-only lookup tables the resolver consults and
// loads them from CSV, JSON and Postgres.
package refdata

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/calendar"
	"github.com/meenmo/bondlib/daycount"
	"github.com/meenmo/bondlib/utils"
)

// Record is an identifier-keyed reference row. Zero values mean the source did
// not supply the field.
type Record struct {
	Identifier         string
	Issuer             string
	Ticker             string
	CouponRate         *float64
	Maturity           time.Time
	IssueDate          time.Time
	FirstCouponDate    time.Time
	DayCount           daycount.Convention
	BusinessConvention calendar.BusinessDayConvention
	Frequency          bond.Frequency
	Currency           string
	FaceValue          float64
	Calendar           calendar.CalendarID
	EndOfMonth         *bool
}

// Convention is a day count / business day / frequency combination.
type Convention struct {
	DayCount           daycount.Convention
	BusinessConvention calendar.BusinessDayConvention
	Frequency          bond.Frequency
}

func (c Convention) key() string {
	return fmt.Sprintf("%s|%s|%02d", c.DayCount, c.BusinessConvention, int(c.Frequency))
}

// NormalizeIdentifier upper-cases and strips whitespace.
func NormalizeIdentifier(id string) string {
	return strings.Join(strings.Fields(strings.ToUpper(id)), "")
}

// NormalizeTicker upper-cases and collapses inner whitespace.
func NormalizeTicker(t string) string {
	return strings.Join(strings.Fields(strings.ToUpper(t)), " ")
}

// ParseCouponPercent converts a coupon quoted in percent ("3.125") to a decimal rate.
func ParseCouponPercent(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if err != nil {
		return 0, fmt.Errorf("coupon %q: %w", s, err)
	}
	return d.Div(decimal.NewFromInt(100)).InexactFloat64(), nil
}

// parseRecord normalises a row of named string fields. Blank fields stay unset.
func parseRecord(row map[string]string) (Record, error) {
	get := func(k string) string { return strings.TrimSpace(row[k]) }

	rec := Record{
		Identifier: NormalizeIdentifier(get("identifier")),
		Issuer:     get("issuer"),
		Ticker:     NormalizeTicker(get("ticker")),
		Currency:   strings.ToUpper(get("currency")),
	}
	if rec.Identifier == "" {
		return Record{}, fmt.Errorf("identifier is required")
	}
	fail := func(field string, err error) (Record, error) {
		return Record{}, fmt.Errorf("%s: %s: %w", rec.Identifier, field, err)
	}

	if v := get("coupon"); v != "" {
		c, err := ParseCouponPercent(v)
		if err != nil {
			return fail("coupon", err)
		}
		rec.CouponRate = &c
	}
	for _, d := range []struct {
		key string
		dst *time.Time
	}{{"maturity", &rec.Maturity}, {"issue_date", &rec.IssueDate}, {"first_coupon_date", &rec.FirstCouponDate}} {
		if v := get(d.key); v != "" {
			t, err := utils.ParseDate(v)
			if err != nil {
				return fail(d.key, err)
			}
			*d.dst = t
		}
	}
	if v := get("day_count"); v != "" {
		dc, err := daycount.Parse(v)
		if err != nil {
			return fail("day_count", err)
		}
		rec.DayCount = dc
	}
	if v := get("business_convention"); v != "" {
		bdc, err := calendar.ParseConvention(v)
		if err != nil {
			return fail("business_convention", err)
		}
		rec.BusinessConvention = bdc
	}
	if v := get("frequency"); v != "" {
		f, err := bond.ParseFrequency(v)
		if err != nil {
			return fail("frequency", err)
		}
		rec.Frequency = f
	}
	if v := get("face_value"); v != "" {
		fv, err := strconv.ParseFloat(v, 64)
		if err != nil || fv <= 0 {
			return fail("face_value", fmt.Errorf("must be a positive number, got %q", v))
		}
		rec.FaceValue = fv
	}
	if v := get("calendar"); v != "" {
		id := calendar.CalendarID(strings.ToUpper(v))
		if !id.Valid() {
			return fail("calendar", fmt.Errorf("unknown calendar %q", v))
		}
		rec.Calendar = id
	}
	if v := get("end_of_month"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fail("end_of_month", err)
		}
		rec.EndOfMonth = &b
	}
	return rec, nil
}

func parseConvention(dc, bdc, freq string) (Convention, error) {
	var c Convention
	var err error
	if c.DayCount, err = daycount.Parse(dc); err != nil {
		return Convention{}, err
	}
	if c.BusinessConvention, err = calendar.ParseConvention(bdc); err != nil {
		return Convention{}, err
	}
	if c.Frequency, err = bond.ParseFrequency(freq); err != nil {
		return Convention{}, err
	}
	return c, nil
}
