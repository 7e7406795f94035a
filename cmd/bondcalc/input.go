package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/meenmo/bondlib/analytics"
	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/calendar"
	"github.com/meenmo/bondlib/daycount"
	"github.com/meenmo/bondlib/refdata"
	"github.com/meenmo/bondlib/resolve"
	"github.com/meenmo/bondlib/utils"
)

// requestInput is the JSON form of one request. Coupons are in percent and
// dates are YYYY-MM-DD.
type requestInput struct {
	TaskID         string         `json:"task_id,omitempty"`
	Identifier     string         `json:"identifier,omitempty"`
	Description    string         `json:"description,omitempty"`
	CleanPrice     float64        `json:"clean_price"`
	SettlementDate string         `json:"settlement_date,omitempty"`
	Metrics        []string       `json:"metrics,omitempty"`
	Overrides      overridesInput `json:"overrides,omitempty"`
}

type overridesInput struct {
	Issuer             *string  `json:"issuer,omitempty"`
	Ticker             *string  `json:"ticker,omitempty"`
	Coupon             *float64 `json:"coupon,omitempty"`
	Maturity           string   `json:"maturity,omitempty"`
	IssueDate          string   `json:"issue_date,omitempty"`
	FirstCouponDate    string   `json:"first_coupon_date,omitempty"`
	DayCount           string   `json:"day_count,omitempty"`
	BusinessConvention string   `json:"business_convention,omitempty"`
	Frequency          string   `json:"frequency,omitempty"`
	FaceValue          *float64 `json:"face_value,omitempty"`
	Currency           *string  `json:"currency,omitempty"`
	Calendar           string   `json:"calendar,omitempty"`
	EndOfMonth         *bool    `json:"end_of_month,omitempty"`
}

type resultOutput struct {
	TaskID string `json:"task_id,omitempty"`
	analytics.Result
}

// defaultSettlement is the last calendar day of the month before now.
func defaultSettlement(now time.Time) time.Time {
	return utils.PriorMonthEnd(now)
}

func (in requestInput) toRequest(now time.Time) (analytics.Request, error) {
	req := analytics.Request{
		Identifier:  strings.TrimSpace(in.Identifier),
		Description: strings.TrimSpace(in.Description),
		CleanPrice:  in.CleanPrice,
		Settlement:  defaultSettlement(now),
	}
	if in.SettlementDate != "" {
		s, err := utils.ParseDate(in.SettlementDate)
		if err != nil {
			return req, fmt.Errorf("settlement_date: %w", err)
		}
		req.Settlement = s
	}
	for _, m := range in.Metrics {
		metric, err := analytics.ParseMetric(m)
		if err != nil {
			return req, err
		}
		req.Metrics = append(req.Metrics, metric)
	}
	ov, err := in.Overrides.toOverrides()
	if err != nil {
		return req, fmt.Errorf("overrides: %w", err)
	}
	req.Overrides = ov
	return req, nil
}

func (in overridesInput) toOverrides() (resolve.Overrides, error) {
	ov := resolve.Overrides{
		Issuer:     in.Issuer,
		Ticker:     in.Ticker,
		FaceValue:  in.FaceValue,
		Currency:   in.Currency,
		EndOfMonth: in.EndOfMonth,
	}
	if in.Coupon != nil {
		rate := decimal.NewFromFloat(*in.Coupon).Div(decimal.NewFromInt(100)).InexactFloat64()
		ov.CouponRate = &rate
	}
	for _, d := range []struct {
		name string
		raw  string
		dst  **time.Time
	}{
		{"maturity", in.Maturity, &ov.Maturity},
		{"issue_date", in.IssueDate, &ov.IssueDate},
		{"first_coupon_date", in.FirstCouponDate, &ov.FirstCouponDate},
	} {
		if d.raw == "" {
			continue
		}
		t, err := utils.ParseDate(d.raw)
		if err != nil {
			return ov, fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = &t
	}
	if in.DayCount != "" {
		dc, err := daycount.Parse(in.DayCount)
		if err != nil {
			return ov, err
		}
		ov.DayCount = &dc
	}
	if in.BusinessConvention != "" {
		bdc, err := calendar.ParseConvention(in.BusinessConvention)
		if err != nil {
			return ov, err
		}
		ov.BusinessConvention = &bdc
	}
	if in.Frequency != "" {
		f, err := bond.ParseFrequency(in.Frequency)
		if err != nil {
			return ov, err
		}
		ov.Frequency = &f
	}
	if in.Calendar != "" {
		id := calendar.CalendarID(strings.ToUpper(in.Calendar))
		if !id.Valid() {
			return ov, fmt.Errorf("unknown calendar %q", in.Calendar)
		}
		ov.Calendar = &id
	}
	if ov.Ticker != nil {
		t := refdata.NormalizeTicker(*ov.Ticker)
		ov.Ticker = &t
	}
	return ov, nil
}

func readInput(path string) ([]byte, error) {
	if path != "" && path != "-" {
		return os.ReadFile(path)
	}
	return io.ReadAll(os.Stdin)
}

// parseInputs accepts a single request object or an array of them.
func parseInputs(raw []byte) ([]requestInput, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false, fmt.Errorf("empty input")
	}
	if trimmed[0] == '[' {
		var inputs []requestInput
		if err := json.Unmarshal(trimmed, &inputs); err != nil {
			return nil, true, err
		}
		if len(inputs) == 0 {
			return nil, true, fmt.Errorf("empty input array")
		}
		return inputs, true, nil
	}
	var input requestInput
	if err := json.Unmarshal(trimmed, &input); err != nil {
		return nil, false, err
	}
	return []requestInput{input}, false, nil
}

// round trims every metric to places decimals.
func round(r analytics.Result, places int32) analytics.Result {
	for _, p := range []**float64{
		&r.Yield, &r.ModifiedDuration, &r.MacaulayDuration, &r.Convexity, &r.PVBP,
		&r.AccruedInterest, &r.CleanPrice, &r.DirtyPrice, &r.GSpread, &r.ZSpread,
		&r.ASWSpread, &r.BenchmarkYield,
	} {
		if *p == nil {
			continue
		}
		v := decimal.NewFromFloat(**p).Round(places).InexactFloat64()
		*p = &v
	}
	return r
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	var (
		b   []byte
		err error
	)
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
