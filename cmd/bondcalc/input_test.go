package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meenmo/bondlib/analytics"
	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/daycount"
	"github.com/meenmo/bondlib/utils"
)

func TestParseInputs(t *testing.T) {
	t.Parallel()

	inputs, isArray, err := parseInputs([]byte(`{"description": "T 3 08/15/52", "clean_price": 71.66}`))
	require.NoError(t, err)
	require.False(t, isArray)
	require.Len(t, inputs, 1)
	require.Equal(t, "T 3 08/15/52", inputs[0].Description)

	inputs, isArray, err = parseInputs([]byte(`
	[
		{"task_id": "a", "identifier": "US912810TJ79", "clean_price": 71.66},
		{"task_id": "b", "description": "T 3 08/15/52", "clean_price": 71.66, "overrides": {"coupon": 4.125}}
	]`))
	require.NoError(t, err)
	require.True(t, isArray)
	require.Len(t, inputs, 2)
	require.Equal(t, "b", inputs[1].TaskID)
	require.InDelta(t, 4.125, *inputs[1].Overrides.Coupon, 0)

	for _, raw := range []string{"", "  ", "[]", "{", `[{"clean_price": "x"}]`} {
		_, _, err := parseInputs([]byte(raw))
		require.Error(t, err, raw)
	}
}

func TestToRequest(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 7, 14, 9, 30, 0, 0, time.UTC)
	coupon := 4.125

	t.Run("defaults settlement to prior month end", func(t *testing.T) {
		t.Parallel()
		req, err := requestInput{Description: " T 3 08/15/52 ", CleanPrice: 71.66}.toRequest(now)
		require.NoError(t, err)
		require.Equal(t, utils.Date(2025, 6, 30), req.Settlement)
		require.Equal(t, "T 3 08/15/52", req.Description)
		require.Empty(t, req.Metrics)
	})

	t.Run("converts percent coupons and parses overrides", func(t *testing.T) {
		t.Parallel()
		req, err := requestInput{
			Description:    "T 3 08/15/52",
			SettlementDate: "2025-03-31",
			Metrics:        []string{"Yield", "z_spread"},
			Overrides: overridesInput{
				Coupon:    &coupon,
				Maturity:  "2032-11-15",
				DayCount:  "act/act",
				Frequency: "annual",
				Calendar:  "target",
			},
		}.toRequest(now)
		require.NoError(t, err)
		require.Equal(t, utils.Date(2025, 3, 31), req.Settlement)
		require.Equal(t, []analytics.Metric{analytics.MetricYield, analytics.MetricZSpread}, req.Metrics)
		require.InDelta(t, 0.04125, *req.Overrides.CouponRate, 1e-15)
		require.Equal(t, utils.Date(2032, 11, 15), *req.Overrides.Maturity)
		require.Equal(t, daycount.ActActICMA, *req.Overrides.DayCount)
		require.Equal(t, bond.Annual, *req.Overrides.Frequency)
		require.EqualValues(t, "TARGET", *req.Overrides.Calendar)
	})

	bad := []requestInput{
		{SettlementDate: "30/06/2025"},
		{Metrics: []string{"sharpe"}},
		{Overrides: overridesInput{Maturity: "2032"}},
		{Overrides: overridesInput{DayCount: "ACT/999"}},
		{Overrides: overridesInput{BusinessConvention: "sideways"}},
		{Overrides: overridesInput{Frequency: "weekly"}},
		{Overrides: overridesInput{Calendar: "MARS"}},
	}
	for _, in := range bad {
		_, err := in.toRequest(now)
		require.Error(t, err)
	}
}

func TestRound(t *testing.T) {
	t.Parallel()

	y, d := 4.899157594123, 1.118784530386
	r := round(analytics.Result{Yield: &y, AccruedInterest: &d}, 6)
	require.Equal(t, 4.899158, *r.Yield)
	require.Equal(t, 1.118785, *r.AccruedInterest)
	require.Nil(t, r.ZSpread)
	require.Equal(t, 4.899157594123, y, "input is not mutated")
}
