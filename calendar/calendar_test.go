package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meenmo/bondlib/calendar"
	"github.com/meenmo/bondlib/utils"
)

func TestUSDHolidays(t *testing.T) {
	t.Parallel()

	d := utils.Date
	cases := []struct {
		name    string
		date    time.Time
		holiday bool
	}{
		{"Independence Day", d(2025, 7, 4), true},
		{"Good Friday", d(2025, 4, 18), true},
		{"Juneteenth", d(2025, 6, 19), true},
		{"Juneteenth before 2022", d(2021, 6, 18), false},
		{"Thanksgiving", d(2025, 11, 27), true},
		{"Christmas on Saturday observed Friday", d(2021, 12, 24), true},
		{"New Year on Sunday observed Monday", d(2023, 1, 2), true},
		{"New Year on Saturday not moved back", d(2021, 12, 31), false},
		{"Columbus Day", d(2025, 10, 13), true},
		{"ordinary Monday", d(2025, 6, 30), false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.holiday, calendar.USD.IsHoliday(tc.date))
			require.Equal(t, !tc.holiday, calendar.USD.IsBusinessDay(tc.date))
		})
	}
}

func TestOtherCalendars(t *testing.T) {
	t.Parallel()

	d := utils.Date
	require.True(t, calendar.TARGET.IsHoliday(d(2025, 4, 21)))    // Easter Monday
	require.True(t, calendar.TARGET.IsHoliday(d(2025, 5, 1)))     // Labour Day
	require.False(t, calendar.TARGET.IsHoliday(d(2025, 7, 4)))    // not a TARGET holiday
	require.True(t, calendar.GBP.IsHoliday(d(2025, 8, 25)))       // Summer bank holiday
	require.True(t, calendar.GBP.IsHoliday(d(2022, 1, 3)))        // New Year substitute
	require.True(t, calendar.GBP.IsHoliday(d(2021, 12, 28)))      // Boxing Day substitute
	require.False(t, calendar.NONE.IsBusinessDay(d(2025, 6, 28))) // Saturday
	require.True(t, calendar.NONE.IsBusinessDay(d(2025, 12, 25)))
}

func TestAdjust(t *testing.T) {
	t.Parallel()

	d := utils.Date
	cases := []struct {
		name string
		date time.Time
		conv calendar.BusinessDayConvention
		want time.Time
	}{
		{"following over weekend", d(2025, 8, 16), calendar.Following, d(2025, 8, 18)},
		{"following over holiday", d(2025, 7, 4), calendar.Following, d(2025, 7, 7)},
		{"modified following stays in month", d(2025, 5, 31), calendar.ModifiedFollowing, d(2025, 5, 30)},
		{"preceding", d(2025, 8, 17), calendar.Preceding, d(2025, 8, 15)},
		{"modified preceding stays in month", d(2025, 6, 1), calendar.ModifiedPreceding, d(2025, 6, 2)},
		{"unadjusted", d(2025, 8, 16), calendar.Unadjusted, d(2025, 8, 16)},
		{"business day unchanged", d(2025, 8, 15), calendar.Following, d(2025, 8, 15)},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, calendar.Adjust(calendar.USD, tc.date, tc.conv))
		})
	}
}

func TestParseConvention(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]calendar.BusinessDayConvention{
		"F":                  calendar.Following,
		"mf":                 calendar.ModifiedFollowing,
		"Modified Following": calendar.ModifiedFollowing,
		"P":                  calendar.Preceding,
		"none":               calendar.Unadjusted,
	} {
		got, err := calendar.ParseConvention(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got)
	}
	_, err := calendar.ParseConvention("nearest")
	require.ErrorIs(t, err, calendar.ErrUnknownConvention)
}

func TestBusinessDayArithmetic(t *testing.T) {
	t.Parallel()

	d := utils.Date
	require.Equal(t, d(2025, 7, 7), calendar.AddBusinessDays(calendar.USD, d(2025, 7, 3), 1))
	require.Equal(t, d(2025, 7, 3), calendar.AddBusinessDays(calendar.USD, d(2025, 7, 7), -1))
	require.Equal(t, d(2025, 5, 30), calendar.LastBusinessDayOfMonth(calendar.USD, d(2025, 5, 10)))
	require.Equal(t, calendar.TARGET, calendar.ForCurrency("EUR"))
	require.Equal(t, calendar.NONE, calendar.ForCurrency("JPY"))
}
