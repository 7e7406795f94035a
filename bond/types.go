package bond

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/meenmo/bondlib/calendar"
	"github.com/meenmo/bondlib/daycount"
)

// ErrInvalidSpecification is wrapped by Specification.Validate failures.
var ErrInvalidSpecification = errors.New("invalid bond specification")

// Frequency is the number of coupon payments per year.
type Frequency int

const (
	Annual     Frequency = 1
	Semiannual Frequency = 2
	Quarterly  Frequency = 4
	Monthly    Frequency = 12
)

// Valid reports whether f divides a year into whole months.
func (f Frequency) Valid() bool {
	switch f {
	case Annual, Semiannual, Quarterly, Monthly:
		return true
	}
	return false
}

// Months returns the length of one coupon period in months.
func (f Frequency) Months() int {
	if !f.Valid() {
		return 0
	}
	return 12 / int(f)
}

func (f Frequency) String() string {
	switch f {
	case Annual:
		return "ANNUAL"
	case Semiannual:
		return "SEMIANNUAL"
	case Quarterly:
		return "QUARTERLY"
	case Monthly:
		return "MONTHLY"
	}
	return strconv.Itoa(int(f))
}

// ParseFrequency accepts names (annual, semi-annual, ...), letters (A, S, Q, M)
// and payments per year (1, 2, 4, 12).
func ParseFrequency(s string) (Frequency, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	switch key {
	case "ANNUAL", "A", "1", "YEARLY", "12M":
		return Annual, nil
	case "SEMIANNUAL", "S", "SA", "2", "6M":
		return Semiannual, nil
	case "QUARTERLY", "Q", "4", "3M":
		return Quarterly, nil
	case "MONTHLY", "M", "12", "1M":
		return Monthly, nil
	}
	return 0, fmt.Errorf("bond.ParseFrequency: unsupported frequency %q", s)
}

// Specification fully describes a fixed-coupon bond's cashflow conventions.
//
// CouponRate is a decimal (0.03 == 3%). FaceValue is the redemption amount.
type Specification struct {
	Issuer             string                         `json:"issuer,omitempty"`
	Ticker             string                         `json:"ticker,omitempty"`
	CouponRate         float64                        `json:"coupon_rate"`
	Maturity           time.Time                      `json:"maturity"`
	IssueDate          time.Time                      `json:"issue_date,omitzero"`
	FirstCouponDate    time.Time                      `json:"first_coupon_date,omitzero"`
	DayCount           daycount.Convention            `json:"day_count"`
	BusinessConvention calendar.BusinessDayConvention `json:"business_convention"`
	Frequency          Frequency                      `json:"frequency"`
	FaceValue          float64                        `json:"face_value"`
	Currency           string                         `json:"currency"`
	Calendar           calendar.CalendarID            `json:"calendar"`
	EndOfMonth         bool                           `json:"end_of_month"`
}

// Validate checks the field invariants. Date ordering between issue and
// maturity is left to schedule generation, which reports it as a
// *schedule.Error.
func (s Specification) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidSpecification, fmt.Sprintf(format, args...))
	}
	if s.Maturity.IsZero() {
		return invalid("maturity is required")
	}
	if math.IsNaN(s.CouponRate) || math.IsInf(s.CouponRate, 0) || s.CouponRate < 0 {
		return invalid("coupon rate %v must be a non-negative number", s.CouponRate)
	}
	if !s.Frequency.Valid() {
		return invalid("frequency %d does not divide 12 months", int(s.Frequency))
	}
	if !s.DayCount.Valid() {
		return invalid("day count %q", s.DayCount)
	}
	if !s.BusinessConvention.Valid() {
		return invalid("business day convention %q", s.BusinessConvention)
	}
	if !(s.FaceValue > 0) {
		return invalid("face value %v must be positive", s.FaceValue)
	}
	if s.Calendar != "" && !s.Calendar.Valid() {
		return invalid("calendar %q", s.Calendar)
	}
	if !s.FirstCouponDate.IsZero() {
		if s.FirstCouponDate.After(s.Maturity) {
			return invalid("first coupon date after maturity")
		}
		if !s.IssueDate.IsZero() && !s.FirstCouponDate.After(s.IssueDate) {
			return invalid("first coupon date not after issue date")
		}
	}
	return nil
}

// MarketCalendar returns the configured calendar, falling back to the currency's.
func (s Specification) MarketCalendar() calendar.CalendarID {
	if s.Calendar != "" {
		return s.Calendar
	}
	return calendar.ForCurrency(s.Currency)
}

// CashflowKind tags what a cashflow pays.
type CashflowKind string

const (
	KindCoupon             CashflowKind = "coupon"
	KindPrincipal          CashflowKind = "principal"
	KindCouponAndPrincipal CashflowKind = "coupon+principal"
)

// Cashflow is a single dated cash payment for a bond.
//
// Amounts are in currency units for the specification's face value, not
// price-per-100. AccrualEnd is the period end the payment is measured from.
type Cashflow struct {
	Date       time.Time    `json:"date"`
	AccrualEnd time.Time    `json:"accrual_end"`
	Coupon     float64      `json:"coupon"`
	Principal  float64      `json:"principal"`
	Kind       CashflowKind `json:"kind"`
}

func (c Cashflow) Amount() float64 {
	return c.Coupon + c.Principal
}
