package resolve

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/bondlib/utils"
)

// Description is what a free-text bond description yields.
type Description struct {
	Ticker     string
	Issuer     string
	CouponRate float64
	Maturity   time.Time
}

const couponPattern = `(\d+(?:\.\d+)?(?:[ -]\d+/\d+)?|\d+/\d+)`

var (
	// T 3 08/15/52, T 4 1/8 11/15/32, SPGB 3.45% 07/30/2043
	tickerGrammar = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9.]*)\s+` + couponPattern + `%?\s+(\d{1,2})/(\d{1,2})/(\d{2}|\d{4})$`)
	// US Treasury, 3%, 15-Aug-2052
	commaGrammar = regexp.MustCompile(`^(.+?),\s*` + couponPattern + `%?,\s*(\d{1,2}-[A-Za-z]{3}-\d{4})$`)
	// Apple Inc 3.85% 2043-05-04
	isoGrammar = regexp.MustCompile(`^(.+?)\s+` + couponPattern + `%\s+(\d{4}-\d{2}-\d{2})$`)
)

// ParseDescription decomposes a description into ticker or issuer, coupon and
// maturity. Coupons are quoted in percent and returned as decimals.
func ParseDescription(s string) (Description, error) {
	text := strings.Join(strings.Fields(s), " ")
	if text == "" {
		return Description{}, fmt.Errorf("ParseDescription: empty description")
	}

	if m := tickerGrammar.FindStringSubmatch(text); m != nil {
		coupon, err := parseCoupon(m[2])
		if err != nil {
			return Description{}, fmt.Errorf("ParseDescription: %q: %w", s, err)
		}
		maturity, err := slashDate(m[3], m[4], m[5])
		if err != nil {
			return Description{}, fmt.Errorf("ParseDescription: %q: %w", s, err)
		}
		return Description{Ticker: strings.ToUpper(m[1]), CouponRate: coupon, Maturity: maturity}, nil
	}

	for _, g := range []struct {
		re     *regexp.Regexp
		layout string
	}{{commaGrammar, "2-Jan-2006"}, {isoGrammar, utils.DateLayout}} {
		m := g.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		coupon, err := parseCoupon(m[2])
		if err != nil {
			return Description{}, fmt.Errorf("ParseDescription: %q: %w", s, err)
		}
		maturity, err := time.Parse(g.layout, m[3])
		if err != nil {
			return Description{}, fmt.Errorf("ParseDescription: %q: maturity: %w", s, err)
		}
		return Description{Issuer: strings.TrimSpace(m[1]), CouponRate: coupon, Maturity: maturity}, nil
	}

	return Description{}, fmt.Errorf("ParseDescription: %q matches no known description format", s)
}

// parseCoupon reads "3", "3.125", "4 1/8", "4-1/8" or "7/8" (percent).
func parseCoupon(s string) (float64, error) {
	whole := decimal.Zero
	frac := s
	if i := strings.IndexAny(s, " -"); i >= 0 {
		w, err := decimal.NewFromString(s[:i])
		if err != nil {
			return 0, fmt.Errorf("coupon %q: %w", s, err)
		}
		whole, frac = w, s[i+1:]
	} else if !strings.Contains(s, "/") {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return 0, fmt.Errorf("coupon %q: %w", s, err)
		}
		whole, frac = d, ""
	}
	if frac != "" {
		parts := strings.SplitN(frac, "/", 2)
		num, err1 := strconv.ParseInt(parts[0], 10, 64)
		den, err2 := strconv.ParseInt(parts[1], 10, 64)
		if err1 != nil || err2 != nil || den == 0 || num >= den {
			return 0, fmt.Errorf("coupon %q: bad fraction", s)
		}
		whole = whole.Add(decimal.NewFromInt(num).Div(decimal.NewFromInt(den)))
	}
	return whole.Div(decimal.NewFromInt(100)).InexactFloat64(), nil
}

// slashDate builds MM/DD/YY[YY]. Two-digit years below 80 are 20xx.
func slashDate(mm, dd, yy string) (time.Time, error) {
	m, _ := strconv.Atoi(mm)
	d, _ := strconv.Atoi(dd)
	y, _ := strconv.Atoi(yy)
	if len(yy) == 2 {
		if y < 80 {
			y += 2000
		} else {
			y += 1900
		}
	}
	if m < 1 || m > 12 || d < 1 || d > utils.DaysInMonth(y, time.Month(m)) {
		return time.Time{}, fmt.Errorf("maturity %s/%s/%s is not a calendar date", mm, dd, yy)
	}
	return utils.Date(y, time.Month(m), d), nil
}
