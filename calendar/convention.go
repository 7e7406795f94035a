package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// BusinessDayConvention rolls a date that falls on a non-business day.
type BusinessDayConvention string

const (
	Following         BusinessDayConvention = "FOLLOWING"
	ModifiedFollowing BusinessDayConvention = "MODIFIED_FOLLOWING"
	Preceding         BusinessDayConvention = "PRECEDING"
	ModifiedPreceding BusinessDayConvention = "MODIFIED_PRECEDING"
	Unadjusted        BusinessDayConvention = "UNADJUSTED"
)

// ErrUnknownConvention is returned by ParseConvention for unsupported names.
var ErrUnknownConvention = errors.New("unknown business day convention")

// ParseConvention accepts the enum names plus common short forms (F, MF, P, MP, NONE).
func ParseConvention(s string) (BusinessDayConvention, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	switch key {
	case "FOLLOWING", "F", "FOLLOW":
		return Following, nil
	case "MODIFIED_FOLLOWING", "MF", "MODFOLLOWING", "MOD_FOLLOWING":
		return ModifiedFollowing, nil
	case "PRECEDING", "P":
		return Preceding, nil
	case "MODIFIED_PRECEDING", "MP", "MOD_PRECEDING":
		return ModifiedPreceding, nil
	case "UNADJUSTED", "NONE", "U", "NO_ADJUSTMENT":
		return Unadjusted, nil
	}
	return "", fmt.Errorf("calendar.ParseConvention: %q: %w", s, ErrUnknownConvention)
}

// Valid reports whether c is a supported convention.
func (c BusinessDayConvention) Valid() bool {
	switch c {
	case Following, ModifiedFollowing, Preceding, ModifiedPreceding, Unadjusted:
		return true
	}
	return false
}

// Adjust rolls t to a business day on cal according to conv.
func Adjust(cal Calendar, t time.Time, conv BusinessDayConvention) time.Time {
	switch conv {
	case Following:
		return rollForward(cal, t)
	case ModifiedFollowing:
		adj := rollForward(cal, t)
		if adj.Month() != t.Month() {
			return rollBackward(cal, t)
		}
		return adj
	case Preceding:
		return rollBackward(cal, t)
	case ModifiedPreceding:
		adj := rollBackward(cal, t)
		if adj.Month() != t.Month() {
			return rollForward(cal, t)
		}
		return adj
	default:
		return t
	}
}

func rollForward(cal Calendar, t time.Time) time.Time {
	for !cal.IsBusinessDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func rollBackward(cal Calendar, t time.Time) time.Time {
	for !cal.IsBusinessDay(t) {
		t = t.AddDate(0, 0, -1)
	}
	return t
}
