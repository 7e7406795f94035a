package curve

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTenor converts tenor strings like "1W", "3M", "10Y" or "30D" to years.
// Bare numbers are read as years.
func ParseTenor(tenor string) (float64, error) {
	t := strings.TrimSpace(strings.ToUpper(tenor))
	if t == "" {
		return 0, fmt.Errorf("curve.ParseTenor: empty tenor")
	}
	unit := t[len(t)-1]
	var perYear float64
	switch unit {
	case 'D':
		perYear = 365
	case 'W':
		perYear = 365.0 / 7.0
	case 'M':
		perYear = 12
	case 'Y':
		perYear = 1
	default:
		v, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, fmt.Errorf("curve.ParseTenor: %q: %w", tenor, err)
		}
		return v, nil
	}
	v, err := strconv.ParseFloat(t[:len(t)-1], 64)
	if err != nil {
		return 0, fmt.Errorf("curve.ParseTenor: %q: %w", tenor, err)
	}
	return v / perYear, nil
}
