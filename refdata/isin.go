package refdata

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadCheckDigit is returned for identifiers whose check digit does not match.
var ErrBadCheckDigit = errors.New("bad check digit")

// LooksLikeISIN reports whether id has the ISIN shape: two letters, nine
// alphanumerics, one digit.
func LooksLikeISIN(id string) bool {
	if len(id) != 12 {
		return false
	}
	for i := 0; i < 12; i++ {
		c := id[i]
		switch {
		case i < 2 && (c < 'A' || c > 'Z'):
			return false
		case i == 11 && (c < '0' || c > '9'):
			return false
		case !isAlnum(c):
			return false
		}
	}
	return true
}

// ValidateISIN checks the ISIN Luhn check digit.
func ValidateISIN(id string) error {
	id = NormalizeIdentifier(id)
	if !LooksLikeISIN(id) {
		return fmt.Errorf("ValidateISIN: %q is not an ISIN", id)
	}
	if isinCheckDigit(id[:11]) != id[11] {
		return fmt.Errorf("ValidateISIN: %s: %w", id, ErrBadCheckDigit)
	}
	return nil
}

// ISINFromCUSIP builds the ISIN for a nine-character CUSIP.
func ISINFromCUSIP(cusip, country string) (string, error) {
	cusip = NormalizeIdentifier(cusip)
	if len(cusip) != 9 {
		return "", fmt.Errorf("ISINFromCUSIP: %q is not a CUSIP", cusip)
	}
	for i := 0; i < 9; i++ {
		if !isAlnum(cusip[i]) {
			return "", fmt.Errorf("ISINFromCUSIP: %q is not a CUSIP", cusip)
		}
	}
	body := strings.ToUpper(country) + cusip
	return body + string(isinCheckDigit(body)), nil
}

// isinCheckDigit expands letters to two digits (A=10 … Z=35) and applies Luhn.
func isinCheckDigit(body string) byte {
	var digits []int
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c >= '0' && c <= '9' {
			digits = append(digits, int(c-'0'))
			continue
		}
		v := int(c-'A') + 10
		digits = append(digits, v/10, v%10)
	}
	sum := 0
	double := true
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return byte('0' + (10-sum%10)%10)
}

func isAlnum(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z')
}
