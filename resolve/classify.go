package resolve

import (
	"strings"

	"github.com/meenmo/bondlib/daycount"
)

// AssetClass drives the last-resort convention defaults.
type AssetClass string

const (
	Government AssetClass = "GOVERNMENT"
	Corporate  AssetClass = "CORPORATE"
)

var governmentTickers = map[string]bool{
	"T": true, "UST": true, "DBR": true, "BTPS": true, "OAT": true, "FRTR": true,
	"UKT": true, "JGB": true, "SPGB": true, "BKO": true, "OBL": true,
	"CAN": true, "ACGB": true, "NZGB": true, "RAGB": true, "BGB": true,
}

var governmentIssuerWords = []string{
	"TREASURY", "GOVERNMENT", "REPUBLIC", "KINGDOM", "BUND", "GILT", "COMMONWEALTH",
}

// Classify derives the asset class from a ticker, falling back to issuer name
// keywords. Anything unrecognised is Corporate.
func Classify(ticker, issuer string) AssetClass {
	if governmentTickers[strings.ToUpper(strings.TrimSpace(ticker))] {
		return Government
	}
	name := strings.ToUpper(issuer)
	for _, w := range governmentIssuerWords {
		if strings.Contains(name, w) {
			return Government
		}
	}
	return Corporate
}

// DefaultDayCount is ACT/ACT ICMA for governments and 30/360 otherwise.
func (a AssetClass) DefaultDayCount() daycount.Convention {
	if a == Government {
		return daycount.ActActICMA
	}
	return daycount.Thirty360
}
