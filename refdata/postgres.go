package refdata

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
)

// Querier is the subset of *pgx.Conn and *pgxpool.Pool the loaders need.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

const referenceQuery = `SELECT identifier,
	COALESCE(issuer, ''), COALESCE(ticker, ''), COALESCE(coupon::text, ''),
	COALESCE(maturity::text, ''), COALESCE(issue_date::text, ''), COALESCE(first_coupon_date::text, ''),
	COALESCE(day_count, ''), COALESCE(business_convention, ''), COALESCE(frequency::text, ''),
	COALESCE(currency, ''), COALESCE(face_value::text, ''), COALESCE(calendar, '')
FROM bond_reference`

const conventionQuery = `SELECT ticker, day_count, business_convention, frequency::text, COUNT(*)
FROM bond_reference
WHERE ticker IS NOT NULL AND day_count IS NOT NULL
	AND business_convention IS NOT NULL AND frequency IS NOT NULL
GROUP BY ticker, day_count, business_convention, frequency`

var referenceColumns = []string{
	"identifier", "issuer", "ticker", "coupon", "maturity", "issue_date", "first_coupon_date",
	"day_count", "business_convention", "frequency", "currency", "face_value", "calendar",
}

// LoadReferencePostgres reads the bond_reference table into a store.
func LoadReferencePostgres(ctx context.Context, db Querier) (*ReferenceStore, error) {
	rows, err := db.Query(ctx, referenceQuery)
	if err != nil {
		return nil, fmt.Errorf("LoadReferencePostgres: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		vals := make([]string, len(referenceColumns))
		dest := make([]interface{}, len(vals))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("LoadReferencePostgres: scan: %w", err)
		}
		row := make(map[string]string, len(vals))
		for i, name := range referenceColumns {
			row[name] = vals[i]
		}
		rec, err := parseRecord(row)
		if err != nil {
			return nil, fmt.Errorf("LoadReferencePostgres: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LoadReferencePostgres: %w", err)
	}
	return NewReferenceStore(recs)
}

// LoadConventionPostgres aggregates ticker conventions from bond_reference.
func LoadConventionPostgres(ctx context.Context, db Querier) (*ConventionStore, error) {
	rows, err := db.Query(ctx, conventionQuery)
	if err != nil {
		return nil, fmt.Errorf("LoadConventionPostgres: %w", err)
	}
	defer rows.Close()

	var obs []Observation
	for rows.Next() {
		var ticker, dc, bdc, freq string
		var count int64
		if err := rows.Scan(&ticker, &dc, &bdc, &freq, &count); err != nil {
			return nil, fmt.Errorf("LoadConventionPostgres: scan: %w", err)
		}
		conv, err := parseConvention(dc, bdc, freq)
		if err != nil {
			return nil, fmt.Errorf("LoadConventionPostgres: %s: %w", ticker, err)
		}
		obs = append(obs, Observation{Ticker: ticker, Convention: conv, Count: int(count)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LoadConventionPostgres: %w", err)
	}
	return NewConventionStore(obs), nil
}
