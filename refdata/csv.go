package refdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadReferenceCSV parses reference rows from r. The header row names the
// columns; recognised columns are identifier, issuer, ticker, coupon (percent),
// maturity, issue_date, first_coupon_date, day_count, business_convention,
// frequency, currency, face_value, calendar and end_of_month.
func ReadReferenceCSV(r io.Reader) ([]Record, error) {
	rows, err := readNamedRows(r)
	if err != nil {
		return nil, fmt.Errorf("ReadReferenceCSV: %w", err)
	}
	out := make([]Record, 0, len(rows))
	for i, row := range rows {
		rec, err := parseRecord(row)
		if err != nil {
			return nil, fmt.Errorf("ReadReferenceCSV: row %d: %w", i+2, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// ReadConventionCSV parses per-ticker convention observations. Columns are
// ticker, day_count, business_convention, frequency and an optional count
// (default 1).
func ReadConventionCSV(r io.Reader) ([]Observation, error) {
	rows, err := readNamedRows(r)
	if err != nil {
		return nil, fmt.Errorf("ReadConventionCSV: %w", err)
	}
	out := make([]Observation, 0, len(rows))
	for i, row := range rows {
		ticker := NormalizeTicker(row["ticker"])
		if ticker == "" {
			return nil, fmt.Errorf("ReadConventionCSV: row %d: ticker is required", i+2)
		}
		conv, err := parseConvention(row["day_count"], row["business_convention"], row["frequency"])
		if err != nil {
			return nil, fmt.Errorf("ReadConventionCSV: row %d: %w", i+2, err)
		}
		count := 1
		if v := strings.TrimSpace(row["count"]); v != "" {
			if count, err = strconv.Atoi(v); err != nil || count <= 0 {
				return nil, fmt.Errorf("ReadConventionCSV: row %d: count %q must be a positive integer", i+2, v)
			}
		}
		out = append(out, Observation{Ticker: ticker, Convention: conv, Count: count})
	}
	return out, nil
}

// LoadReferenceCSV reads a reference CSV file into a store.
func LoadReferenceCSV(path string) (*ReferenceStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadReferenceCSV: %w", err)
	}
	defer f.Close()
	recs, err := ReadReferenceCSV(f)
	if err != nil {
		return nil, err
	}
	return NewReferenceStore(recs)
}

// LoadConventionCSV reads a convention CSV file into a store.
func LoadConventionCSV(path string) (*ConventionStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadConventionCSV: %w", err)
	}
	defer f.Close()
	obs, err := ReadConventionCSV(f)
	if err != nil {
		return nil, err
	}
	return NewConventionStore(obs), nil
}

func readNamedRows(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}
	cr.FieldsPerRecord = len(header)

	var rows []map[string]string
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			row[name] = fields[i]
		}
		rows = append(rows, row)
	}
}
