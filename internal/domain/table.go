package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order when parsing date cells.
var dateLayouts = []string{DateLayout, "20060102", time.RFC3339, "2006-01-02 15:04:05"}

// dateHeaders are header names accepted as the date column. SILO CSV output labels
// it "YYYY-MM-DD".
var dateHeaders = map[string]bool{"date": true, "YYYY-MM-DD": true, "Date": true}

// ParseDate parses a date cell in any of the accepted layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NormalizeDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date %q", s)
}

// ParseTable converts a header plus string records into a Series. Unrecognised
// columns are skipped and returned as ignored. Empty, "NaN" and "NA" cells are null.
// Provenance columns are parsed back into Row.Provenance.
func ParseTable(header []string, records [][]string) (Series, []string, error) {
	var (
		s       Series
		ignored []string
		idx     = make([]Column, len(header))
		known   = make([]bool, len(header))
	)
	for i, name := range header {
		name = strings.TrimSpace(name)
		c, ok := LookupColumn(name)
		if !ok && dateHeaders[name] {
			c, ok = ColDate, true
		}
		if !ok {
			ignored = append(ignored, name)
			continue
		}
		if s.HasColumn(c) {
			return Series{}, nil, fmt.Errorf("duplicate column %q", name)
		}
		idx[i], known[i] = c, true
		s.Columns = append(s.Columns, c)
	}

	for n, rec := range records {
		if len(rec) != len(header) {
			return Series{}, nil, fmt.Errorf("record %d: expected %d fields, got %d", n+1, len(header), len(rec))
		}
		row := Row{Values: make(map[Column]float64)}
		var prov Provenance
		hasProv := false
		for i, cell := range rec {
			if !known[i] {
				continue
			}
			cell = strings.TrimSpace(cell)
			c := idx[i]
			switch {
			case c == ColDate:
				d, err := ParseDate(cell)
				if err != nil {
					return Series{}, nil, fmt.Errorf("record %d: %w", n+1, err)
				}
				row.Date = d
			case c == ColDataSource:
				if cell != "" {
					prov.Source = Source(cell)
					hasProv = true
				}
			case c.IsText():
				if isNull(cell) {
					continue
				}
				if row.Labels == nil {
					row.Labels = make(map[Column]string)
				}
				row.Labels[c] = cell
			case c == ColIsForecast:
				// Derived from data_source.
			case c == ColForecastGeneratedAt:
				if isNull(cell) {
					continue
				}
				t, err := time.Parse(time.RFC3339, cell)
				if err != nil {
					return Series{}, nil, fmt.Errorf("record %d: parse %s: %w", n+1, c, err)
				}
				prov.GeneratedAt = &t
			default:
				if isNull(cell) {
					continue
				}
				v, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return Series{}, nil, fmt.Errorf("record %d: parse %s: %w", n+1, c, err)
				}
				row.Values[c] = v
			}
		}
		if hasProv {
			row.Provenance = &prov
		}
		s.Rows = append(s.Rows, row)
	}
	return s, ignored, nil
}

func isNull(cell string) bool {
	switch strings.ToLower(cell) {
	case "", "nan", "na", "null":
		return true
	}
	return false
}

// Header returns the wire names of the series columns.
func (s Series) Header() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.String()
	}
	return out
}

// Records renders every row as strings in column order.
func (s Series) Records() [][]string {
	out := make([][]string, len(s.Rows))
	for i, r := range s.Rows {
		rec := make([]string, len(s.Columns))
		for j, c := range s.Columns {
			rec[j] = r.Cell(c)
		}
		out[i] = rec
	}
	return out
}
