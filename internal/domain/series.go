package domain

import (
	"maps"
	"slices"
	"sort"
	"strconv"
	"time"
)

// Source tags where a merged row came from.
type Source string

const (
	SourceHistorical Source = "historical"
	SourceForecast   Source = "forecast"
)

// Provenance is attached to every row of a merged series.
type Provenance struct {
	Source      Source
	GeneratedAt *time.Time // set only on forecast rows
}

// IsForecast mirrors the is_forecast column. It is derived from Source so the two
// cannot disagree.
func (p Provenance) IsForecast() bool {
	return p.Source == SourceForecast
}

// Row is one calendar day at one location.
type Row struct {
	Date       time.Time
	Values     map[Column]float64
	Labels     map[Column]string // text columns; absent key == null
	Provenance *Provenance
}

// Value returns a numeric cell. ok is false for null.
func (r Row) Value(c Column) (float64, bool) {
	v, ok := r.Values[c]
	return v, ok
}

// Label returns a text cell. ok is false for null.
func (r Row) Label(c Column) (string, bool) {
	v, ok := r.Labels[c]
	return v, ok
}

func (r Row) clone() Row {
	out := Row{Date: r.Date, Values: maps.Clone(r.Values), Labels: maps.Clone(r.Labels)}
	if out.Values == nil {
		out.Values = make(map[Column]float64)
	}
	if r.Provenance != nil {
		p := *r.Provenance
		out.Provenance = &p
	}
	return out
}

// Series is an ordered set of columns plus the rows that carry them.
type Series struct {
	Columns []Column
	Rows    []Row
}

// NewSeries builds a series with the given columns. ColDate is not added implicitly.
func NewSeries(cols ...Column) Series {
	return Series{Columns: slices.Clone(cols)}
}

// Len returns the number of rows.
func (s Series) Len() int { return len(s.Rows) }

// Clone deep-copies the series.
func (s Series) Clone() Series {
	out := Series{Columns: slices.Clone(s.Columns), Rows: make([]Row, len(s.Rows))}
	for i := range s.Rows {
		out.Rows[i] = s.Rows[i].clone()
	}
	return out
}

// HasColumn reports whether c is part of the series schema.
func (s Series) HasColumn(c Column) bool {
	return slices.Contains(s.Columns, c)
}

// HasDate reports whether the series carries a date column.
func (s Series) HasDate() bool { return s.HasColumn(ColDate) }

// AddColumn appends c to the schema if missing. Cells start null.
func (s *Series) AddColumn(c Column) {
	if !s.HasColumn(c) {
		s.Columns = append(s.Columns, c)
	}
}

// Append adds a row dated d with the given values. Columns in values that are not in
// the schema are added.
func (s *Series) Append(d time.Time, values map[Column]float64) {
	for c := range values {
		s.AddColumn(c)
	}
	row := Row{Date: NormalizeDate(d), Values: maps.Clone(values)}
	if row.Values == nil {
		row.Values = make(map[Column]float64)
	}
	s.Rows = append(s.Rows, row)
}

// SortByDate sorts rows ascending by date, keeping the relative order of equal dates.
func (s *Series) SortByDate() {
	sort.SliceStable(s.Rows, func(i, j int) bool {
		return s.Rows[i].Date.Before(s.Rows[j].Date)
	})
}

// MinDate returns the earliest date. ok is false when the series is empty or has no
// date column.
func (s Series) MinDate() (time.Time, bool) {
	if !s.HasDate() || len(s.Rows) == 0 {
		return time.Time{}, false
	}
	m := s.Rows[0].Date
	for _, r := range s.Rows[1:] {
		if r.Date.Before(m) {
			m = r.Date
		}
	}
	return m, true
}

// MaxDate returns the latest date.
func (s Series) MaxDate() (time.Time, bool) {
	if !s.HasDate() || len(s.Rows) == 0 {
		return time.Time{}, false
	}
	m := s.Rows[0].Date
	for _, r := range s.Rows[1:] {
		if r.Date.After(m) {
			m = r.Date
		}
	}
	return m, true
}

// DateSet returns the set of dates in the series.
func (s Series) DateSet() map[time.Time]struct{} {
	set := make(map[time.Time]struct{}, len(s.Rows))
	for _, r := range s.Rows {
		set[r.Date] = struct{}{}
	}
	return set
}

// Dates returns the dates in row order.
func (s Series) Dates() []time.Time {
	out := make([]time.Time, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.Date
	}
	return out
}

// NormalizeDate truncates t to a UTC calendar date.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateLayout is the wire format for the date column.
const DateLayout = "2006-01-02"

// Cell formats one cell for text output. Null cells are empty strings.
func (r Row) Cell(c Column) string {
	switch c {
	case ColDate:
		return r.Date.Format(DateLayout)
	case ColDataSource:
		if r.Provenance == nil {
			return ""
		}
		return string(r.Provenance.Source)
	case ColIsForecast:
		if r.Provenance == nil {
			return ""
		}
		return strconv.FormatBool(r.Provenance.IsForecast())
	case ColForecastGeneratedAt:
		if r.Provenance == nil || r.Provenance.GeneratedAt == nil {
			return ""
		}
		return r.Provenance.GeneratedAt.Format(time.RFC3339)
	case ColWeatherSymbol:
		return r.Labels[c]
	}
	v, ok := r.Values[c]
	if !ok {
		return ""
	}
	if c == ColDay || c == ColYear {
		return strconv.Itoa(int(v))
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Fields renders the row as a name-keyed map over cols. Nulls become nil.
func (r Row) Fields(cols []Column) map[string]any {
	out := make(map[string]any, len(cols))
	for _, c := range cols {
		switch c {
		case ColDate:
			out[c.String()] = r.Date.Format(DateLayout)
		case ColDataSource:
			if r.Provenance != nil {
				out[c.String()] = r.Provenance.Source
			} else {
				out[c.String()] = nil
			}
		case ColIsForecast:
			if r.Provenance != nil {
				out[c.String()] = r.Provenance.IsForecast()
			} else {
				out[c.String()] = nil
			}
		case ColForecastGeneratedAt:
			if r.Provenance != nil && r.Provenance.GeneratedAt != nil {
				out[c.String()] = *r.Provenance.GeneratedAt
			} else {
				out[c.String()] = nil
			}
		case ColWeatherSymbol:
			if v, ok := r.Labels[c]; ok {
				out[c.String()] = v
			} else {
				out[c.String()] = nil
			}
		default:
			if v, ok := r.Values[c]; ok {
				out[c.String()] = v
			} else {
				out[c.String()] = nil
			}
		}
	}
	return out
}
