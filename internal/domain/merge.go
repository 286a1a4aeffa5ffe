package domain

import (
	"fmt"
	"slices"
	"time"
)

// OverlapPolicy decides which source wins for dates present in both series.
type OverlapPolicy string

const (
	PreferHistorical OverlapPolicy = "prefer_historical"
	PreferForecast   OverlapPolicy = "prefer_forecast"
	OverlapError     OverlapPolicy = "error"
)

var overlapAliases = map[string]OverlapPolicy{
	"prefer_silo":  PreferHistorical,
	"prefer_metno": PreferForecast,
}

// ParseOverlapPolicy parses a policy name. "prefer_silo" and "prefer_metno" are
// accepted as aliases.
func ParseOverlapPolicy(s string) (OverlapPolicy, error) {
	if p, ok := overlapAliases[s]; ok {
		return p, nil
	}
	p := OverlapPolicy(s)
	if err := p.check(); err != nil {
		return "", err
	}
	return p, nil
}

func (p OverlapPolicy) check() error {
	switch p {
	case PreferHistorical, PreferForecast, OverlapError:
		return nil
	}
	return fmt.Errorf("%w: overlap policy %q, must be one of %q, %q, %q",
		ErrInvalidArgument, string(p), PreferHistorical, PreferForecast, OverlapError)
}

// Options controls Merge. The zero value skips validation; use DefaultOptions.
type Options struct {
	// TransitionDate is informational. When nil it is derived as the day after the
	// last historical date.
	TransitionDate *time.Time
	Validate       bool
	FillMissing    bool
	FillStrategy   FillStrategy  // empty means FillDefault
	OverlapPolicy  OverlapPolicy // empty means PreferHistorical
}

// DefaultOptions validates, does not fill, and prefers historical rows on overlap.
func DefaultOptions() Options {
	return Options{
		Validate:      true,
		FillStrategy:  FillDefault,
		OverlapPolicy: PreferHistorical,
	}
}

func (o Options) normalized() (Options, error) {
	if o.OverlapPolicy == "" {
		o.OverlapPolicy = PreferHistorical
	}
	if o.FillStrategy == "" {
		o.FillStrategy = FillDefault
	}
	if err := o.OverlapPolicy.check(); err != nil {
		return o, err
	}
	if err := o.FillStrategy.check(); err != nil {
		return o, err
	}
	return o, nil
}

// TransitionDateFor returns the day after the last historical date.
func TransitionDateFor(hist Series) (time.Time, bool) {
	d, ok := hist.MaxDate()
	if !ok {
		return time.Time{}, false
	}
	return d.AddDate(0, 0, 1), true
}

// Merge combines a historical and a forecast series into one source-tagged series
// sorted by date. Inputs are not modified. On error nothing is merged.
func Merge(hist, fc Series, opts Options) (Series, error) {
	opts, err := opts.normalized()
	if err != nil {
		return Series{}, err
	}

	h := hist.Clone()
	f := fc.Clone()
	h.SortByDate()
	f.SortByDate()

	transition := opts.TransitionDate
	if transition == nil {
		if d, ok := TransitionDateFor(h); ok {
			transition = &d
		}
	}

	if opts.Validate {
		if ok, violations := CheckCompatibility(h, f, transition, opts.OverlapPolicy); !ok {
			return Series{}, &ValidationError{Violations: violations}
		}
	} else {
		// Overlap resolution is keyed on dates, so undated input cannot be merged.
		var violations []string
		if !h.HasDate() {
			violations = append(violations, "historical series missing 'date' column")
		}
		if !f.HasDate() {
			violations = append(violations, "forecast series missing 'date' column")
		}
		if len(violations) > 0 {
			return Series{}, &ValidationError{Violations: violations}
		}
	}

	h, f, err = resolveOverlap(h, f, opts.OverlapPolicy)
	if err != nil {
		return Series{}, err
	}

	f = PrepareForecast(f)
	if opts.FillMissing {
		f = FillMissing(f, h, opts.FillStrategy)
	}

	generatedAt := clock.Now().UTC()
	stamp(&h, Provenance{Source: SourceHistorical})
	stamp(&f, Provenance{Source: SourceForecast, GeneratedAt: &generatedAt})

	h, f = AlignColumns(h, f)

	out := Series{
		Columns: h.Columns,
		Rows:    make([]Row, 0, len(h.Rows)+len(f.Rows)),
	}
	out.Rows = append(out.Rows, h.Rows...)
	out.Rows = append(out.Rows, f.Rows...)
	out.SortByDate()
	return out, nil
}

func resolveOverlap(h, f Series, policy OverlapPolicy) (Series, Series, error) {
	switch policy {
	case OverlapError:
		histDates := h.DateSet()
		n := 0
		for d := range f.DateSet() {
			if _, ok := histDates[d]; ok {
				n++
			}
		}
		if n > 0 {
			return h, f, &ValidationError{Violations: []string{fmt.Sprintf(
				"found %d overlapping dates; use overlap policy %q or %q to resolve",
				n, PreferHistorical, PreferForecast)}}
		}
		return h, f, nil
	case PreferHistorical:
		return h, dropDates(f, h.DateSet()), nil
	case PreferForecast:
		return dropDates(h, f.DateSet()), f, nil
	}
	return h, f, policy.check()
}

func dropDates(s Series, dates map[time.Time]struct{}) Series {
	out := Series{Columns: s.Columns, Rows: make([]Row, 0, len(s.Rows))}
	for _, r := range s.Rows {
		if _, ok := dates[r.Date]; !ok {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// PrepareForecast renames forecast-native columns to the canonical schema, derives
// vapour pressure from relative humidity and adds day/year columns.
func PrepareForecast(fc Series) Series {
	out := fc.Clone()
	if len(missingColumns(out, criticalCanonical)) > 0 {
		out = RenameColumns(out, ForecastToCanonicalColumnMap(out, false))
	}
	out = attachVaporPressure(out)
	if !out.HasColumn(ColDay) || !out.HasColumn(ColYear) {
		out = DeriveCalendarColumns(out)
	}
	return out
}

// attachVaporPressure fills vp from avg_relative_humidity and the daily mean
// temperature. Rows without humidity or temperature get a null vp.
func attachVaporPressure(s Series) Series {
	if s.HasColumn(ColVP) || !s.HasColumn(ColAvgRelativeHumidity) {
		return s
	}
	minCol, maxCol, ok := temperatureColumns(s)
	if !ok {
		return s
	}
	s.AddColumn(ColVP)
	for i := range s.Rows {
		r := &s.Rows[i]
		rh, ok := r.Value(ColAvgRelativeHumidity)
		if !ok {
			continue
		}
		lo, okLo := r.Value(minCol)
		hi, okHi := r.Value(maxCol)
		var t float64
		switch {
		case okLo && okHi:
			t = (lo + hi) / 2
		case okLo:
			t = lo
		case okHi:
			t = hi
		default:
			continue
		}
		r.Values[ColVP] = RelativeHumidityToVaporPressure(rh, t)
	}
	return s
}

// temperatureColumns picks the temperature columns under whichever naming the
// series uses.
func temperatureColumns(s Series) (Column, Column, bool) {
	if s.HasColumn(ColMinTemp) || s.HasColumn(ColMaxTemp) {
		return ColMinTemp, ColMaxTemp, true
	}
	if s.HasColumn(ColMinTemperature) || s.HasColumn(ColMaxTemperature) {
		return ColMinTemperature, ColMaxTemperature, true
	}
	return 0, 0, false
}

func stamp(s *Series, p Provenance) {
	s.AddColumn(ColDataSource)
	s.AddColumn(ColIsForecast)
	if p.GeneratedAt != nil {
		s.AddColumn(ColForecastGeneratedAt)
	}
	for i := range s.Rows {
		rp := p
		s.Rows[i].Provenance = &rp
	}
}

var provenanceOrder = []Column{ColDataSource, ColIsForecast, ColForecastGeneratedAt}

// AlignColumns returns copies of a and b sharing the union of their columns. Columns
// keep first-seen order, a before b, with provenance columns last. Cells added by
// alignment are null.
func AlignColumns(a, b Series) (Series, Series) {
	var union []Column
	seen := make(map[Column]bool)
	for _, cols := range [][]Column{a.Columns, b.Columns} {
		for _, c := range cols {
			if !seen[c] && !c.IsProvenance() {
				seen[c] = true
				union = append(union, c)
			}
		}
	}
	for _, c := range provenanceOrder {
		if slices.Contains(a.Columns, c) || slices.Contains(b.Columns, c) {
			union = append(union, c)
		}
	}

	outA, outB := a.Clone(), b.Clone()
	outA.Columns = slices.Clone(union)
	outB.Columns = slices.Clone(union)
	return outA, outB
}
