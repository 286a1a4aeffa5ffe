package domain

import (
	"fmt"
	"sort"
	"time"
)

// FillStrategy selects how historical-only variables are backfilled into forecast rows.
type FillStrategy string

const (
	FillDefault   FillStrategy = "default"
	FillLastKnown FillStrategy = "last_known"
	FillMedian    FillStrategy = "median"
)

func (f FillStrategy) check() error {
	switch f {
	case FillDefault, FillLastKnown, FillMedian:
		return nil
	}
	return fmt.Errorf("%w: fill strategy %q, must be one of %q, %q, %q",
		ErrInvalidArgument, string(f), FillDefault, FillLastKnown, FillMedian)
}

// fillDefaults holds conservative substitutes. Variables not listed have no safe
// default and are filled with null.
var fillDefaults = map[Column]float64{
	ColRadiation:   20.0,
	ColEvapSyn:     5.0,
	ColETShortCrop: 4.0,
}

// FillDefaultFor returns the default substitute for c. ok is false when the
// variable is filled with null.
func FillDefaultFor(c Column) (float64, bool) {
	v, ok := fillDefaults[c]
	return v, ok
}

// FillMissing adds every historical-only variable present in hist but absent from fc
// to a copy of fc. last_known and median fall back to the default table when hist
// has no values for the variable.
func FillMissing(fc, hist Series, strategy FillStrategy) Series {
	out := fc.Clone()
	for _, name := range historicalOnly {
		c := variablesByName[name].Column
		if !hist.HasColumn(c) || out.HasColumn(c) {
			continue
		}
		v, ok := fillValue(hist, c, strategy)
		out.AddColumn(c)
		if !ok {
			continue
		}
		for i := range out.Rows {
			out.Rows[i].Values[c] = v
		}
	}
	return out
}

func fillValue(hist Series, c Column, strategy FillStrategy) (float64, bool) {
	switch strategy {
	case FillLastKnown:
		if v, ok := lastKnown(hist, c); ok {
			return v, true
		}
	case FillMedian:
		if v, ok := median(hist, c); ok {
			return v, true
		}
	}
	return FillDefaultFor(c)
}

// lastKnown returns the value of c on the latest date that has one.
func lastKnown(s Series, c Column) (float64, bool) {
	var (
		best   float64
		latest time.Time
		found  bool
	)
	for _, r := range s.Rows {
		v, ok := r.Value(c)
		if !ok {
			continue
		}
		if !found || !r.Date.Before(latest) {
			best, latest, found = v, r.Date, true
		}
	}
	return best, found
}

func median(s Series, c Column) (float64, bool) {
	var vals []float64
	for _, r := range s.Rows {
		if v, ok := r.Value(c); ok {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0, false
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid], true
	}
	return (vals[mid-1] + vals[mid]) / 2, true
}
