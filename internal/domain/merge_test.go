package domain

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2023, time.January, 11, 6, 30, 0, 0, time.UTC)

func freezeClock(t *testing.T) {
	t.Helper()
	SetClock(clockwork.NewFakeClockAt(fixedNow))
	t.Cleanup(func() { SetClock(nil) })
}

func opts(policy OverlapPolicy) Options {
	o := DefaultOptions()
	o.OverlapPolicy = policy
	return o
}

func TestMergeOverlapPolicies(t *testing.T) {
	freezeClock(t)
	hist := historicalSeries(1, 10)
	fc := forecastSeries(8, 15)

	t.Run("prefer historical", func(t *testing.T) {
		out, err := Merge(hist, fc, opts(PreferHistorical))
		require.NoError(t, err)
		require.Len(t, out.Rows, 15)

		src := sourceByDate(out)
		require.Len(t, src, 15, "one row per date")
		for n := 1; n <= 15; n++ {
			want := SourceHistorical
			if n > 10 {
				want = SourceForecast
			}
			assert.Equal(t, want, src[day(n)], "day %d", n)
		}
	})

	t.Run("prefer forecast", func(t *testing.T) {
		out, err := Merge(hist, fc, opts(PreferForecast))
		require.NoError(t, err)
		require.Len(t, out.Rows, 15)

		src := sourceByDate(out)
		for n := 1; n <= 15; n++ {
			want := SourceHistorical
			if n >= 8 {
				want = SourceForecast
			}
			assert.Equal(t, want, src[day(n)], "day %d", n)
		}
	})

	t.Run("error with validation", func(t *testing.T) {
		_, err := Merge(hist, fc, opts(OverlapError))
		require.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "overlap")
	})

	t.Run("error without validation", func(t *testing.T) {
		o := opts(OverlapError)
		o.Validate = false
		_, err := Merge(hist, fc, o)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Len(t, verr.Violations, 1)
		assert.Contains(t, verr.Violations[0], "found 3 overlapping dates")
		assert.Contains(t, verr.Violations[0], string(PreferForecast))
	})
}

func TestMergeGapDetection(t *testing.T) {
	hist := historicalSeries(1, 10)
	fc := forecastSeries(15, 20)

	_, err := Merge(hist, fc, opts(OverlapError))
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "gap")
	assert.Contains(t, err.Error(), "4 days")
	assert.Contains(t, err.Error(), "2023-01-10")

	// Gaps are preserved, not rejected, under a preference policy.
	out, err := Merge(hist, fc, opts(PreferHistorical))
	require.NoError(t, err)
	assert.Len(t, out.Rows, 16)
}

func TestMergeRowConservationWhenDisjoint(t *testing.T) {
	freezeClock(t)
	hist := historicalSeries(1, 10)
	fc := forecastSeries(11, 19)

	for _, p := range []OverlapPolicy{PreferHistorical, PreferForecast, OverlapError} {
		t.Run(string(p), func(t *testing.T) {
			out, err := Merge(hist, fc, opts(p))
			require.NoError(t, err)
			assert.Equal(t, hist.Len()+fc.Len(), out.Len())
		})
	}
}

func TestMergeInvalidPolicy(t *testing.T) {
	hist := historicalSeries(1, 5)
	fc := forecastSeries(6, 8)

	for _, validate := range []bool{true, false} {
		o := opts("latest_wins")
		o.Validate = validate
		_, err := Merge(hist, fc, o)
		require.ErrorIs(t, err, ErrInvalidArgument)
		assert.False(t, errors.Is(err, ErrValidation))
		assert.Contains(t, err.Error(), "latest_wins")
		assert.Contains(t, err.Error(), "prefer_historical")
	}

	o := DefaultOptions()
	o.FillMissing = true
	o.FillStrategy = "mean"
	_, err := Merge(hist, fc, o)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMergeProvenance(t *testing.T) {
	freezeClock(t)
	out, err := Merge(historicalSeries(1, 10), forecastSeries(8, 15), opts(PreferForecast))
	require.NoError(t, err)

	for _, c := range []Column{ColDataSource, ColIsForecast, ColForecastGeneratedAt} {
		assert.True(t, out.HasColumn(c), c.String())
	}
	for _, r := range out.Rows {
		require.NotNil(t, r.Provenance)
		p := r.Provenance
		assert.Equal(t, p.Source == SourceForecast, p.IsForecast())
		assert.Equal(t, p.IsForecast(), p.GeneratedAt != nil)
		if p.GeneratedAt != nil {
			assert.Equal(t, fixedNow, *p.GeneratedAt, "stamp is captured once")
		}
	}
}

func TestMergeSortedOutput(t *testing.T) {
	hist := historicalSeries(1, 6)
	// Shuffle input order.
	hist.Rows[0], hist.Rows[5] = hist.Rows[5], hist.Rows[0]
	hist.Rows[2], hist.Rows[3] = hist.Rows[3], hist.Rows[2]
	fc := forecastSeries(7, 9)
	fc.Rows[0], fc.Rows[2] = fc.Rows[2], fc.Rows[0]

	out, err := Merge(hist, fc, DefaultOptions())
	require.NoError(t, err)
	dates := out.Dates()
	assert.True(t, sort.SliceIsSorted(dates, func(i, j int) bool { return dates[i].Before(dates[j]) }))
	assert.Equal(t, day(1), dates[0])
	assert.Equal(t, day(9), dates[len(dates)-1])
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	hist := historicalSeries(1, 10)
	fc := forecastSeries(8, 15)
	histBefore, fcBefore := hist.Clone(), fc.Clone()

	_, err := Merge(hist, fc, opts(PreferForecast))
	require.NoError(t, err)

	if diff := cmp.Diff(histBefore, hist); diff != "" {
		t.Errorf("historical input changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(fcBefore, fc); diff != "" {
		t.Errorf("forecast input changed (-want +got):\n%s", diff)
	}
}

func TestMergeNormalizesForecast(t *testing.T) {
	freezeClock(t)
	out, err := Merge(historicalSeries(1, 3), forecastSeries(4, 5), DefaultOptions())
	require.NoError(t, err)

	assert.False(t, out.HasColumn(ColMinTemperature))
	assert.True(t, out.HasColumn(ColVP))
	assert.True(t, out.HasColumn(ColMSLP))
	assert.True(t, out.HasColumn(ColAvgWindSpeed), "extras keep their forecast name")

	last := out.Rows[len(out.Rows)-1]
	assert.Equal(t, SourceForecast, last.Provenance.Source)
	tmin, _ := last.Value(ColMinTemp)
	assert.Equal(t, 14.0, tmin)
	vp, ok := last.Value(ColVP)
	require.True(t, ok)
	assert.InDelta(t, RelativeHumidityToVaporPressure(60, 20), vp, 1e-9)
	d, _ := last.Value(ColDay)
	assert.Equal(t, 5.0, d)

	first := out.Rows[0]
	_, ok = first.Value(ColAvgWindSpeed)
	assert.False(t, ok, "alignment fills with null")
}

func TestPrepareForecastVaporPressure(t *testing.T) {
	fc := NewSeries(ColDate, ColMaxTemperature, ColTotalPrecipitation, ColAvgRelativeHumidity)
	fc.Append(day(1), map[Column]float64{ColMaxTemperature: 20, ColAvgRelativeHumidity: 50})
	fc.Append(day(2), map[Column]float64{ColMaxTemperature: 20})
	fc.Append(day(3), map[Column]float64{ColAvgRelativeHumidity: 50})

	out := PrepareForecast(fc)
	require.True(t, out.HasColumn(ColVP))

	vp, ok := out.Rows[0].Value(ColVP)
	require.True(t, ok, "single temperature is used when the other is absent")
	assert.InDelta(t, 11.7, vp, 0.5)

	_, ok = out.Rows[1].Value(ColVP)
	assert.False(t, ok, "null humidity gives null vp")

	_, ok = out.Rows[2].Value(ColVP)
	assert.False(t, ok, "no temperature gives null vp")
}

func TestMergeEmptyInputs(t *testing.T) {
	freezeClock(t)

	t.Run("empty forecast", func(t *testing.T) {
		out, err := Merge(historicalSeries(1, 5), forecastSeries(1, 0), opts(OverlapError))
		require.NoError(t, err)
		assert.Len(t, out.Rows, 5)
		s := Summarize(out)
		assert.Nil(t, s.TransitionDate)
	})

	t.Run("empty historical", func(t *testing.T) {
		hist := NewSeries(ColDate, ColMinTemp, ColMaxTemp, ColDailyRain)
		out, err := Merge(hist, forecastSeries(1, 4), DefaultOptions())
		require.NoError(t, err)
		assert.Len(t, out.Rows, 4)
		for _, r := range out.Rows {
			assert.True(t, r.Provenance.IsForecast())
		}
	})
}

func TestMergeMissingDateWithoutValidation(t *testing.T) {
	hist := NewSeries(ColMinTemp, ColMaxTemp, ColDailyRain)
	o := DefaultOptions()
	o.Validate = false
	_, err := Merge(hist, forecastSeries(1, 2), o)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"historical series missing 'date' column"}, verr.Violations)
}

func TestMergeFillMissing(t *testing.T) {
	freezeClock(t)
	hist := historicalSeries(1, 4)
	fc := forecastSeries(5, 6)

	t.Run("default table", func(t *testing.T) {
		o := DefaultOptions()
		o.FillMissing = true
		out, err := Merge(hist, fc, o)
		require.NoError(t, err)

		r := out.Rows[len(out.Rows)-1]
		rad, _ := r.Value(ColRadiation)
		evap, _ := r.Value(ColEvapSyn)
		assert.Equal(t, 20.0, rad)
		assert.Equal(t, 5.0, evap)
		_, ok := r.Value(ColEvapPan)
		assert.False(t, ok, "pan evaporation has no safe default")
		assert.False(t, out.HasColumn(ColETShortCrop), "only variables present in the historical series are filled")
	})

	t.Run("no fill leaves nulls", func(t *testing.T) {
		out, err := Merge(hist, fc, DefaultOptions())
		require.NoError(t, err)
		_, ok := out.Rows[len(out.Rows)-1].Value(ColRadiation)
		assert.False(t, ok)
	})
}

func TestFillMissingStrategies(t *testing.T) {
	hist := historicalSeries(1, 4) // radiation 19, 20, 21, 22; evap_pan all null
	fc := PrepareForecast(forecastSeries(5, 5))

	last := FillMissing(fc, hist, FillLastKnown)
	v, _ := last.Rows[0].Value(ColRadiation)
	assert.Equal(t, 22.0, v)

	med := FillMissing(fc, hist, FillMedian)
	v, _ = med.Rows[0].Value(ColRadiation)
	assert.Equal(t, 20.5, v)

	// No historical values: fall back to the default table, which is null here.
	_, ok := med.Rows[0].Value(ColEvapPan)
	assert.False(t, ok)
	assert.True(t, med.HasColumn(ColEvapPan))

	assert.False(t, fc.HasColumn(ColRadiation), "input must not change")
}

func TestAlignColumnsIdempotent(t *testing.T) {
	a := historicalSeries(1, 2)
	b := PrepareForecast(forecastSeries(3, 4))

	a1, b1 := AlignColumns(a, b)
	a2, b2 := AlignColumns(a1, b1)

	assert.Equal(t, a1.Columns, b1.Columns)
	assert.Equal(t, a1.Columns, a2.Columns)
	assert.Equal(t, b1.Columns, b2.Columns)
	assert.ElementsMatch(t, a1.Columns, unionOf(a.Columns, b.Columns))
}

func unionOf(a, b []Column) []Column {
	seen := make(map[Column]bool)
	var out []Column
	for _, c := range append(append([]Column{}, a...), b...) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func TestParseOverlapPolicy(t *testing.T) {
	for in, want := range map[string]OverlapPolicy{
		"prefer_historical": PreferHistorical,
		"prefer_silo":       PreferHistorical,
		"prefer_forecast":   PreferForecast,
		"prefer_metno":      PreferForecast,
		"error":             OverlapError,
	} {
		got, err := ParseOverlapPolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseOverlapPolicy("newest")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTransitionDateFor(t *testing.T) {
	d, ok := TransitionDateFor(historicalSeries(1, 10))
	require.True(t, ok)
	assert.Equal(t, day(11), d)

	_, ok = TransitionDateFor(NewSeries(ColDate))
	assert.False(t, ok)
}
