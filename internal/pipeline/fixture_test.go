package pipeline_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/harryeslick/weather-tools-sub000/internal/adapter/csvtable"
	"github.com/harryeslick/weather-tools-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileSource serves recorded upstream responses from testdata.
type fileSource struct {
	t    *testing.T
	path string
}

func (f fileSource) load() domain.Series {
	f.t.Helper()
	s, _, err := csvtable.ReadFile(filepath.Join("testdata", f.path))
	require.NoError(f.t, err)
	return s
}

func (f fileSource) FetchHistorical(context.Context, domain.Location, time.Time, time.Time) (domain.Series, error) {
	return f.load(), nil
}

func (f fileSource) FetchForecast(context.Context, domain.Location, int) (domain.Series, error) {
	return f.load(), nil
}

func TestPipeline_WithRecordedData(t *testing.T) {
	s := settings(toowoomba)
	s.Merge.OverlapPolicy = domain.PreferForecast
	s.Merge.FillMissing = true
	s.Merge.FillStrategy = domain.FillLastKnown

	pub := &mockPublisher{}
	p, _ := newPipeline(t, fileSource{t, "historical.csv"}, fileSource{t, "forecast.csv"}, pub, nil, s)

	merged, err := p.RunOnce(context.Background(), "run-fixture", toowoomba)
	require.NoError(t, err)

	summary := domain.Summarize(merged)
	assert.Equal(t, 17, summary.TotalRecords)
	assert.Equal(t, 8, summary.HistoricalRecords, "forecast wins 9 and 10 Jan")
	assert.Equal(t, 9, summary.ForecastRecords)
	require.NotNil(t, summary.TransitionDate)
	assert.Equal(t, jan(9), *summary.TransitionDate)

	n := len(merged.Columns)
	assert.Equal(t, []domain.Column{domain.ColDataSource, domain.ColIsForecast, domain.ColForecastGeneratedAt},
		merged.Columns[n-3:], "provenance columns last")
	assert.True(t, merged.HasColumn(domain.ColAvgWindSpeed), "extras keep their forecast name")
	assert.False(t, merged.HasColumn(domain.ColWindSpeed))
	assert.False(t, merged.HasColumn(domain.ColMaxTemperature), "forecast temperatures renamed")

	for _, row := range merged.Rows {
		require.NotNil(t, row.Provenance)
		_, hasMax := row.Value(domain.ColMaxTemp)
		assert.True(t, hasMax, "max_temp on %s", row.Date.Format(domain.DateLayout))
		_, hasYear := row.Value(domain.ColYear)
		assert.True(t, hasYear)
		if !row.Provenance.IsForecast() {
			continue
		}
		vp, ok := row.Value(domain.ColVP)
		assert.True(t, ok, "vp derived on %s", row.Date.Format(domain.DateLayout))
		assert.Greater(t, vp, 10.0)
		radiation, _ := row.Value(domain.ColRadiation)
		assert.InDelta(t, 22.3, radiation, 1e-9, "last known radiation from 8 Jan")
	}

	symbols := make(map[time.Time]string)
	for _, row := range merged.Rows {
		if sym, ok := row.Label(domain.ColWeatherSymbol); ok {
			symbols[row.Date] = sym
		}
	}
	assert.Len(t, symbols, 8, "one forecast day has no symbol")
	assert.Equal(t, "rain", symbols[jan(9)])
	assert.Equal(t, "heavyrain", symbols[jan(16)])
	assert.NotContains(t, symbols, jan(14))
	assert.NotContains(t, symbols, jan(8), "historical rows carry no symbol")

	assert.Equal(t, 17, pub.published["toowoomba"])
}
