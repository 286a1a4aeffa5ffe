package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTable(t *testing.T) {
	header := []string{"YYYY-MM-DD", "daily_rain", "daily_rain_source", "max_temp", "min_temp", "metadata"}
	records := [][]string{
		{"20230102", "0.0", "0", "31.5", "18.2", ""},
		{"2023-01-01", "", "25", "NaN", "17", "name=Brisbane"},
	}

	s, ignored, err := ParseTable(header, records)
	require.NoError(t, err)
	assert.Equal(t, []Column{ColDate, ColDailyRain, ColMaxTemp, ColMinTemp}, s.Columns)
	assert.Equal(t, []string{"daily_rain_source", "metadata"}, ignored)
	require.Len(t, s.Rows, 2)

	assert.Equal(t, time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), s.Rows[0].Date)
	v, ok := s.Rows[0].Value(ColMaxTemp)
	require.True(t, ok)
	assert.Equal(t, 31.5, v)

	_, ok = s.Rows[1].Value(ColDailyRain)
	assert.False(t, ok, "empty cell is null")
	_, ok = s.Rows[1].Value(ColMaxTemp)
	assert.False(t, ok, "NaN cell is null")
}

func TestParseTableWeatherSymbol(t *testing.T) {
	header := []string{"date", "max_temperature", "weather_symbol"}
	records := [][]string{
		{"2023-01-01", "26", "lightrain"},
		{"2023-01-02", "27", ""},
	}

	s, ignored, err := ParseTable(header, records)
	require.NoError(t, err)
	assert.Empty(t, ignored)
	assert.True(t, s.HasColumn(ColWeatherSymbol))
	assert.False(t, ColWeatherSymbol.IsNumeric())

	sym, ok := s.Rows[0].Label(ColWeatherSymbol)
	require.True(t, ok)
	assert.Equal(t, "lightrain", sym)
	_, ok = s.Rows[1].Label(ColWeatherSymbol)
	assert.False(t, ok, "empty symbol is null")

	assert.Equal(t, records, s.Records())
	assert.Equal(t, map[string]any{"weather_symbol": "lightrain"}, s.Rows[0].Fields([]Column{ColWeatherSymbol}))
	assert.Equal(t, map[string]any{"weather_symbol": nil}, s.Rows[1].Fields([]Column{ColWeatherSymbol}))
}

func TestParseTableErrors(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		records [][]string
		want    string
	}{
		{"bad date", []string{"date"}, [][]string{{"31/01/2023"}}, "parse date"},
		{"bad number", []string{"date", "vp"}, [][]string{{"2023-01-01", "abc"}}, "parse vp"},
		{"short record", []string{"date", "vp"}, [][]string{{"2023-01-01"}}, "expected 2 fields"},
		{"duplicate column", []string{"date", "vp", "vp"}, nil, "duplicate column"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseTable(tt.header, tt.records)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTableRoundTrip(t *testing.T) {
	freezeClock(t)
	merged, err := Merge(historicalSeries(1, 2), forecastSeries(3, 3), DefaultOptions())
	require.NoError(t, err)

	parsed, ignored, err := ParseTable(merged.Header(), merged.Records())
	require.NoError(t, err)
	assert.Empty(t, ignored)
	assert.Equal(t, merged.Columns, parsed.Columns)
	require.Len(t, parsed.Rows, 3)

	last := parsed.Rows[2]
	require.NotNil(t, last.Provenance)
	assert.True(t, last.Provenance.IsForecast())
	require.NotNil(t, last.Provenance.GeneratedAt)
	assert.True(t, fixedNow.Equal(*last.Provenance.GeneratedAt))
	assert.Nil(t, parsed.Rows[0].Provenance.GeneratedAt)
}

func TestRowCell(t *testing.T) {
	r := Row{Date: day(3), Values: map[Column]float64{ColDay: 3, ColMaxTemp: 29.25}}
	assert.Equal(t, "2023-01-03", r.Cell(ColDate))
	assert.Equal(t, "3", r.Cell(ColDay))
	assert.Equal(t, "29.25", r.Cell(ColMaxTemp))
	assert.Empty(t, r.Cell(ColMinTemp))
	assert.Empty(t, r.Cell(ColDataSource))
}

func TestLookupColumn(t *testing.T) {
	for c := Column(0); c < numColumns; c++ {
		got, ok := LookupColumn(c.String())
		require.True(t, ok, c.String())
		assert.Equal(t, c, got)
	}
	_, ok := LookupColumn("YYYY-MM-DD")
	assert.False(t, ok)
	assert.Equal(t, "unknown", Column(-1).String())
}
