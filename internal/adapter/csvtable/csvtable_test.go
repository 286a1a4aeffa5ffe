package csvtable

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harryeslick/weather-tools-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const siloCSV = `station,YYYY-MM-DD,day,year,daily_rain,daily_rain_source,max_temp,max_temp_source,min_temp,min_temp_source,metadata
41529,2023-01-01,1,2023,0.0,25,30.5,25,17.1,25,name=TOOWOOMBA
41529,2023-01-02,2,2023,12.4,25,27.0,25,16.8,25,
`

func TestRead_SiloLayout(t *testing.T) {
	s, ignored, err := Read(strings.NewReader(siloCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"station", "daily_rain_source", "max_temp_source", "min_temp_source", "metadata"}, ignored)
	assert.Equal(t, []domain.Column{
		domain.ColDate, domain.ColDay, domain.ColYear,
		domain.ColDailyRain, domain.ColMaxTemp, domain.ColMinTemp,
	}, s.Columns)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), s.Rows[1].Date)
	v, ok := s.Rows[1].Value(domain.ColDailyRain)
	assert.True(t, ok)
	assert.InDelta(t, 12.4, v, 1e-9)
}

func TestRead_Empty(t *testing.T) {
	_, _, err := Read(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestRead_BadValue(t *testing.T) {
	_, _, err := Read(strings.NewReader("date,max_temp\n2023-01-01,hot\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_temp")
}

func TestWrite(t *testing.T) {
	s := domain.NewSeries(domain.ColDate, domain.ColMaxTemp, domain.ColDailyRain)
	s.Append(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), map[domain.Column]float64{domain.ColMaxTemp: 30.5})

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, s))
	assert.Equal(t, "date,max_temp,daily_rain\n2023-01-01,30.5,\n", buf.String())
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merged.csv")
	s, _, err := Read(strings.NewReader(siloCSV))
	require.NoError(t, err)

	require.NoError(t, WriteFile(path, s))
	got, ignored, err := ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, ignored)
	assert.Equal(t, s.Columns, got.Columns)
	assert.Equal(t, s.Dates(), got.Dates())
}

func TestReadFile_Missing(t *testing.T) {
	_, _, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
