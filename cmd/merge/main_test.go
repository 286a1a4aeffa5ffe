package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	historicalCSV = `YYYY-MM-DD,daily_rain,max_temp,min_temp,radiation
2023-01-01,0,30,17,22
2023-01-02,4.2,28,16,19
2023-01-03,0,31,18,24
`
	forecastCSV = `date,min_temperature,max_temperature,total_precipitation,avg_relative_humidity
2023-01-03,15,26,0.2,60
2023-01-04,16,27,,55
`
)

func writeInputs(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	h := filepath.Join(dir, "hist.csv")
	f := filepath.Join(dir, "fc.csv")
	require.NoError(t, os.WriteFile(h, []byte(historicalCSV), 0o600))
	require.NoError(t, os.WriteFile(f, []byte(forecastCSV), 0o600))
	return h, f
}

func baseOptions(h, f string) options {
	return options{historical: h, forecast: f, location: "test", overlap: "prefer_historical", fillStrategy: "default"}
}

func TestRun_CSVToStdout(t *testing.T) {
	h, f := writeInputs(t)
	var stdout, stderr bytes.Buffer

	code := run(baseOptions(h, f), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 5, "header plus four days")
	assert.True(t, strings.HasPrefix(lines[0], "date,daily_rain,max_temp,min_temp,radiation,"))
	assert.True(t, strings.HasSuffix(lines[0], "data_source,is_forecast,forecast_generated_at"))
	assert.Contains(t, lines[3], "2023-01-03")
	assert.Contains(t, lines[3], ",historical,false,")
	assert.Contains(t, lines[4], ",forecast,true,")

	var summary map[string]any
	require.NoError(t, json.Unmarshal(stderr.Bytes(), &summary))
	assert.EqualValues(t, 4, summary["total_records"])
	assert.EqualValues(t, 1, summary["forecast_records"])
}

func TestRun_OverlapError(t *testing.T) {
	h, f := writeInputs(t)
	o := baseOptions(h, f)
	o.overlap = "error"
	var stdout, stderr bytes.Buffer

	assert.Equal(t, 1, run(o, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "merge validation failed")
	assert.Empty(t, stdout.String())
}

func TestRun_BadPolicy(t *testing.T) {
	h, f := writeInputs(t)
	o := baseOptions(h, f)
	o.overlap = "newest"
	var stdout, stderr bytes.Buffer

	assert.Equal(t, 2, run(o, &stdout, &stderr))
}

func TestRun_ParquetOutput(t *testing.T) {
	h, f := writeInputs(t)
	o := baseOptions(h, f)
	o.out = filepath.Join(t.TempDir(), "merged.parquet")
	o.fill = true
	var stdout, stderr bytes.Buffer

	require.Equal(t, 0, run(o, &stdout, &stderr), stderr.String())
	data, err := os.ReadFile(o.out)
	require.NoError(t, err)
	assert.Equal(t, "PAR1", string(data[:4]))
	assert.Empty(t, stdout.String())
}

func TestRun_MissingInput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	o := baseOptions(filepath.Join(t.TempDir(), "none.csv"), "also-none.csv")
	assert.Equal(t, 1, run(o, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "load historical")
}
