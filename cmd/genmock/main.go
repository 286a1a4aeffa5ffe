// Command genmock writes deterministic fixtures for a merge: a SILO-layout
// historical CSV, a met.no compact forecast response, the daily forecast CSV
// aggregated from it, and the merged result. It uses the real domain and met.no
// aggregation code so the fixtures match pipeline behaviour.
//
// Usage:
//
//	go run ./cmd/genmock -out-dir data/mock -start 2023-01-01 -history-days 30 -forecast-days 9
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/harryeslick/weather-tools-sub000/internal/adapter/csvtable"
	"github.com/harryeslick/weather-tools-sub000/internal/adapter/metno"
	"github.com/harryeslick/weather-tools-sub000/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Toowoomba, QLD.
const (
	mockStation = "41529"
	mockLat     = -27.5598
	mockLon     = 151.9507
	mockAlt     = 691
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "", "directory to write fixtures into")
	startStr := flag.String("start", "2023-01-01", "first historical date (YYYY-MM-DD)")
	historyDays := flag.Int("history-days", 30, "number of historical days")
	forecastDays := flag.Int("forecast-days", 9, "number of forecast days (1-9)")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out-dir")
	}
	if *forecastDays < 1 || *forecastDays > 9 {
		return fmt.Errorf("forecast-days must be between 1 and 9")
	}
	start, err := domain.ParseDate(*startStr)
	if err != nil {
		return err
	}
	transition := start.AddDate(0, 0, *historyDays)

	// Fixed clock for reproducible forecast_generated_at values.
	domain.SetClock(clockwork.NewFakeClockAt(transition.Add(6 * time.Hour)))
	defer domain.SetClock(nil)

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	hist := historical(start, *historyDays)
	if err := csvtable.WriteFile(filepath.Join(*outDir, "historical.csv"), hist); err != nil {
		return fmt.Errorf("writing historical fixture: %w", err)
	}
	log.Printf("historical: %d days from %s", hist.Len(), start.Format(domain.DateLayout))

	raw, err := forecastResponse(transition, *forecastDays)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(*outDir, "metno_compact.json"), raw, 0o644); err != nil {
		return fmt.Errorf("writing met.no fixture: %w", err)
	}

	var resp metno.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("decoding generated response: %w", err)
	}
	daily := metno.AggregateDaily(resp.Properties.Timeseries, slog.New(slog.DiscardHandler))
	fc := metno.DailySeries(daily)
	if err := csvtable.WriteFile(filepath.Join(*outDir, "forecast.csv"), fc); err != nil {
		return fmt.Errorf("writing forecast fixture: %w", err)
	}
	log.Printf("forecast: %d days from %s", fc.Len(), transition.Format(domain.DateLayout))

	merged, err := domain.Merge(hist, fc, domain.DefaultOptions())
	if err != nil {
		return fmt.Errorf("merging fixtures: %w", err)
	}
	if err := csvtable.WriteFile(filepath.Join(*outDir, "merged.csv"), merged); err != nil {
		return fmt.Errorf("writing merged fixture: %w", err)
	}

	summary, err := json.MarshalIndent(domain.Summarize(merged), "", "  ")
	if err != nil {
		return err
	}
	log.Printf("merged summary:\n%s", summary)
	return nil
}

// seasonal returns a smooth deterministic signal for day n.
func seasonal(n int, base, amp, period float64) float64 {
	return math.Round((base+amp*math.Sin(2*math.Pi*float64(n)/period))*10) / 10
}

func historical(start time.Time, days int) domain.Series {
	s := domain.NewSeries(domain.ColDate, domain.ColDay, domain.ColYear,
		domain.ColDailyRain, domain.ColMaxTemp, domain.ColMinTemp, domain.ColEvapSyn,
		domain.ColRadiation, domain.ColVP, domain.ColMSLP)
	for n := range days {
		d := start.AddDate(0, 0, n)
		rain := 0.0
		if n%5 == 2 {
			rain = seasonal(n, 8, 6, 7)
		}
		s.Append(d, map[domain.Column]float64{
			domain.ColDay:       float64(d.YearDay()),
			domain.ColYear:      float64(d.Year()),
			domain.ColDailyRain: rain,
			domain.ColMaxTemp:   seasonal(n, 29, 3, 11),
			domain.ColMinTemp:   seasonal(n, 17, 2, 13),
			domain.ColEvapSyn:   seasonal(n, 6.5, 1, 9),
			domain.ColRadiation: seasonal(n, 24, 4, 8),
			domain.ColVP:        seasonal(n, 19, 2, 10),
			domain.ColMSLP:      seasonal(n, 1012, 4, 6),
		})
	}
	return s
}

// forecastResponse builds a compact Locationforecast document with 6-hourly steps.
func forecastResponse(from time.Time, days int) ([]byte, error) {
	symbols := []string{"clearsky_day", "partlycloudy_day", "rain", "cloudy"}
	var steps []map[string]any
	for h := 0; h < days*24; h += 6 {
		n := h / 6
		steps = append(steps, map[string]any{
			"time": from.Add(time.Duration(h) * time.Hour).Format(time.RFC3339),
			"data": map[string]any{
				"instant": map[string]any{"details": map[string]float64{
					"air_temperature":           seasonal(n, 21, 6, 4),
					"relative_humidity":         seasonal(n, 60, 15, 4),
					"wind_speed":                seasonal(n, 4, 2, 5),
					"air_pressure_at_sea_level": seasonal(n, 1011, 3, 12),
					"cloud_area_fraction":       seasonal(n, 50, 40, 7),
				}},
				"next_6_hours": map[string]any{
					"summary": map[string]string{"symbol_code": symbols[n%len(symbols)]},
					"details": map[string]float64{"precipitation_amount": math.Max(0, seasonal(n, 0.5, 2, 9))},
				},
			},
		})
	}
	doc := map[string]any{
		"type":     "Feature",
		"geometry": map[string]any{"type": "Point", "coordinates": []float64{mockLon, mockLat, mockAlt}},
		"properties": map[string]any{
			"meta":       map[string]any{"updated_at": from.Format(time.RFC3339), "station": mockStation},
			"timeseries": steps,
		},
	}
	return json.MarshalIndent(doc, "", "  ")
}
