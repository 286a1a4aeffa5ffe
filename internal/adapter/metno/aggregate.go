package metno

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/harryeslick/weather-tools-sub000/internal/domain"
)

// DailySummary is one UTC day of aggregated forecast steps. Nil means no data.
type DailySummary struct {
	Date                time.Time
	MinTemperature      *float64
	MaxTemperature      *float64
	TotalPrecipitation  *float64
	AvgWindSpeed        *float64
	MaxWindSpeed        *float64
	AvgRelativeHumidity *float64
	AvgPressure         *float64
	AvgCloudFraction    *float64
	DominantSymbol      string
}

type dayAccumulator struct {
	temps, winds, humidities, pressures, clouds []float64
	precipitation                               float64
	symbols                                     []string
}

// AggregateDaily groups forecast steps by UTC date. Precipitation for each step is
// taken from the shortest period that reports it, so overlapping 1h/6h/12h windows
// are not double counted.
func AggregateDaily(steps []TimeStep, logger *slog.Logger) []DailySummary {
	days := make(map[time.Time]*dayAccumulator)
	for _, step := range steps {
		if step.Time.IsZero() {
			logger.Warn("skipping forecast step without time")
			continue
		}
		date := domain.NormalizeDate(step.Time.UTC())
		acc, ok := days[date]
		if !ok {
			acc = &dayAccumulator{}
			days[date] = acc
		}

		d := step.Data.Instant.Details
		appendIf(&acc.temps, d, "air_temperature")
		appendIf(&acc.winds, d, "wind_speed")
		appendIf(&acc.humidities, d, "relative_humidity")
		appendIf(&acc.pressures, d, "air_pressure_at_sea_level")
		appendIf(&acc.clouds, d, "cloud_area_fraction")

		for _, p := range []*Period{step.Data.Next1Hours, step.Data.Next6Hours, step.Data.Next12Hours} {
			if p == nil {
				continue
			}
			amount, ok := p.Details["precipitation_amount"]
			if !ok {
				continue
			}
			acc.precipitation += amount
			if p.Summary.SymbolCode != "" {
				acc.symbols = append(acc.symbols, p.Summary.SymbolCode)
			}
			break
		}
	}

	dates := make([]time.Time, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := make([]DailySummary, 0, len(dates))
	for _, date := range dates {
		acc := days[date]
		s := DailySummary{
			Date:                date,
			MinTemperature:      minOf(acc.temps),
			MaxTemperature:      maxOf(acc.temps),
			AvgWindSpeed:        mean(acc.winds),
			MaxWindSpeed:        maxOf(acc.winds),
			AvgRelativeHumidity: mean(acc.humidities),
			AvgPressure:         mean(acc.pressures),
			AvgCloudFraction:    mean(acc.clouds),
			DominantSymbol:      DominantSymbol(acc.symbols),
		}
		// A dry day reports no precipitation total.
		if acc.precipitation > 0 {
			p := acc.precipitation
			s.TotalPrecipitation = &p
		}
		out = append(out, s)
	}
	return out
}

// severity ranks weather symbols by keyword. The first matching keyword counts.
var severity = []struct {
	keyword string
	rank    int
}{
	{"thunder", 100},
	{"lightning", 100},
	{"heavyrain", 90},
	{"rain", 80},
	{"sleet", 75},
	{"snow", 70},
	{"fog", 60},
	{"cloudy", 40},
	{"partlycloudy", 30},
	{"fair", 20},
	{"clearsky", 10},
}

// DominantSymbol returns the most severe symbol, or the first one when none match a
// known keyword.
func DominantSymbol(symbols []string) string {
	if len(symbols) == 0 {
		return ""
	}
	best, bestRank := symbols[0], -1
	for _, sym := range symbols {
		lower := strings.ToLower(sym)
		for _, s := range severity {
			if strings.Contains(lower, s.keyword) {
				if s.rank > bestRank {
					best, bestRank = sym, s.rank
				}
				break
			}
		}
	}
	return best
}

// DailySeries converts summaries to a series in met.no column naming. The dominant
// symbol is carried as the weather_symbol text column.
func DailySeries(days []DailySummary) domain.Series {
	s := domain.NewSeries(
		domain.ColDate,
		domain.ColMinTemperature,
		domain.ColMaxTemperature,
		domain.ColTotalPrecipitation,
		domain.ColAvgWindSpeed,
		domain.ColMaxWindSpeed,
		domain.ColAvgRelativeHumidity,
		domain.ColAvgPressure,
		domain.ColAvgCloudFraction,
		domain.ColWeatherSymbol,
	)
	for _, d := range days {
		values := make(map[domain.Column]float64)
		set := func(c domain.Column, v *float64) {
			if v != nil {
				values[c] = *v
			}
		}
		set(domain.ColMinTemperature, d.MinTemperature)
		set(domain.ColMaxTemperature, d.MaxTemperature)
		set(domain.ColTotalPrecipitation, d.TotalPrecipitation)
		set(domain.ColAvgWindSpeed, d.AvgWindSpeed)
		set(domain.ColMaxWindSpeed, d.MaxWindSpeed)
		set(domain.ColAvgRelativeHumidity, d.AvgRelativeHumidity)
		set(domain.ColAvgPressure, d.AvgPressure)
		set(domain.ColAvgCloudFraction, d.AvgCloudFraction)
		s.Append(d.Date, values)
		if d.DominantSymbol != "" {
			s.Rows[len(s.Rows)-1].Labels = map[domain.Column]string{domain.ColWeatherSymbol: d.DominantSymbol}
		}
	}
	return s
}

func appendIf(dst *[]float64, details map[string]float64, key string) {
	if v, ok := details[key]; ok {
		*dst = append(*dst, v)
	}
}

func minOf(vs []float64) *float64 {
	if len(vs) == 0 {
		return nil
	}
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return &m
}

func maxOf(vs []float64) *float64 {
	if len(vs) == 0 {
		return nil
	}
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return &m
}

func mean(vs []float64) *float64 {
	if len(vs) == 0 {
		return nil
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	m := sum / float64(len(vs))
	return &m
}
