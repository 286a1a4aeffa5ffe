package domain

import "time"

var baseDate = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

// day returns the n-th day of January 2023, 1-indexed.
func day(n int) time.Time {
	return baseDate.AddDate(0, 0, n-1)
}

// historicalSeries builds canonical rows for days from..to inclusive.
func historicalSeries(from, to int) Series {
	s := NewSeries(ColDate, ColDailyRain, ColMaxTemp, ColMinTemp, ColRadiation, ColEvapSyn, ColEvapPan)
	for n := from; n <= to; n++ {
		s.Append(day(n), map[Column]float64{
			ColDailyRain: float64(n % 3),
			ColMaxTemp:   25 + float64(n%5),
			ColMinTemp:   12 + float64(n%4),
			ColRadiation: 18 + float64(n%6),
			ColEvapSyn:   4 + float64(n%2),
		})
	}
	return s
}

// forecastSeries builds met.no-style daily aggregates for days from..to inclusive.
func forecastSeries(from, to int) Series {
	s := NewSeries(ColDate, ColMinTemperature, ColMaxTemperature, ColTotalPrecipitation,
		ColAvgRelativeHumidity, ColAvgPressure, ColAvgWindSpeed)
	for n := from; n <= to; n++ {
		s.Append(day(n), map[Column]float64{
			ColMinTemperature:      14,
			ColMaxTemperature:      26,
			ColTotalPrecipitation:  1.5,
			ColAvgRelativeHumidity: 60,
			ColAvgPressure:         1013,
			ColAvgWindSpeed:        3.2,
		})
	}
	return s
}

func sourceByDate(s Series) map[time.Time]Source {
	out := make(map[time.Time]Source, len(s.Rows))
	for _, r := range s.Rows {
		out[r.Date] = r.Provenance.Source
	}
	return out
}
