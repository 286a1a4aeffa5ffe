package domain

import (
	"encoding/json"
	"time"
)

// Period is an inclusive date span.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

// Summary describes a merged series. When the series has no provenance, Err is
// ErrNoDataSource and every other field is zero.
type Summary struct {
	Err               error      `json:"-"`
	TotalRecords      int        `json:"total_records"`
	HistoricalRecords int        `json:"historical_records"`
	ForecastRecords   int        `json:"forecast_records"`
	DateRange         *Period    `json:"date_range"`
	HistoricalPeriod  *Period    `json:"historical_period"`
	ForecastPeriod    *Period    `json:"forecast_period"`
	TransitionDate    *time.Time `json:"transition_date"`
}

// MarshalJSON renders an errored summary as {"error": "..."}.
func (s Summary) MarshalJSON() ([]byte, error) {
	if s.Err != nil {
		return json.Marshal(map[string]string{"error": s.Err.Error()})
	}
	type plain Summary
	return json.Marshal(plain(s))
}

// Summarize reports record counts and date spans per source. It does not fail; a
// series without a data_source column yields a Summary whose Err is ErrNoDataSource.
func Summarize(s Series) Summary {
	if !s.HasColumn(ColDataSource) {
		return Summary{Err: ErrNoDataSource}
	}

	var (
		sum              = Summary{TotalRecords: len(s.Rows)}
		all, hist, fcast spanBuilder
	)
	for _, r := range s.Rows {
		all.add(r.Date)
		if r.Provenance == nil {
			continue
		}
		switch r.Provenance.Source {
		case SourceHistorical:
			sum.HistoricalRecords++
			hist.add(r.Date)
		case SourceForecast:
			sum.ForecastRecords++
			fcast.add(r.Date)
		}
	}
	sum.DateRange = all.period()
	sum.HistoricalPeriod = hist.period()
	sum.ForecastPeriod = fcast.period()
	if sum.ForecastPeriod != nil {
		t := sum.ForecastPeriod.Start
		sum.TransitionDate = &t
	}
	return sum
}

type spanBuilder struct {
	min, max time.Time
	n        int
}

func (b *spanBuilder) add(d time.Time) {
	if b.n == 0 || d.Before(b.min) {
		b.min = d
	}
	if b.n == 0 || d.After(b.max) {
		b.max = d
	}
	b.n++
}

func (b *spanBuilder) period() *Period {
	if b.n == 0 {
		return nil
	}
	return &Period{Start: b.min, End: b.max, Days: daysBetween(b.min, b.max) + 1}
}
