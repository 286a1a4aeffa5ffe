package domain

import "math"

// VariableMapping maps a forecast column to its canonical column.
type VariableMapping struct {
	From       Column
	To         Column
	Conversion string   // name of the conversion function, empty for a plain rename
	Requires   []Column // other forecast columns the conversion needs
	Extra      bool     // no SILO equivalent
}

const conversionRHToVP = "relative_humidity_to_vapor_pressure"

var forecastMappings = []VariableMapping{
	{From: ColDate, To: ColDate},
	{From: ColMinTemperature, To: ColMinTemp},
	{From: ColMaxTemperature, To: ColMaxTemp},
	{From: ColTotalPrecipitation, To: ColDailyRain},
	{From: ColAvgPressure, To: ColMSLP},
	{From: ColAvgRelativeHumidity, To: ColVP, Conversion: conversionRHToVP, Requires: []Column{ColMinTemperature, ColMaxTemperature}},
	{From: ColAvgWindSpeed, To: ColWindSpeed, Extra: true},
	{From: ColMaxWindSpeed, To: ColMaxWindSpeed, Extra: true},
	{From: ColAvgCloudFraction, To: ColCloudFraction, Extra: true},
}

// ForecastMappings returns the forecast-to-canonical mapping table.
func ForecastMappings() []VariableMapping {
	out := make([]VariableMapping, len(forecastMappings))
	copy(out, forecastMappings)
	return out
}

// ForecastToCanonicalColumnMap returns renames for forecast columns present in s.
// Mappings that need a conversion are not renames and are left out; extras are
// included only when includeExtra is set.
func ForecastToCanonicalColumnMap(s Series, includeExtra bool) map[Column]Column {
	out := make(map[Column]Column)
	for _, m := range forecastMappings {
		if m.Conversion != "" || (m.Extra && !includeExtra) {
			continue
		}
		if s.HasColumn(m.From) {
			out[m.From] = m.To
		}
	}
	return out
}

// RenameColumns returns a copy of s with columns renamed per mapping. Columns not in
// mapping keep their name. A rename whose target is already in the schema, or is
// claimed by an earlier column, is skipped so the existing values win.
func RenameColumns(s Series, mapping map[Column]Column) Series {
	mapping = effectiveRenames(s.Columns, mapping)
	out := Series{Columns: make([]Column, 0, len(s.Columns)), Rows: make([]Row, len(s.Rows))}
	for _, c := range s.Columns {
		if to, ok := mapping[c]; ok {
			c = to
		}
		out.AddColumn(c)
	}
	for i, r := range s.Rows {
		nr := r.clone()
		nr.Values = make(map[Column]float64, len(r.Values))
		for c, v := range r.Values {
			if to, ok := mapping[c]; ok {
				c = to
			}
			nr.Values[c] = v
		}
		out.Rows[i] = nr
	}
	return out
}

func effectiveRenames(cols []Column, mapping map[Column]Column) map[Column]Column {
	taken := make(map[Column]bool, len(cols))
	for _, c := range cols {
		taken[c] = true
	}
	out := make(map[Column]Column, len(mapping))
	for _, c := range cols {
		to, ok := mapping[c]
		if !ok || to == c || taken[to] {
			continue
		}
		taken[to] = true
		out[c] = to
	}
	return out
}

// RelativeHumidityToVaporPressure converts relative humidity (%) at temperature t (°C)
// to vapour pressure (hPa) using es = 6.1094·exp(17.625·t/(t+243.04)). Inputs are not
// clamped.
func RelativeHumidityToVaporPressure(rh, t float64) float64 {
	es := 6.1094 * math.Exp(17.625*t/(t+243.04))
	return rh / 100 * es
}

// DeriveCalendarColumns returns a copy of s with day-of-year and year columns. A
// series without a date column is returned unchanged.
func DeriveCalendarColumns(s Series) Series {
	out := s.Clone()
	if !out.HasDate() {
		return out
	}
	out.AddColumn(ColDay)
	out.AddColumn(ColYear)
	for i := range out.Rows {
		d := out.Rows[i].Date
		out.Rows[i].Values[ColDay] = float64(d.YearDay())
		out.Rows[i].Values[ColYear] = float64(d.Year())
	}
	return out
}
