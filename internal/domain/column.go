package domain

// Column identifies one field of a daily weather record.
type Column int

const (
	ColDate Column = iota
	ColDay
	ColYear

	// Canonical (SILO) variables.
	ColDailyRain
	ColMonthlyRain
	ColMaxTemp
	ColMinTemp
	ColVP
	ColVPDeficit
	ColRHTmax
	ColRHTmin
	ColMSLP
	ColEvapPan
	ColEvapSyn
	ColEvapComb
	ColEvapMortonLake
	ColRadiation
	ColETShortCrop
	ColETTallCrop
	ColETMortonActual
	ColETMortonPotential
	ColETMortonWet

	// Forecast extras with a canonical name but no SILO equivalent.
	ColWindSpeed
	ColMaxWindSpeed
	ColCloudFraction

	// Forecast-native (met.no daily aggregate) names.
	ColMinTemperature
	ColMaxTemperature
	ColTotalPrecipitation
	ColAvgPressure
	ColAvgRelativeHumidity
	ColAvgWindSpeed
	ColAvgCloudFraction

	// Dominant met.no weather symbol for the day. Text, held in Row.Labels.
	ColWeatherSymbol

	// Provenance, stamped by Merge.
	ColDataSource
	ColIsForecast
	ColForecastGeneratedAt

	numColumns
)

var columnNames = [numColumns]string{
	ColDate:                "date",
	ColDay:                 "day",
	ColYear:                "year",
	ColDailyRain:           "daily_rain",
	ColMonthlyRain:         "monthly_rain",
	ColMaxTemp:             "max_temp",
	ColMinTemp:             "min_temp",
	ColVP:                  "vp",
	ColVPDeficit:           "vp_deficit",
	ColRHTmax:              "rh_tmax",
	ColRHTmin:              "rh_tmin",
	ColMSLP:                "mslp",
	ColEvapPan:             "evap_pan",
	ColEvapSyn:             "evap_syn",
	ColEvapComb:            "evap_comb",
	ColEvapMortonLake:      "evap_morton_lake",
	ColRadiation:           "radiation",
	ColETShortCrop:         "et_short_crop",
	ColETTallCrop:          "et_tall_crop",
	ColETMortonActual:      "et_morton_actual",
	ColETMortonPotential:   "et_morton_potential",
	ColETMortonWet:         "et_morton_wet",
	ColWindSpeed:           "wind_speed",
	ColMaxWindSpeed:        "max_wind_speed",
	ColCloudFraction:       "cloud_fraction",
	ColMinTemperature:      "min_temperature",
	ColMaxTemperature:      "max_temperature",
	ColTotalPrecipitation:  "total_precipitation",
	ColAvgPressure:         "avg_pressure",
	ColAvgRelativeHumidity: "avg_relative_humidity",
	ColAvgWindSpeed:        "avg_wind_speed",
	ColAvgCloudFraction:    "avg_cloud_fraction",
	ColWeatherSymbol:       "weather_symbol",
	ColDataSource:          "data_source",
	ColIsForecast:          "is_forecast",
	ColForecastGeneratedAt: "forecast_generated_at",
}

var columnsByName = func() map[string]Column {
	m := make(map[string]Column, numColumns)
	for c := Column(0); c < numColumns; c++ {
		m[columnNames[c]] = c
	}
	return m
}()

// String returns the column's wire name.
func (c Column) String() string {
	if c < 0 || c >= numColumns {
		return "unknown"
	}
	return columnNames[c]
}

// LookupColumn resolves a wire name to a Column.
func LookupColumn(name string) (Column, bool) {
	c, ok := columnsByName[name]
	return c, ok
}

// IsNumeric reports whether the column holds a float value in Row.Values.
func (c Column) IsNumeric() bool {
	return c >= ColDay && c < ColWeatherSymbol
}

// IsText reports whether the column holds a string in Row.Labels.
func (c Column) IsText() bool {
	return c == ColWeatherSymbol
}

// IsProvenance reports whether the column is one of the three columns stamped by Merge.
func (c Column) IsProvenance() bool {
	return c >= ColDataSource && c < numColumns
}
