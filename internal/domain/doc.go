// Package domain merges a historical daily climate series with a short-range
// daily forecast into one source-tagged series per location.
//
// # Sources
//
// Historical data comes from the SILO archive (Queensland Government, Long
// Paddock). SILO serves gap-filled station data (PatchedPoint) and interpolated
// grid data (DataDrill) from 1889 onwards. Its column names are the canonical
// schema used throughout this package, e.g. "daily_rain", "max_temp", "vp".
//
// Forecast data comes from the met.no Locationforecast 2.0 API, aggregated from
// hourly steps to daily values. Its native names differ: "min_temperature",
// "total_precipitation", "avg_relative_humidity".
//
// # Schema
//
// Columns are an enumerated type (Column). String names are only resolved at the
// boundary via LookupColumn and ParseTable; merge logic works on Column values.
// A null cell is an absent key in Row.Values.
//
// # Merge
//
// Merge runs, in order:
//
//	1. copy + sort both inputs by date
//	2. optional compatibility check (CheckCompatibility)
//	3. overlap resolution (prefer_historical, prefer_forecast, error)
//	4. forecast normalization: rename, derive vp from RH, add day/year
//	5. optional backfill of historical-only variables
//	6. provenance stamping (data_source, is_forecast, forecast_generated_at)
//	7. column alignment, concatenation, re-sort
//
// Failures happen before step 6, so a failed merge produces nothing.
//
// # Units
//
//	Temperature: °C
//	Rain / evaporation / evapotranspiration: mm
//	Vapour pressure / deficit / MSLP: hPa
//	Radiation: MJ/m²
//	Relative humidity / cloud fraction: %
//	Wind: m/s
package domain
