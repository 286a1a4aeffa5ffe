package parquet

import (
	"github.com/harryeslick/weather-tools-sub000/internal/domain"
)

// Record is the parquet schema for one merged day. Every measurement is optional.
type Record struct {
	Location    string   `parquet:"name=location,type=BYTE_ARRAY,convertedtype=UTF8"`
	StationCode *string  `parquet:"name=station_code,type=BYTE_ARRAY,convertedtype=UTF8,repetitiontype=OPTIONAL"`
	Latitude    float64  `parquet:"name=latitude,type=DOUBLE"`
	Longitude   float64  `parquet:"name=longitude,type=DOUBLE"`
	Date        int64    `parquet:"name=date,type=INT64,convertedtype=TIMESTAMP_MILLIS"`
	Day         *int32   `parquet:"name=day,type=INT32,repetitiontype=OPTIONAL"`
	Year        *int32   `parquet:"name=year,type=INT32,repetitiontype=OPTIONAL"`

	DailyRain         *float64 `parquet:"name=daily_rain,type=DOUBLE,repetitiontype=OPTIONAL"`
	MonthlyRain       *float64 `parquet:"name=monthly_rain,type=DOUBLE,repetitiontype=OPTIONAL"`
	MaxTemp           *float64 `parquet:"name=max_temp,type=DOUBLE,repetitiontype=OPTIONAL"`
	MinTemp           *float64 `parquet:"name=min_temp,type=DOUBLE,repetitiontype=OPTIONAL"`
	VP                *float64 `parquet:"name=vp,type=DOUBLE,repetitiontype=OPTIONAL"`
	VPDeficit         *float64 `parquet:"name=vp_deficit,type=DOUBLE,repetitiontype=OPTIONAL"`
	RHTmax            *float64 `parquet:"name=rh_tmax,type=DOUBLE,repetitiontype=OPTIONAL"`
	RHTmin            *float64 `parquet:"name=rh_tmin,type=DOUBLE,repetitiontype=OPTIONAL"`
	MSLP              *float64 `parquet:"name=mslp,type=DOUBLE,repetitiontype=OPTIONAL"`
	EvapPan           *float64 `parquet:"name=evap_pan,type=DOUBLE,repetitiontype=OPTIONAL"`
	EvapSyn           *float64 `parquet:"name=evap_syn,type=DOUBLE,repetitiontype=OPTIONAL"`
	EvapComb          *float64 `parquet:"name=evap_comb,type=DOUBLE,repetitiontype=OPTIONAL"`
	EvapMortonLake    *float64 `parquet:"name=evap_morton_lake,type=DOUBLE,repetitiontype=OPTIONAL"`
	Radiation         *float64 `parquet:"name=radiation,type=DOUBLE,repetitiontype=OPTIONAL"`
	ETShortCrop       *float64 `parquet:"name=et_short_crop,type=DOUBLE,repetitiontype=OPTIONAL"`
	ETTallCrop        *float64 `parquet:"name=et_tall_crop,type=DOUBLE,repetitiontype=OPTIONAL"`
	ETMortonActual    *float64 `parquet:"name=et_morton_actual,type=DOUBLE,repetitiontype=OPTIONAL"`
	ETMortonPotential *float64 `parquet:"name=et_morton_potential,type=DOUBLE,repetitiontype=OPTIONAL"`
	ETMortonWet       *float64 `parquet:"name=et_morton_wet,type=DOUBLE,repetitiontype=OPTIONAL"`
	WindSpeed         *float64 `parquet:"name=wind_speed,type=DOUBLE,repetitiontype=OPTIONAL"`
	MaxWindSpeed      *float64 `parquet:"name=max_wind_speed,type=DOUBLE,repetitiontype=OPTIONAL"`
	CloudFraction     *float64 `parquet:"name=cloud_fraction,type=DOUBLE,repetitiontype=OPTIONAL"`
	DewPoint          *float64 `parquet:"name=dew_point,type=DOUBLE,repetitiontype=OPTIONAL"` // derived from vp
	WeatherSymbol     *string  `parquet:"name=weather_symbol,type=BYTE_ARRAY,convertedtype=UTF8,repetitiontype=OPTIONAL"`

	DataSource          *string `parquet:"name=data_source,type=BYTE_ARRAY,convertedtype=UTF8,repetitiontype=OPTIONAL"`
	IsForecast          *bool   `parquet:"name=is_forecast,type=BOOLEAN,repetitiontype=OPTIONAL"`
	ForecastGeneratedAt *int64  `parquet:"name=forecast_generated_at,type=INT64,convertedtype=TIMESTAMP_MILLIS,repetitiontype=OPTIONAL"`
}

// slot returns the field holding column c, or nil for columns outside the schema.
// Forecast-native columns are not stored; merged series only carry canonical names.
func (r *Record) slot(c domain.Column) **float64 {
	switch c {
	case domain.ColDailyRain:
		return &r.DailyRain
	case domain.ColMonthlyRain:
		return &r.MonthlyRain
	case domain.ColMaxTemp:
		return &r.MaxTemp
	case domain.ColMinTemp:
		return &r.MinTemp
	case domain.ColVP:
		return &r.VP
	case domain.ColVPDeficit:
		return &r.VPDeficit
	case domain.ColRHTmax:
		return &r.RHTmax
	case domain.ColRHTmin:
		return &r.RHTmin
	case domain.ColMSLP:
		return &r.MSLP
	case domain.ColEvapPan:
		return &r.EvapPan
	case domain.ColEvapSyn:
		return &r.EvapSyn
	case domain.ColEvapComb:
		return &r.EvapComb
	case domain.ColEvapMortonLake:
		return &r.EvapMortonLake
	case domain.ColRadiation:
		return &r.Radiation
	case domain.ColETShortCrop:
		return &r.ETShortCrop
	case domain.ColETTallCrop:
		return &r.ETTallCrop
	case domain.ColETMortonActual:
		return &r.ETMortonActual
	case domain.ColETMortonPotential:
		return &r.ETMortonPotential
	case domain.ColETMortonWet:
		return &r.ETMortonWet
	case domain.ColWindSpeed:
		return &r.WindSpeed
	case domain.ColMaxWindSpeed:
		return &r.MaxWindSpeed
	case domain.ColCloudFraction:
		return &r.CloudFraction
	}
	return nil
}

func newRecord(loc domain.Location, cols []domain.Column, row domain.Row) Record {
	r := Record{
		Location:  loc.Name,
		Latitude:  loc.Lat,
		Longitude: loc.Lon,
		Date:      row.Date.UnixMilli(),
	}
	if loc.StationCode != "" {
		code := loc.StationCode
		r.StationCode = &code
	}
	if v, ok := row.Value(domain.ColDay); ok {
		d := int32(v)
		r.Day = &d
	}
	if v, ok := row.Value(domain.ColYear); ok {
		y := int32(v)
		r.Year = &y
	}
	for _, c := range cols {
		slot := r.slot(c)
		if slot == nil {
			continue
		}
		if v, ok := row.Value(c); ok {
			*slot = &v
		}
	}
	if sym, ok := row.Label(domain.ColWeatherSymbol); ok {
		r.WeatherSymbol = &sym
	}
	if r.VP != nil && *r.VP > 0 {
		dp := domain.DewPointFromVaporPressure(*r.VP)
		r.DewPoint = &dp
	}
	if p := row.Provenance; p != nil {
		src := string(p.Source)
		fc := p.IsForecast()
		r.DataSource = &src
		r.IsForecast = &fc
		if p.GeneratedAt != nil {
			ms := p.GeneratedAt.UnixMilli()
			r.ForecastGeneratedAt = &ms
		}
	}
	return r
}
