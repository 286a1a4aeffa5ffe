package domain

import "fmt"

// Location is a point the service merges data for. Historical data comes from the
// SILO station when StationCode is set, otherwise from the grid cell at Lat/Lon.
type Location struct {
	Name        string  `yaml:"name" validate:"required"`
	StationCode string  `yaml:"station_code" validate:"omitempty,numeric"`
	Lat         float64 `yaml:"lat" validate:"gte=-44,lte=-10"`
	Lon         float64 `yaml:"lon" validate:"gte=113,lte=154"`
	Altitude    *int    `yaml:"altitude,omitempty" validate:"omitempty,gte=-500,lte=9000"`
}

// Key identifies the location in logs, metrics and message keys.
func (l Location) Key() string {
	if l.StationCode != "" {
		return fmt.Sprintf("%s/station-%s", l.Name, l.StationCode)
	}
	return fmt.Sprintf("%s/%.4f,%.4f", l.Name, l.Lat, l.Lon)
}
