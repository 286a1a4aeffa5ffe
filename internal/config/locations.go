package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/harryeslick/weather-tools-sub000/internal/domain"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

type locationsFile struct {
	Locations []domain.Location `yaml:"locations"`
}

// LoadLocations reads and validates the YAML locations file.
//
//	locations:
//	  - name: toowoomba
//	    station_code: "41529"
//	    lat: -27.56
//	    lon: 151.95
func LoadLocations(path string) ([]domain.Location, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locations file: %w", err)
	}
	return ParseLocations(data)
}

// ParseLocations decodes and validates locations from YAML.
func ParseLocations(data []byte) ([]domain.Location, error) {
	var f locationsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode locations: %w", err)
	}
	if len(f.Locations) == 0 {
		return nil, errors.New("locations file lists no locations")
	}

	seen := make(map[string]bool, len(f.Locations))
	for i, loc := range f.Locations {
		if err := validate.Struct(loc); err != nil {
			return nil, fmt.Errorf("location %d (%s): %w", i+1, loc.Name, err)
		}
		if seen[loc.Name] {
			return nil, fmt.Errorf("duplicate location name %q", loc.Name)
		}
		seen[loc.Name] = true
	}
	return f.Locations, nil
}
