package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/harryeslick/weather-tools-sub000/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var toowoomba = domain.Location{Name: "toowoomba", StationCode: "41529", Lat: -27.5598, Lon: 151.9507}

func header(msg kafkago.Message, key string) (string, bool) {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value), true
		}
	}
	return "", false
}

func TestSerializeToMessage_Forecast(t *testing.T) {
	generated := time.Date(2023, 1, 11, 6, 30, 0, 0, time.UTC)
	row := domain.Row{
		Date:       time.Date(2023, 1, 12, 0, 0, 0, 0, time.UTC),
		Values:     map[domain.Column]float64{domain.ColMaxTemp: 26},
		Labels:     map[domain.Column]string{domain.ColWeatherSymbol: "rainshowers_day"},
		Provenance: &domain.Provenance{Source: domain.SourceForecast, GeneratedAt: &generated},
	}
	cols := []domain.Column{domain.ColDate, domain.ColMaxTemp, domain.ColRadiation, domain.ColWeatherSymbol,
		domain.ColDataSource, domain.ColIsForecast, domain.ColForecastGeneratedAt}

	msg, err := serializeToMessage("run-1", toowoomba, cols, row)
	require.NoError(t, err)

	assert.Equal(t, "toowoomba/station-41529/2023-01-12", string(msg.Key))
	assert.JSONEq(t, `{
		"date": "2023-01-12",
		"max_temp": 26,
		"radiation": null,
		"weather_symbol": "rainshowers_day",
		"data_source": "forecast",
		"is_forecast": true,
		"forecast_generated_at": "2023-01-11T06:30:00Z",
		"location": "toowoomba",
		"station_code": "41529",
		"lat": -27.5598,
		"lon": 151.9507,
		"run_id": "run-1"
	}`, string(msg.Value))

	v, ok := header(msg, "data_source")
	assert.True(t, ok)
	assert.Equal(t, "forecast", v)
	v, ok = header(msg, "generated_at")
	assert.True(t, ok)
	assert.Equal(t, generated.Format(time.RFC3339), v)
	v, _ = header(msg, "run_id")
	assert.Equal(t, "run-1", v)
}

func TestSerializeToMessage_Historical(t *testing.T) {
	row := domain.Row{
		Date:       time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Values:     map[domain.Column]float64{domain.ColDailyRain: 3.2},
		Provenance: &domain.Provenance{Source: domain.SourceHistorical},
	}
	grid := domain.Location{Name: "paddock", Lat: -27.5, Lon: 151.25}

	msg, err := serializeToMessage("run-2", grid, []domain.Column{domain.ColDate, domain.ColDailyRain}, row)
	require.NoError(t, err)

	assert.Equal(t, "paddock/-27.5000,151.2500/2023-01-01", string(msg.Key))
	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.NotContains(t, body, "station_code")
	assert.InDelta(t, 3.2, body["daily_rain"], 1e-9)
	assert.NotContains(t, body, "weather_symbol")

	_, ok := header(msg, "generated_at")
	assert.False(t, ok)
	v, _ := header(msg, "location")
	assert.Equal(t, grid.Key(), v)
}
