package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/harryeslick/weather-tools-sub000/internal/domain"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers    []string
	KafkaTopic      string
	KafkaEnabled    bool
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Upstream sources.
	SiloAPIKey        string
	SiloBaseURL       string
	MetnoUserAgent    string
	MetnoBaseURL      string
	MetnoCacheTTL     time.Duration
	HTTPClientTimeout time.Duration

	// Merge run.
	Locations        []domain.Location
	ScheduleInterval time.Duration
	HistoryDays      int
	ForecastDays     int
	OverlapPolicy    domain.OverlapPolicy
	FillMissing      bool
	FillStrategy     domain.FillStrategy
	ExportDir        string
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cacheTTL, err := parseDuration("METNO_CACHE_TTL", "1h")
	if err != nil {
		return nil, err
	}
	clientTimeout, err := parseDuration("HTTP_CLIENT_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	interval, err := parseDuration("SCHEDULE_INTERVAL", "6h")
	if err != nil {
		return nil, err
	}
	if interval < time.Minute {
		return nil, errors.New("SCHEDULE_INTERVAL must be at least 1m")
	}

	historyDays, err := parseInt("HISTORY_DAYS", 30)
	if err != nil {
		return nil, err
	}
	forecastDays, err := parseInt("FORECAST_DAYS", 9)
	if err != nil {
		return nil, err
	}
	if forecastDays < 1 || forecastDays > 9 {
		return nil, errors.New("FORECAST_DAYS must be between 1 and 9")
	}

	policy, err := domain.ParseOverlapPolicy(sharedcfg.EnvOrDefault("OVERLAP_POLICY", string(domain.PreferHistorical)))
	if err != nil {
		return nil, fmt.Errorf("OVERLAP_POLICY: %w", err)
	}

	cfg := &Config{
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "merged-weather-data"),
		KafkaEnabled:    sharedcfg.EnvOrDefault("KAFKA_ENABLED", "true") == "true",
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SiloAPIKey:        os.Getenv("SILO_API_KEY"),
		SiloBaseURL:       sharedcfg.EnvOrDefault("SILO_BASE_URL", "https://www.longpaddock.qld.gov.au/cgi-bin/silo"),
		MetnoUserAgent:    os.Getenv("METNO_USER_AGENT"),
		MetnoBaseURL:      sharedcfg.EnvOrDefault("METNO_BASE_URL", "https://api.met.no/weatherapi/locationforecast/2.0"),
		MetnoCacheTTL:     cacheTTL,
		HTTPClientTimeout: clientTimeout,

		ScheduleInterval: interval,
		HistoryDays:      historyDays,
		ForecastDays:     forecastDays,
		OverlapPolicy:    policy,
		FillMissing:      os.Getenv("FILL_MISSING") == "true",
		FillStrategy:     domain.FillStrategy(sharedcfg.EnvOrDefault("FILL_STRATEGY", string(domain.FillDefault))),
		ExportDir:        os.Getenv("EXPORT_DIR"),
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}
	if cfg.SiloAPIKey == "" {
		return nil, errors.New("SILO_API_KEY is required")
	}
	if cfg.MetnoUserAgent == "" {
		return nil, errors.New("METNO_USER_AGENT is required")
	}
	switch cfg.FillStrategy {
	case domain.FillDefault, domain.FillLastKnown, domain.FillMedian:
	default:
		return nil, fmt.Errorf("invalid FILL_STRATEGY %q", cfg.FillStrategy)
	}

	locationsFile := os.Getenv("LOCATIONS_FILE")
	if locationsFile == "" {
		return nil, errors.New("LOCATIONS_FILE is required")
	}
	cfg.Locations, err = LoadLocations(locationsFile)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// MergeOptions builds the domain merge options for a scheduled run.
func (c *Config) MergeOptions() domain.Options {
	opts := domain.DefaultOptions()
	opts.OverlapPolicy = c.OverlapPolicy
	opts.FillMissing = c.FillMissing
	opts.FillStrategy = c.FillStrategy
	return opts
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
