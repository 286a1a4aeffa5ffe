// Command weathermerge periodically merges SILO history with met.no forecasts for
// each configured location and publishes the merged rows.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/harryeslick/weather-tools-sub000/internal/adapter/cache"
	httpadapter "github.com/harryeslick/weather-tools-sub000/internal/adapter/http"
	kafkaadapter "github.com/harryeslick/weather-tools-sub000/internal/adapter/kafka"
	"github.com/harryeslick/weather-tools-sub000/internal/adapter/metno"
	"github.com/harryeslick/weather-tools-sub000/internal/adapter/parquet"
	"github.com/harryeslick/weather-tools-sub000/internal/adapter/resilient"
	"github.com/harryeslick/weather-tools-sub000/internal/adapter/silo"
	"github.com/harryeslick/weather-tools-sub000/internal/config"
	"github.com/harryeslick/weather-tools-sub000/internal/observability"
	"github.com/harryeslick/weather-tools-sub000/internal/pipeline"
)

// forecastCacheSize bounds cached met.no responses; one per location is enough.
const forecastCacheSize = 256

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}
	history := silo.NewClient(cfg.SiloBaseURL, cfg.SiloAPIKey,
		resilient.New("silo", httpClient, resilient.DefaultBackoff), nil, metrics, logger)
	forecast := metno.NewClient(cfg.MetnoBaseURL, cfg.MetnoUserAgent,
		resilient.New("metno", httpClient, resilient.DefaultBackoff),
		cache.NewLRU(forecastCacheSize, cfg.MetnoCacheTTL, nil), metrics, logger)

	// Nil interfaces disable the optional sinks.
	var (
		publisher pipeline.Publisher
		exporter  pipeline.Exporter
		writer    *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}
	if cfg.ExportDir != "" {
		exporter = parquet.NewExporter(cfg.ExportDir, logger)
		logger.Info("parquet export enabled", "dir", cfg.ExportDir)
	}

	p := pipeline.New(history, forecast, publisher, exporter, pipeline.Settings{
		Locations:    cfg.Locations,
		HistoryDays:  cfg.HistoryDays,
		ForecastDays: cfg.ForecastDays,
		Merge:        cfg.MergeOptions(),
	}, logger, metrics)
	scheduler := pipeline.NewScheduler(p, cfg.ScheduleInterval, 0)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start merge schedule.
	go func() {
		if err := p.Run(ctx, scheduler); err != nil {
			logger.Error("scheduler error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
