package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_merge"

// Metrics holds the Prometheus counters, histograms, and gauges for merge runs.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec // labels: outcome={success,error}
	RunDuration     prometheus.Histogram
	SchedulerActive prometheus.Gauge

	// Per-location merge results.
	MergesTotal   *prometheus.CounterVec // labels: location, outcome={success,validation,error}
	MergedRecords *prometheus.CounterVec // labels: source={historical,forecast}
	ForecastDays  *prometheus.GaugeVec   // labels: location

	// Upstream fetches.
	FetchRequests *prometheus.CounterVec   // labels: source={silo,metno}, outcome={success,error}
	FetchDuration *prometheus.HistogramVec // labels: source
	ForecastCache *prometheus.CounterVec   // labels: result={hit,miss}

	// Sinks.
	RecordsPublished prometheus.Counter
	FilesExported    prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.SchedulerActive,
		m.MergesTotal,
		m.MergedRecords,
		m.ForecastDays,
		m.FetchRequests,
		m.FetchDuration,
		m.ForecastCache,
		m.RecordsPublished,
		m.FilesExported,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid "already registered"
// panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Scheduled merge runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-merge-publish run over all locations.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		SchedulerActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_active",
			Help:      "1 when the scheduler is running, 0 when stopped.",
		}),
		MergesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merges_total",
			Help:      "Merges by location and outcome.",
		}, []string{"location", "outcome"}),
		MergedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merged_records_total",
			Help:      "Records emitted by successful merges, by source.",
		}, []string{"source"}),
		ForecastDays: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "forecast_days",
			Help:      "Forecast days in the latest merge per location.",
		}, []string{"location"}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Upstream fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Upstream fetch duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		ForecastCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_cache_total",
			Help:      "Forecast response cache lookups by result.",
		}, []string{"result"}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_published_total",
			Help:      "Merged records written to Kafka.",
		}),
		FilesExported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_exported_total",
			Help:      "Parquet files written.",
		}),
	}
}
