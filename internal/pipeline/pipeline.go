// Package pipeline runs scheduled fetch-merge-publish cycles for each configured
// location.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/google/uuid"
	"github.com/harryeslick/weather-tools-sub000/internal/domain"
	"github.com/harryeslick/weather-tools-sub000/internal/observability"
	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"
)

// HistoricalSource returns observed daily data for an inclusive date range.
type HistoricalSource interface {
	FetchHistorical(ctx context.Context, loc domain.Location, start, end time.Time) (domain.Series, error)
}

// ForecastSource returns up to days of daily forecast, in either naming scheme.
type ForecastSource interface {
	FetchForecast(ctx context.Context, loc domain.Location, days int) (domain.Series, error)
}

// Publisher sends merged rows downstream.
type Publisher interface {
	Publish(ctx context.Context, runID string, loc domain.Location, s domain.Series) error
}

// Exporter persists a merged series and returns where it was written.
type Exporter interface {
	Export(loc domain.Location, s domain.Series) (string, error)
}

// Settings controls what each run fetches and how it merges.
type Settings struct {
	Locations    []domain.Location
	HistoryDays  int
	ForecastDays int
	Merge        domain.Options
}

// Result is the outcome of the latest run for one location.
type Result struct {
	Location   string          `json:"location"`
	RunID      string          `json:"run_id"`
	FinishedAt time.Time       `json:"finished_at"`
	Summary    *domain.Summary `json:"summary,omitempty"`
	ExportPath string          `json:"export_path,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Pipeline orchestrates fetch, merge, publish and export.
type Pipeline struct {
	hist      HistoricalSource
	forecast  ForecastSource
	publisher Publisher // nil disables publishing
	exporter  Exporter  // nil disables export
	settings  Settings
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	ready     atomic.Bool

	mu      sync.RWMutex
	results map[string]Result
}

// New creates a Pipeline. publisher and exporter may be nil.
func New(hist HistoricalSource, fc ForecastSource, publisher Publisher, exporter Exporter, settings Settings, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		hist:      hist,
		forecast:  fc,
		publisher: publisher,
		exporter:  exporter,
		settings:  settings,
		logger:    logger,
		metrics:   metrics,
		clock:     clockwork.NewRealClock(),
		results:   make(map[string]Result),
	}
}

// SetClock replaces the clock used to pick date ranges. Tests only.
func (p *Pipeline) SetClock(c clockwork.Clock) {
	p.clock = c
}

// CheckReadiness returns nil once a run has merged at least one location.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no location has been merged yet")
	}
	return nil
}

// Window returns the historical date range for a run at now. History ends
// yesterday because the current day is not yet observed.
func (p *Pipeline) Window(now time.Time) (start, end time.Time) {
	end = domain.NormalizeDate(now).AddDate(0, 0, -1)
	start = end.AddDate(0, 0, -(p.settings.HistoryDays - 1))
	return start, end
}

// RunAll merges every configured location under a fresh run ID. A failing location
// does not stop the others; all failures are returned together.
func (p *Pipeline) RunAll(ctx context.Context) error {
	runID := uuid.NewString()
	start := time.Now()
	p.logger.Info("merge run started", "run_id", runID, "locations", len(p.settings.Locations))

	var result *multierror.Error
	for _, loc := range p.settings.Locations {
		if ctx.Err() != nil {
			result = multierror.Append(result, ctx.Err())
			break
		}
		if _, err := p.RunOnce(ctx, runID, loc); err != nil {
			result = multierror.Append(result, err)
		}
	}

	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	err := result.ErrorOrNil()
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		p.logger.Error("merge run finished with errors", "run_id", runID, "error", err)
		return err
	}
	p.metrics.RunsTotal.WithLabelValues("success").Inc()
	p.logger.Info("merge run finished", "run_id", runID, "duration", time.Since(start))
	return nil
}

// RunOnce fetches, merges and delivers one location. The latest result is kept for
// Summaries either way.
func (p *Pipeline) RunOnce(ctx context.Context, runID string, loc domain.Location) (domain.Series, error) {
	logger := p.logger.With("location", loc.Key(), "run_id", runID)
	res := Result{Location: loc.Name, RunID: runID}

	merged, err := p.merge(ctx, loc, logger)
	if err == nil {
		summary := domain.Summarize(merged)
		res.Summary = &summary
		p.record(loc, summary)
		logger.Info("location merged",
			"records", summary.TotalRecords,
			"historical", summary.HistoricalRecords,
			"forecast", summary.ForecastRecords,
		)
		res.ExportPath, err = p.deliver(ctx, runID, loc, merged)
	} else {
		outcome := "error"
		if errors.Is(err, domain.ErrValidation) {
			outcome = "validation"
		}
		p.metrics.MergesTotal.WithLabelValues(loc.Name, outcome).Inc()
	}

	res.FinishedAt = p.clock.Now()
	if err != nil {
		res.Error = err.Error()
		logger.Error("location failed", "error", err)
	}
	p.mu.Lock()
	p.results[loc.Name] = res
	p.mu.Unlock()

	if err != nil {
		return domain.Series{}, fmt.Errorf("%s: %w", loc.Key(), err)
	}
	return merged, nil
}

func (p *Pipeline) merge(ctx context.Context, loc domain.Location, logger *slog.Logger) (domain.Series, error) {
	start, end := p.Window(p.clock.Now())

	hist, err := p.hist.FetchHistorical(ctx, loc, start, end)
	if err != nil {
		return domain.Series{}, err
	}
	fc, err := p.forecast.FetchForecast(ctx, loc, p.settings.ForecastDays)
	if err != nil {
		return domain.Series{}, err
	}

	if ok, msg := domain.CheckDateContinuity(hist, fc, 1); !ok {
		logger.Warn("historical and forecast data are not contiguous", "detail", msg)
	}
	if d, ok := domain.TransitionDateFor(hist); ok {
		logger.Debug("transition date", "date", d.Format(domain.DateLayout))
	}

	return domain.Merge(hist, fc, p.settings.Merge)
}

func (p *Pipeline) record(loc domain.Location, s domain.Summary) {
	p.ready.Store(true)
	p.metrics.MergesTotal.WithLabelValues(loc.Name, "success").Inc()
	p.metrics.MergedRecords.WithLabelValues(string(domain.SourceHistorical)).Add(float64(s.HistoricalRecords))
	p.metrics.MergedRecords.WithLabelValues(string(domain.SourceForecast)).Add(float64(s.ForecastRecords))
	p.metrics.ForecastDays.WithLabelValues(loc.Name).Set(float64(s.ForecastRecords))
}

// deliver publishes and exports merged. Publishing retries with backoff.
func (p *Pipeline) deliver(ctx context.Context, runID string, loc domain.Location, merged domain.Series) (string, error) {
	var path string
	if p.publisher != nil {
		if err := p.publish(ctx, runID, loc, merged); err != nil {
			return "", err
		}
		p.metrics.RecordsPublished.Add(float64(merged.Len()))
	}
	if p.exporter != nil {
		var err error
		path, err = p.exporter.Export(loc, merged)
		if err != nil {
			return "", fmt.Errorf("export: %w", err)
		}
		p.metrics.FilesExported.Inc()
	}
	return path, nil
}

const publishAttempts = 3

func (p *Pipeline) publish(ctx context.Context, runID string, loc domain.Location, merged domain.Series) error {
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	var err error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		if err = p.publisher.Publish(ctx, runID, loc, merged); err == nil {
			return nil
		}
		if attempt == publishAttempts {
			break
		}
		p.logger.Warn("publish failed, retrying", "location", loc.Key(), "attempt", attempt, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
	return fmt.Errorf("publish: %w", err)
}

// Summaries returns the latest result per location, sorted by location name.
func (p *Pipeline) Summaries() []Result {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Result, 0, len(p.results))
	for _, r := range p.results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out
}

// Summary returns the latest result for one location.
func (p *Pipeline) Summary(name string) (Result, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.results[name]
	return r, ok
}
