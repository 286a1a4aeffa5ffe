package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"
)

// Runner is the job the scheduler repeats.
type Runner interface {
	RunAll(ctx context.Context) error
}

// Scheduler repeats a Runner on a fixed interval. The first run starts immediately
// and runs never overlap.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	interval  time.Duration
	timeout   time.Duration
}

// NewScheduler creates a scheduler. Each run is cancelled after timeout; zero means
// one interval.
func NewScheduler(runner Runner, interval, timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = interval
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    runner,
		interval:  interval,
		timeout:   timeout,
	}
}

// Run starts the schedule and blocks until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context, s *Scheduler) error {
	p.metrics.SchedulerActive.Set(1)
	defer p.metrics.SchedulerActive.Set(0)

	p.logger.Info("scheduler started", "interval", s.interval, "locations", len(p.settings.Locations))
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	p.logger.Info("scheduler stopping", "reason", ctx.Err())
	return nil
}

// Start schedules the job. Runs receive a context derived from ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		return errors.New("schedule interval must be at least one minute")
	}

	_, err := s.scheduler.Every(minutes).Minutes().SingletonMode().Do(func() {
		runCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		// Failures are logged and counted by the runner.
		_ = s.runner.RunAll(runCtx)
	})
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop cancels future runs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
