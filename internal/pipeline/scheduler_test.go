package pipeline_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harryeslick/weather-tools-sub000/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	calls    atomic.Int32
	deadline atomic.Bool
	done     chan struct{}
}

func (r *countingRunner) RunAll(ctx context.Context) error {
	_, ok := ctx.Deadline()
	r.deadline.Store(ok)
	if r.calls.Add(1) == 1 {
		close(r.done)
	}
	return nil
}

func TestScheduler_RunsImmediately(t *testing.T) {
	r := &countingRunner{done: make(chan struct{})}
	s := pipeline.NewScheduler(r, time.Hour, time.Second)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("first run did not start")
	}
	assert.Equal(t, int32(1), r.calls.Load())
	assert.True(t, r.deadline.Load(), "runs are bounded by the timeout")
}

func TestScheduler_RejectsShortInterval(t *testing.T) {
	s := pipeline.NewScheduler(&countingRunner{done: make(chan struct{})}, 30*time.Second, 0)
	assert.Error(t, s.Start(context.Background()))
}

func TestPipeline_Run_StopsOnCancel(t *testing.T) {
	p, metrics := newPipeline(t, &mockHistorical{}, &mockForecast{from: jan(11)}, nil, nil, settings(toowoomba))
	s := pipeline.NewScheduler(p, time.Hour, 0)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx, s) }()

	require.Eventually(t, func() bool { return p.CheckReadiness(context.Background()) == nil },
		2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Zero(t, testutil.ToFloat64(metrics.SchedulerActive))
}
