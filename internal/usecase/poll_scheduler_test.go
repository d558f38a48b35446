package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/focus-tracker/internal/platform/logging"
)

type blockingRunner struct {
	calls   atomic.Int32
	release chan struct{}
	started chan struct{}
}

func (r *blockingRunner) RunCycle(ctx context.Context) (CycleReport, error) {
	r.calls.Add(1)
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
		}
	}
	return CycleReport{}, nil
}

func TestPollScheduler_SkipsTickWhileCycleRuns(t *testing.T) {
	t.Parallel()

	runner := &blockingRunner{release: make(chan struct{}), started: make(chan struct{}, 1)}
	scheduler, err := NewPollScheduler(runner, PollSchedulerConfig{Interval: time.Hour}, logging.NewNop())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	defer scheduler.pool.Release()

	ctx := context.Background()
	if !scheduler.trigger(ctx) {
		t.Fatalf("expected first tick to be accepted")
	}
	<-runner.started

	if scheduler.trigger(ctx) {
		t.Fatalf("expected overlapping tick to be skipped")
	}

	close(runner.release)
	scheduler.active.Wait()
	if got := runner.calls.Load(); got != 1 {
		t.Fatalf("expected one cycle, got %d", got)
	}
}

func TestPollScheduler_RunsAfterInitialDelayAndStops(t *testing.T) {
	t.Parallel()

	runner := &blockingRunner{started: make(chan struct{}, 16)}
	scheduler, err := NewPollScheduler(runner, PollSchedulerConfig{Interval: 10 * time.Millisecond, InitialDelay: time.Millisecond}, logging.NewNop())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- scheduler.Run(ctx) }()

	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a cycle after the initial delay")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("scheduler did not stop")
	}
}

func TestNewPollScheduler_RequiresRunner(t *testing.T) {
	t.Parallel()

	if _, err := NewPollScheduler(nil, PollSchedulerConfig{}, nil); err == nil {
		t.Fatalf("expected error for nil runner")
	}
}
