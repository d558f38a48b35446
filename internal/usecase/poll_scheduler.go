package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/riskibarqy/focus-tracker/internal/platform/logging"
)

// CycleRunner is satisfied by *PollService.
type CycleRunner interface {
	RunCycle(ctx context.Context) (CycleReport, error)
}

type PollSchedulerConfig struct {
	Interval     time.Duration
	InitialDelay time.Duration
}

// PollScheduler fires RunCycle on a fixed interval. Ticks go to a single-slot
// non-blocking pool, so a tick that lands while a cycle runs is dropped.
type PollScheduler struct {
	runner CycleRunner
	cfg    PollSchedulerConfig
	logger *logging.Logger
	pool   *ants.Pool
	active sync.WaitGroup
}

func NewPollScheduler(runner CycleRunner, cfg PollSchedulerConfig, logger *logging.Logger) (*PollScheduler, error) {
	if runner == nil {
		return nil, fmt.Errorf("%w: cycle runner is required", ErrInvalidInput)
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.InitialDelay < 0 {
		cfg.InitialDelay = 0
	}

	pool, err := ants.NewPool(1, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create scheduler pool: %w", err)
	}

	return &PollScheduler{
		runner: runner,
		cfg:    cfg,
		logger: logger,
		pool:   pool,
	}, nil
}

// Run blocks until ctx is done, then waits for the in-flight cycle to return.
func (s *PollScheduler) Run(ctx context.Context) error {
	defer s.pool.Release()
	defer s.active.Wait()

	s.logger.InfoContext(ctx, "poll scheduler started", "interval", s.cfg.Interval.String(), "initial_delay", s.cfg.InitialDelay.String())

	initial := time.NewTimer(s.cfg.InitialDelay)
	defer initial.Stop()
	select {
	case <-ctx.Done():
		return nil
	case <-initial.C:
	}
	s.trigger(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("poll scheduler stopping")
			return nil
		case <-ticker.C:
			s.trigger(ctx)
		}
	}
}

// trigger submits one cycle and reports whether it was accepted.
func (s *PollScheduler) trigger(ctx context.Context) bool {
	s.active.Add(1)
	err := s.pool.Submit(func() {
		defer s.active.Done()
		if _, err := s.runner.RunCycle(ctx); err != nil {
			switch {
			case errors.Is(err, ErrCycleInProgress):
				s.logger.WarnContext(ctx, "poll cycle skipped, previous cycle still running")
			case errors.Is(err, ErrMissingCredentials), errors.Is(err, context.Canceled):
			default:
				s.logger.ErrorContext(ctx, "poll cycle failed", "error", err)
			}
		}
	})
	if err != nil {
		s.active.Done()
		if errors.Is(err, ants.ErrPoolOverload) {
			s.logger.WarnContext(ctx, "poll tick skipped, previous cycle still running")
		} else {
			s.logger.ErrorContext(ctx, "submit poll cycle failed", "error", err)
		}
		return false
	}
	return true
}
