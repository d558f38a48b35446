package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/focus-tracker/internal/domain/cursor"
	"github.com/riskibarqy/focus-tracker/internal/domain/streak"
	"github.com/riskibarqy/focus-tracker/internal/domain/tracking"
	"github.com/riskibarqy/focus-tracker/internal/platform/id"
	"github.com/riskibarqy/focus-tracker/internal/platform/logging"
)

const saveTimeout = 10 * time.Second

type PollConfig struct {
	BatchSize       int
	HistorySize     int
	MatchDelay      time.Duration
	EntityDelay     time.Duration
	GroupDelay      time.Duration
	RateLimitNotice bool
}

// PollMetrics receives cycle-level counters. Implemented by observability.Metrics.
type PollMetrics interface {
	ObserveCycle(report CycleReport, outcome string)
	IncAlert(kind string)
	IncNotification(kind string, failed bool)
}

type CycleReport struct {
	CycleID    string        `json:"cycleId"`
	Groups     int           `json:"groups"`
	Entities   int           `json:"entities"`
	NewMatches int           `json:"newMatches"`
	Alerts     int           `json:"alerts"`
	Skipped    int           `json:"skipped"`
	Failures   int           `json:"failures"`
	Saved      int           `json:"saved"`
	Duration   time.Duration `json:"duration"`
}

// PollService runs poll cycles: detect new matches per tracked player, score
// them, raise streak alerts and persist the advanced state.
type PollService struct {
	repo     tracking.Repository
	provider GameDataProvider
	notifier Notifier
	ids      id.Generator
	metrics  PollMetrics
	cfg      PollConfig
	logger   *logging.Logger
	locks    *GroupLocker

	running atomic.Bool
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewPollService(
	repo tracking.Repository,
	provider GameDataProvider,
	notifier Notifier,
	ids id.Generator,
	locks *GroupLocker,
	cfg PollConfig,
	metrics PollMetrics,
	logger *logging.Logger,
) *PollService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if metrics == nil {
		metrics = noopPollMetrics{}
	}
	if locks == nil {
		locks = NewGroupLocker()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = tracking.DefaultBatchSize
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = tracking.DefaultHistorySize
	}

	return &PollService{
		repo:     repo,
		provider: provider,
		notifier: notifier,
		ids:      ids,
		locks:    locks,
		metrics:  metrics,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// InProgress reports whether a cycle is currently running.
func (s *PollService) InProgress() bool {
	return s.running.Load()
}

// RunCycle polls every pollable group once. An overlapping call returns
// ErrCycleInProgress without doing any work. Without provider credentials
// every attempt logs once and returns ErrMissingCredentials.
func (s *PollService) RunCycle(ctx context.Context) (report CycleReport, err error) {
	if !s.provider.Configured() {
		s.logger.ErrorContext(ctx, "poll cycle skipped: game data api key missing")
		return CycleReport{}, ErrMissingCredentials
	}
	if !s.running.CompareAndSwap(false, true) {
		return CycleReport{}, ErrCycleInProgress
	}
	defer s.running.Store(false)

	ctx, span := startUsecaseSpan(ctx, "usecase.PollService.RunCycle")
	defer span.End()

	start := s.now()
	report.CycleID = s.newCycleID(start)
	logger := s.logger.With("cycle_id", report.CycleID)
	defer func() {
		report.Duration = s.now().Sub(start)
		outcome := cycleOutcome(err)
		s.metrics.ObserveCycle(report, outcome)
		logger.InfoContext(ctx, "poll cycle finished",
			"outcome", outcome,
			"groups", report.Groups,
			"entities", report.Entities,
			"new_matches", report.NewMatches,
			"alerts", report.Alerts,
			"skipped", report.Skipped,
			"failures", report.Failures,
			"saved", report.Saved,
			"duration_ms", report.Duration.Milliseconds(),
		)
	}()

	groups, err := s.repo.ListGroups(ctx)
	if err != nil {
		return report, fmt.Errorf("list tracked groups: %w", err)
	}

	for _, group := range groups {
		if !group.Pollable() {
			continue
		}
		if report.Groups > 0 {
			if err := s.sleep(ctx, s.cfg.GroupDelay); err != nil {
				return report, err
			}
		}
		report.Groups++

		if err := s.pollGroup(ctx, logger, group.ID, &report); err != nil {
			return report, err
		}
	}

	return report, nil
}

// pollGroup re-reads the group under its lock so concurrent tracking commands are not overwritten.
func (s *PollService) pollGroup(ctx context.Context, logger *logging.Logger, groupID string, report *CycleReport) error {
	logger = logger.With("group_id", groupID)

	unlock := s.locks.Lock(groupID)
	defer unlock()

	group, found, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		report.Failures++
		logger.ErrorContext(ctx, "load tracked group failed", "error", err)
		return nil
	}
	if !found || !group.Pollable() {
		return nil
	}

	changed := false

	var interrupted error
	for i := range group.Entities {
		if i > 0 {
			if err := s.sleep(ctx, s.cfg.EntityDelay); err != nil {
				interrupted = err
				break
			}
		}
		report.Entities++

		entityChanged, err := s.pollEntity(ctx, logger, group.SinkID, &group.Entities[i], report)
		changed = changed || entityChanged
		if err != nil {
			interrupted = err
			break
		}
	}

	if changed {
		group.UpdatedAt = s.now().UTC()
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
		if err := s.repo.Save(saveCtx, group); err != nil {
			logger.ErrorContext(ctx, "save tracked group failed", "error", err)
		} else {
			report.Saved++
		}
		cancel()
	}

	return interrupted
}

// pollEntity processes one player. The returned error is only set when ctx is done.
func (s *PollService) pollEntity(ctx context.Context, logger *logging.Logger, sinkID string, entity *tracking.Entity, report *CycleReport) (bool, error) {
	current, err := s.provider.ListRecentMatchIDs(ctx, entity.ExternalID, s.cfg.BatchSize, entity.RoutingKey)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		report.Failures++
		kind := KindOf(err)
		logger.WarnContext(ctx, "list recent matches failed", "player", entity.DisplayName, "kind", kind, "error", err)
		if kind == KindRateLimited && s.cfg.RateLimitNotice {
			s.notify(ctx, logger, sinkID, RenderRateLimitNotice(entity.DisplayName))
		}
		return false, nil
	}

	step := cursor.Plan(entity.LastSeen, current, s.cfg.BatchSize)
	changed := cursor.Changed(entity.LastSeen, step.NextLastSeen)
	if step.Initial {
		entity.LastSeen = step.NextLastSeen
		logger.InfoContext(ctx, "seeded match cursor", "player", entity.DisplayName, "ids", len(step.NextLastSeen))
		return changed, nil
	}

	for i, matchID := range step.NewIDs {
		if i > 0 {
			if err := s.sleep(ctx, s.cfg.MatchDelay); err != nil {
				return s.interruptEntity(entity, step, i, changed), err
			}
		}

		analyzed, err := analyzeMatch(ctx, s.provider, *entity, matchID)
		if err != nil {
			if ctx.Err() != nil {
				return s.interruptEntity(entity, step, i, changed), ctx.Err()
			}
			report.Skipped++
			logSkippedMatch(ctx, logger, *entity, matchID, err)
			continue
		}

		entity.PushRecord(analyzed.Record, s.cfg.HistorySize)
		changed = true
		report.NewMatches++
		s.notify(ctx, logger, sinkID, RenderMatch(entity.DisplayName, analyzed.Detail, analyzed.Participant, analyzed.Record, OriginPoll))

		before := entity.Flags
		alerts := streak.Evaluate(entity.History, &entity.Flags)
		if entity.Flags != before {
			changed = true
		}
		for _, alert := range alerts {
			report.Alerts++
			s.metrics.IncAlert(string(alert.Kind))
			s.notify(ctx, logger, sinkID, RenderAlert(entity.DisplayName, alert))
		}
	}

	entity.LastSeen = step.NextLastSeen
	return changed, nil
}

// interruptEntity advances the cursor past the ids processed before cancellation
// so the next cycle picks up exactly the remaining ones.
func (s *PollService) interruptEntity(entity *tracking.Entity, step cursor.Step, processed int, changed bool) bool {
	if processed == 0 {
		return changed
	}
	remaining := make(map[string]struct{}, len(step.NewIDs)-processed)
	for _, matchID := range step.NewIDs[processed:] {
		remaining[matchID] = struct{}{}
	}
	next := make([]string, 0, len(step.NextLastSeen))
	for _, matchID := range step.NextLastSeen {
		if _, skip := remaining[matchID]; !skip {
			next = append(next, matchID)
		}
	}
	entity.LastSeen = next
	return true
}

func (s *PollService) notify(ctx context.Context, logger *logging.Logger, sinkID string, msg Message) {
	err := s.notifier.Send(ctx, sinkID, msg)
	s.metrics.IncNotification(string(msg.Kind), err != nil)
	if err != nil {
		logger.WarnContext(ctx, "send notification failed", "sink_id", sinkID, "kind", msg.Kind, "error", err)
	}
}

func (s *PollService) newCycleID(start time.Time) string {
	cycleID, err := s.ids.NewID()
	if err != nil {
		s.logger.Warn("generate cycle id failed, using timestamp", "error", err)
		return strconv.FormatInt(start.UnixNano(), 10)
	}
	return cycleID
}

func cycleOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
