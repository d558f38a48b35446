package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/focus-tracker/internal/domain/cursor"
	"github.com/riskibarqy/focus-tracker/internal/domain/streak"
	"github.com/riskibarqy/focus-tracker/internal/domain/tracking"
	"github.com/riskibarqy/focus-tracker/internal/platform/logging"
)

const untrackAllLabel = "all"

var errUnknownRegion = errors.New("unknown region")

type TrackingConfig struct {
	BatchSize     int
	HistorySize   int
	MatchDelay    time.Duration
	DefaultRegion string
}

type TrackInput struct {
	GroupID       string
	Players       []string
	DefaultRegion string
}

type TrackStatus string

const (
	TrackStatusAdded     TrackStatus = "added"
	TrackStatusUpdated   TrackStatus = "updated"
	TrackStatusUnchanged TrackStatus = "unchanged"
	TrackStatusFailed    TrackStatus = "failed"
)

type TrackOutcome struct {
	Input       string      `json:"input"`
	DisplayName string      `json:"displayName,omitempty"`
	Region      string      `json:"region,omitempty"`
	Status      TrackStatus `json:"status"`
	Reason      string      `json:"reason,omitempty"`
	Games       int         `json:"games"`
}

type TrackResult struct {
	GroupID  string         `json:"groupId"`
	Outcomes []TrackOutcome `json:"outcomes"`
}

// Failed counts the players that could not be tracked.
func (r TrackResult) Failed() int {
	failed := 0
	for _, outcome := range r.Outcomes {
		if outcome.Status == TrackStatusFailed {
			failed++
		}
	}
	return failed
}

// PlayerSpec is a parsed Name#TAG[:region] argument.
type PlayerSpec struct {
	Name   string
	Tag    string
	Region string
}

func (p PlayerSpec) Label() string {
	return p.Name + "#" + p.Tag
}

// ParsePlayerSpec parses Name#TAG[:region]; defaultRegion applies when no region is given.
func ParsePlayerSpec(raw, defaultRegion string) (PlayerSpec, error) {
	riotID, region, _ := strings.Cut(strings.TrimSpace(raw), ":")
	region = tracking.NormalizeRegion(region)
	if region == "" {
		region = tracking.NormalizeRegion(defaultRegion)
	}
	if region == "" {
		region = tracking.DefaultRegion
	}

	parts := strings.Split(riotID, "#")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return PlayerSpec{}, fmt.Errorf("%w: %q is not Name#TAG[:region]", ErrInvalidInput, raw)
	}
	if !tracking.KnownRegion(region) {
		return PlayerSpec{}, fmt.Errorf("%w: %w %q", ErrInvalidInput, errUnknownRegion, region)
	}

	return PlayerSpec{
		Name:   strings.TrimSpace(parts[0]),
		Tag:    strings.TrimSpace(parts[1]),
		Region: region,
	}, nil
}

// TrackingService implements the chat and operator commands that change what is tracked.
type TrackingService struct {
	repo     tracking.Repository
	provider GameDataProvider
	notifier Notifier
	locks    *GroupLocker
	cfg      TrackingConfig
	logger   *logging.Logger
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewTrackingService(
	repo tracking.Repository,
	provider GameDataProvider,
	notifier Notifier,
	locks *GroupLocker,
	cfg TrackingConfig,
	logger *logging.Logger,
) *TrackingService {
	if notifier == nil {
		notifier = noopNotifier{}
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
	if strings.TrimSpace(cfg.DefaultRegion) == "" {
		cfg.DefaultRegion = tracking.DefaultRegion
	}

	return &TrackingService{
		repo:     repo,
		provider: provider,
		notifier: notifier,
		locks:    locks,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Track adds or updates players in a group. Per-player problems are reported in
// the result; only input, credential and persistence errors are returned.
func (s *TrackingService) Track(ctx context.Context, input TrackInput) (TrackResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TrackingService.Track")
	defer span.End()

	groupID := strings.TrimSpace(input.GroupID)
	if groupID == "" {
		return TrackResult{}, fmt.Errorf("%w: group id is required", ErrInvalidInput)
	}
	if len(input.Players) == 0 {
		return TrackResult{}, fmt.Errorf("%w: at least one player is required", ErrInvalidInput)
	}
	if len(input.Players) > tracking.MaxEntitiesPerGroup {
		return TrackResult{}, fmt.Errorf("%w: at most %d players can be tracked", ErrInvalidInput, tracking.MaxEntitiesPerGroup)
	}
	if !s.provider.Configured() {
		return TrackResult{}, ErrMissingCredentials
	}
	defaultRegion := input.DefaultRegion
	if strings.TrimSpace(defaultRegion) == "" {
		defaultRegion = s.cfg.DefaultRegion
	}

	unlock := s.locks.Lock(groupID)
	defer unlock()

	group, err := s.loadOrNew(ctx, groupID)
	if err != nil {
		return TrackResult{}, err
	}

	result := TrackResult{GroupID: groupID, Outcomes: make([]TrackOutcome, 0, len(input.Players))}
	changed := false
	for _, raw := range input.Players {
		outcome := s.trackPlayer(ctx, &group, raw, defaultRegion)
		if outcome.Status == TrackStatusAdded || outcome.Status == TrackStatusUpdated {
			changed = true
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	if changed {
		group.UpdatedAt = s.now().UTC()
		if err := s.repo.Save(ctx, group); err != nil {
			return result, fmt.Errorf("save tracked group: %w", err)
		}
	}
	return result, nil
}

func (s *TrackingService) trackPlayer(ctx context.Context, group *tracking.Group, raw, defaultRegion string) TrackOutcome {
	outcome := TrackOutcome{Input: strings.TrimSpace(raw), Status: TrackStatusFailed}

	spec, err := ParsePlayerSpec(raw, defaultRegion)
	if err != nil {
		outcome.Reason = "invalid format, use Name#TAG[:region]"
		if errors.Is(err, errUnknownRegion) {
			outcome.Reason = errUnknownRegion.Error()
		}
		return outcome
	}
	outcome.DisplayName = spec.Label()
	outcome.Region = spec.Region

	idx, exists := group.Find(spec.Label())
	if exists && group.Entities[idx].Region == spec.Region {
		outcome.DisplayName = group.Entities[idx].DisplayName
		outcome.Status = TrackStatusUnchanged
		outcome.Games = len(group.Entities[idx].History)
		return outcome
	}
	if !exists && len(group.Entities) >= tracking.MaxEntitiesPerGroup {
		outcome.Reason = tracking.ErrGroupFull.Error()
		return outcome
	}

	routing := tracking.RoutingFor(spec.Region)
	account, err := s.provider.ResolveAccount(ctx, spec.Name, spec.Tag, routing)
	if err != nil {
		s.logger.WarnContext(ctx, "resolve account failed", "group_id", group.ID, "player", spec.Label(), "kind", KindOf(err), "error", err)
		outcome.Reason = describeProviderFailure(err)
		return outcome
	}

	entity := tracking.Entity{
		ExternalID:  account.ExternalID,
		DisplayName: account.DisplayName(),
		Region:      spec.Region,
		RoutingKey:  routing,
		TrackedAt:   s.now().UTC(),
	}
	outcome.DisplayName = entity.DisplayName

	sameAccount := exists && group.Entities[idx].ExternalID == account.ExternalID
	if !sameAccount {
		if err := s.seedEntity(ctx, group.SinkID, &entity); err != nil {
			s.logger.WarnContext(ctx, "initial analysis failed", "group_id", group.ID, "player", entity.DisplayName, "kind", KindOf(err), "error", err)
			outcome.Reason = describeProviderFailure(err)
			return outcome
		}
	}

	created, err := group.Upsert(entity)
	if err != nil {
		outcome.Reason = err.Error()
		return outcome
	}

	outcome.Status = TrackStatusUpdated
	if created {
		outcome.Status = TrackStatusAdded
	}
	if idx, ok := group.Find(entity.DisplayName); ok {
		outcome.Games = len(group.Entities[idx].History)
	}
	return outcome
}

// seedEntity runs the look-back analysis: history from the latest batch, the
// cursor set to that batch, and streak alerts when enough games exist.
func (s *TrackingService) seedEntity(ctx context.Context, sinkID string, entity *tracking.Entity) error {
	ids, err := s.provider.ListRecentMatchIDs(ctx, entity.ExternalID, s.cfg.BatchSize, entity.RoutingKey)
	if err != nil {
		return err
	}

	hasSink := strings.TrimSpace(sinkID) != ""
	if hasSink {
		s.notify(ctx, sinkID, RenderInitialAnalysis(entity.DisplayName, len(ids)))
	}

	for i := len(ids) - 1; i >= 0; i-- {
		if i < len(ids)-1 {
			if err := s.sleep(ctx, s.cfg.MatchDelay); err != nil {
				return err
			}
		}
		analyzed, err := analyzeMatch(ctx, s.provider, *entity, ids[i])
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logSkippedMatch(ctx, s.logger, *entity, ids[i], err)
			continue
		}
		entity.PushRecord(analyzed.Record, s.cfg.HistorySize)
		if hasSink {
			s.notify(ctx, sinkID, RenderMatch(entity.DisplayName, analyzed.Detail, analyzed.Participant, analyzed.Record, OriginInitial))
		}
	}
	entity.LastSeen = cursor.Advance(ids, s.cfg.BatchSize)

	for _, alert := range streak.Evaluate(entity.History, &entity.Flags) {
		if hasSink {
			s.notify(ctx, sinkID, RenderAlert(entity.DisplayName, alert))
		}
	}
	return nil
}

// Untrack removes one player by label, or every player when label is "all".
func (s *TrackingService) Untrack(ctx context.Context, groupID, label string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TrackingService.Untrack")
	defer span.End()

	groupID = strings.TrimSpace(groupID)
	label = strings.TrimSpace(label)
	if groupID == "" || label == "" {
		return 0, fmt.Errorf("%w: group id and player are required", ErrInvalidInput)
	}

	unlock := s.locks.Lock(groupID)
	defer unlock()

	group, found, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return 0, fmt.Errorf("get tracked group: %w", err)
	}
	if !found {
		return 0, fmt.Errorf("%w: no players tracked in group %s", ErrNotFound, groupID)
	}

	removed := 0
	if strings.EqualFold(label, untrackAllLabel) {
		removed = group.RemoveAll()
	} else if group.Remove(label) {
		removed = 1
	}
	if removed == 0 {
		return 0, fmt.Errorf("%w: %s is not tracked", ErrNotFound, label)
	}

	group.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, group); err != nil {
		return 0, fmt.Errorf("save tracked group: %w", err)
	}
	return removed, nil
}

// SetSink points the group's notifications at sinkID, creating the group if needed.
func (s *TrackingService) SetSink(ctx context.Context, groupID, sinkID string) (tracking.Group, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TrackingService.SetSink")
	defer span.End()

	groupID = strings.TrimSpace(groupID)
	sinkID = strings.TrimSpace(sinkID)
	if groupID == "" || sinkID == "" {
		return tracking.Group{}, fmt.Errorf("%w: group id and sink id are required", ErrInvalidInput)
	}
	if err := tracking.ValidateSinkID(sinkID); err != nil {
		return tracking.Group{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	unlock := s.locks.Lock(groupID)
	defer unlock()

	group, err := s.loadOrNew(ctx, groupID)
	if err != nil {
		return tracking.Group{}, err
	}
	group.SinkID = sinkID
	group.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, group); err != nil {
		return tracking.Group{}, fmt.Errorf("save tracked group: %w", err)
	}
	return group, nil
}

func (s *TrackingService) Group(ctx context.Context, groupID string) (tracking.Group, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TrackingService.Group")
	defer span.End()

	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return tracking.Group{}, fmt.Errorf("%w: group id is required", ErrInvalidInput)
	}
	group, found, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return tracking.Group{}, fmt.Errorf("get tracked group: %w", err)
	}
	if !found {
		return tracking.Group{}, fmt.Errorf("%w: group %s", ErrNotFound, groupID)
	}
	return group, nil
}

func (s *TrackingService) ListGroups(ctx context.Context) ([]tracking.Group, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TrackingService.ListGroups")
	defer span.End()

	groups, err := s.repo.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tracked groups: %w", err)
	}
	return groups, nil
}

func (s *TrackingService) loadOrNew(ctx context.Context, groupID string) (tracking.Group, error) {
	group, found, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return tracking.Group{}, fmt.Errorf("get tracked group: %w", err)
	}
	if !found {
		return tracking.NewGroup(groupID), nil
	}
	return group, nil
}

func (s *TrackingService) notify(ctx context.Context, sinkID string, msg Message) {
	if err := s.notifier.Send(ctx, sinkID, msg); err != nil {
		s.logger.WarnContext(ctx, "send notification failed", "sink_id", sinkID, "kind", msg.Kind, "error", err)
	}
}

func describeProviderFailure(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "request canceled"
	}
	switch KindOf(err) {
	case KindNotFound:
		return "player not found"
	case KindForbidden:
		return "api key invalid or expired"
	case KindRateLimited:
		return "api rate limit reached"
	default:
		return "game data api error"
	}
}
