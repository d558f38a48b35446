package usecase

import (
	"context"

	"github.com/riskibarqy/focus-tracker/internal/domain/match"
	"github.com/riskibarqy/focus-tracker/internal/domain/scoring"
	"github.com/riskibarqy/focus-tracker/internal/domain/tracking"
	"github.com/riskibarqy/focus-tracker/internal/platform/logging"
)

type analyzedMatch struct {
	Detail      match.Detail
	Participant match.Participant
	Record      tracking.PerformanceRecord
}

func analyzeMatch(ctx context.Context, provider GameDataProvider, entity tracking.Entity, matchID string) (analyzedMatch, error) {
	detail, err := provider.FetchMatchDetail(ctx, matchID, entity.RoutingKey)
	if err != nil {
		return analyzedMatch{}, err
	}
	rec, err := scoring.BuildRecord(detail, entity.ExternalID)
	if err != nil {
		return analyzedMatch{}, err
	}
	participant, _ := detail.FindParticipant(entity.ExternalID)
	return analyzedMatch{Detail: detail, Participant: participant, Record: rec}, nil
}

// logSkippedMatch keeps forbidden matches distinct from other failures in the logs.
func logSkippedMatch(ctx context.Context, logger *logging.Logger, entity tracking.Entity, matchID string, err error) {
	kind := KindOf(err)
	if kind == KindForbidden {
		logger.WarnContext(ctx, "match unavailable, skipping", "player", entity.DisplayName, "match_id", matchID, "error", err)
		return
	}
	logger.WarnContext(ctx, "analyze match failed, skipping", "player", entity.DisplayName, "match_id", matchID, "kind", kind, "error", err)
}

type noopNotifier struct{}

func (noopNotifier) Send(context.Context, string, Message) error {
	return nil
}

type noopPollMetrics struct{}

func (noopPollMetrics) ObserveCycle(CycleReport, string) {}

func (noopPollMetrics) IncAlert(string) {}

func (noopPollMetrics) IncNotification(string, bool) {}
