package scoring

import (
	"errors"
	"fmt"

	"github.com/riskibarqy/focus-tracker/internal/domain/match"
	"github.com/riskibarqy/focus-tracker/internal/domain/tracking"
)

var (
	ErrIncompleteMatch     = errors.New("match has no end timestamp")
	ErrParticipantNotFound = errors.New("player not found in match participants")
)

// Tier buckets a utility score for display.
type Tier string

const (
	TierGreat Tier = "great"
	TierFair  Tier = "fair"
	TierPoor  Tier = "poor"
)

// BuildRecord scores the player identified by puuid and returns the normalized record.
func BuildRecord(detail match.Detail, puuid string) (tracking.PerformanceRecord, error) {
	if !detail.Complete() {
		return tracking.PerformanceRecord{}, fmt.Errorf("%w: match_id=%s", ErrIncompleteMatch, detail.MatchID)
	}

	player, ok := detail.FindParticipant(puuid)
	if !ok {
		return tracking.PerformanceRecord{}, fmt.Errorf("%w: match_id=%s", ErrParticipantNotFound, detail.MatchID)
	}

	return tracking.PerformanceRecord{
		MatchID:         detail.MatchID,
		Win:             player.Win,
		EfficiencyRatio: roundTo(EfficiencyRatio(player.Kills, player.Deaths, player.Assists), 2),
		UtilityScore:    Score(player, detail.Participants, detail.GameDurationSeconds),
		CompletedAt:     detail.EndedAt(),
		Champion:        player.ChampionName,
		GameMode:        detail.GameMode,
	}, nil
}

func TierOf(score float64) Tier {
	switch {
	case score >= 7.5:
		return TierGreat
	case score >= 4.5:
		return TierFair
	default:
		return TierPoor
	}
}
