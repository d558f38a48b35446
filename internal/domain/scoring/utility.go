package scoring

import (
	"math"

	"github.com/riskibarqy/focus-tracker/internal/domain/match"
)

const (
	MinScore = 1.0
	MaxScore = 10.0

	winBonus             = 0.5
	perfectKDAMultiplier = 1.2
)

type threshold struct {
	min    float64
	points float64
}

// Thresholds are ordered from the highest band down; the first band reached wins.
var (
	kdaBands               = []threshold{{7, 1.5}, {4, 1.0}, {2, 0.5}}
	killParticipationBands = []threshold{{0.65, 1.5}, {0.50, 1.0}, {0.35, 0.5}}
	teamDamageShareBands   = []threshold{{0.33, 2.5}, {0.28, 2.0}, {0.22, 1.5}, {0.17, 1.0}, {0.12, 0.5}}
	damageRatioBands       = []threshold{{1.6, 2.0}, {1.3, 1.5}, {1.0, 1.0}, {0.7, 0.5}}
	goldPerMinuteBands     = []threshold{{550, 1.0}, {450, 0.75}, {350, 0.5}}
	csPerMinuteBands       = []threshold{{9, 1.0}, {7, 0.75}, {5, 0.5}}
	ccSecondsBands         = []threshold{{60, 1.0}, {30, 0.5}}
)

// Score maps one participant's statistics to a utility score in [1, 10] with one decimal.
func Score(player match.Participant, all []match.Participant, gameDurationSeconds int64) float64 {
	minutes := 1.0
	if gameDurationSeconds > 0 {
		minutes = float64(gameDurationSeconds) / 60
	}
	challenges := player.Challenges
	if challenges == nil {
		challenges = &match.Challenges{}
	}

	score := combatScore(player, all, challenges) +
		damageScore(player, all, challenges) +
		economyScore(player, challenges, minutes) +
		visionScore(player, challenges, minutes) +
		objectiveScore(player)

	if player.Win {
		score = math.Min(MaxScore, score+winBonus)
	}

	return roundTo(clamp(score, MinScore, MaxScore), 1)
}

// EfficiencyRatio is (kills+assists)/deaths, or (kills+assists)*1.2 for a deathless game.
func EfficiencyRatio(kills, deaths, assists int) float64 {
	takedowns := float64(kills + assists)
	if deaths <= 0 {
		return takedowns * perfectKDAMultiplier
	}
	return takedowns / float64(deaths)
}

func combatScore(player match.Participant, all []match.Participant, challenges *match.Challenges) float64 {
	kda := EfficiencyRatio(player.Kills, player.Deaths, player.Assists)
	if challenges.KDA != nil {
		kda = *challenges.KDA
	}
	if player.Deaths == 0 && kda == 0 && player.Kills+player.Assists > 0 {
		kda = EfficiencyRatio(player.Kills, 0, player.Assists)
	}

	var kp float64
	if challenges.KillParticipation != nil {
		kp = *challenges.KillParticipation
	} else {
		kp = killShare(player, all)
	}

	return band(kda, kdaBands) + band(kp, killParticipationBands)
}

// killShare is (kills+assists) over the kills of the player's side, where a side
// is every participant sharing the player's result.
func killShare(player match.Participant, all []match.Participant) float64 {
	teamKills := 0
	for _, p := range all {
		if p.Win == player.Win {
			teamKills += p.Kills
		}
	}
	if teamKills <= 0 {
		return 0
	}
	return math.Min(1, float64(player.Kills+player.Assists)/float64(teamKills))
}

func damageScore(player match.Participant, all []match.Participant, challenges *match.Challenges) float64 {
	if share := valueOr(challenges.TeamDamagePercentage, 0); share > 0 {
		return band(share, teamDamageShareBands)
	}

	if len(all) == 0 {
		return 0
	}
	var total int64
	for _, p := range all {
		total += p.TotalDamageDealtToChampions
	}
	average := float64(total) / float64(len(all))
	if average <= 0 {
		return 0
	}
	return band(float64(player.TotalDamageDealtToChampions)/average, damageRatioBands)
}

func economyScore(player match.Participant, challenges *match.Challenges, minutes float64) float64 {
	gpm := valueOr(challenges.GoldPerMinute, 0)
	if gpm == 0 {
		gpm = float64(player.GoldEarned) / minutes
	}
	cspm := float64(player.TotalMinionsKilled+player.NeutralMinionsKilled) / minutes

	return band(gpm, goldPerMinuteBands) + band(cspm, csPerMinuteBands)
}

func visionScore(player match.Participant, challenges *match.Challenges, minutes float64) float64 {
	vpm := valueOr(challenges.VisionScorePerMinute, 0)
	if vpm == 0 {
		vpm = float64(player.VisionScore) / minutes
	}
	wards := 0
	if challenges.ControlWardsPurchased != nil {
		wards = *challenges.ControlWardsPurchased
	}

	switch {
	case vpm >= 1.8 || (vpm >= 1.2 && wards >= 3):
		return 1.5
	case vpm >= 1.2 || (vpm >= 0.8 && wards >= 2):
		return 1.0
	case vpm >= 0.7:
		return 0.5
	default:
		return 0
	}
}

func objectiveScore(player match.Participant) float64 {
	score := 0.0
	switch {
	case player.DamageDealtToObjectives > 10000 || player.TurretTakedowns >= 7:
		score += 1.0
	case player.DamageDealtToObjectives > 5000 || player.TurretTakedowns >= 4:
		score += 0.5
	}
	return score + band(float64(player.TotalTimeCCDealt), ccSecondsBands)
}

func band(value float64, bands []threshold) float64 {
	for _, b := range bands {
		if value >= b.min {
			return b.points
		}
	}
	return 0
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func roundTo(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
