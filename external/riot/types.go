package riot

import "github.com/riskibarqy/focus-tracker/internal/domain/match"

type accountDTO struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

type matchDTO struct {
	Metadata matchMetadataDTO `json:"metadata"`
	Info     matchInfoDTO     `json:"info"`
}

type matchMetadataDTO struct {
	MatchID string `json:"matchId"`
}

type matchInfoDTO struct {
	GameMode         string           `json:"gameMode"`
	GameDuration     int64            `json:"gameDuration"`
	GameEndTimestamp int64            `json:"gameEndTimestamp"`
	Participants     []participantDTO `json:"participants"`
}

type participantDTO struct {
	PUUID                       string         `json:"puuid"`
	ChampionName                string         `json:"championName"`
	Win                         bool           `json:"win"`
	Kills                       int            `json:"kills"`
	Deaths                      int            `json:"deaths"`
	Assists                     int            `json:"assists"`
	TotalDamageDealtToChampions int64          `json:"totalDamageDealtToChampions"`
	GoldEarned                  int64          `json:"goldEarned"`
	TotalMinionsKilled          int            `json:"totalMinionsKilled"`
	NeutralMinionsKilled        int            `json:"neutralMinionsKilled"`
	VisionScore                 int            `json:"visionScore"`
	DamageDealtToObjectives     int64          `json:"damageDealtToObjectives"`
	TurretTakedowns             int            `json:"turretTakedowns"`
	TotalTimeCCDealt            int            `json:"totalTimeCCDealt"`
	Challenges                  *challengesDTO `json:"challenges"`
}

// Riot omits challenge keys it could not compute, so every field is optional.
type challengesDTO struct {
	KDA                   *float64 `json:"kda"`
	KillParticipation     *float64 `json:"killParticipation"`
	TeamDamagePercentage  *float64 `json:"teamDamagePercentage"`
	GoldPerMinute         *float64 `json:"goldPerMinute"`
	VisionScorePerMinute  *float64 `json:"visionScorePerMinute"`
	ControlWardsPurchased *int     `json:"controlWardsPurchased"`
}

func (m matchDTO) toDomain(fallbackID string) match.Detail {
	matchID := m.Metadata.MatchID
	if matchID == "" {
		matchID = fallbackID
	}

	participants := make([]match.Participant, 0, len(m.Info.Participants))
	for _, p := range m.Info.Participants {
		participants = append(participants, p.toDomain())
	}

	return match.Detail{
		MatchID:             matchID,
		GameMode:            m.Info.GameMode,
		GameDurationSeconds: m.Info.GameDuration,
		GameEndTimestamp:    m.Info.GameEndTimestamp,
		Participants:        participants,
	}
}

func (p participantDTO) toDomain() match.Participant {
	out := match.Participant{
		PUUID:                       p.PUUID,
		ChampionName:                p.ChampionName,
		Win:                         p.Win,
		Kills:                       p.Kills,
		Deaths:                      p.Deaths,
		Assists:                     p.Assists,
		TotalDamageDealtToChampions: p.TotalDamageDealtToChampions,
		GoldEarned:                  p.GoldEarned,
		TotalMinionsKilled:          p.TotalMinionsKilled,
		NeutralMinionsKilled:        p.NeutralMinionsKilled,
		VisionScore:                 p.VisionScore,
		DamageDealtToObjectives:     p.DamageDealtToObjectives,
		TurretTakedowns:             p.TurretTakedowns,
		TotalTimeCCDealt:            p.TotalTimeCCDealt,
	}
	if p.Challenges != nil {
		out.Challenges = &match.Challenges{
			KDA:                   p.Challenges.KDA,
			KillParticipation:     p.Challenges.KillParticipation,
			TeamDamagePercentage:  p.Challenges.TeamDamagePercentage,
			GoldPerMinute:         p.Challenges.GoldPerMinute,
			VisionScorePerMinute:  p.Challenges.VisionScorePerMinute,
			ControlWardsPurchased: p.Challenges.ControlWardsPurchased,
		}
	}
	return out
}
