package match

import "time"

// Challenges holds the optional precomputed metrics the upstream attaches to a participant.
// A nil field means the metric was absent.
type Challenges struct {
	KDA                   *float64
	KillParticipation     *float64
	TeamDamagePercentage  *float64
	GoldPerMinute         *float64
	VisionScorePerMinute  *float64
	ControlWardsPurchased *int
}

// Participant is one player's statistics in a match.
type Participant struct {
	PUUID                       string
	ChampionName                string
	Win                         bool
	Kills                       int
	Deaths                      int
	Assists                     int
	TotalDamageDealtToChampions int64
	GoldEarned                  int64
	TotalMinionsKilled          int
	NeutralMinionsKilled        int
	VisionScore                 int
	DamageDealtToObjectives     int64
	TurretTakedowns             int
	TotalTimeCCDealt            int
	Challenges                  *Challenges
}

// Detail is the normalized match payload used for scoring.
type Detail struct {
	MatchID             string
	GameMode            string
	GameDurationSeconds int64
	GameEndTimestamp    int64
	Participants        []Participant
}

// Complete reports whether the match has finished and carries an end timestamp.
func (d Detail) Complete() bool {
	return d.GameEndTimestamp > 0
}

// EndedAt converts the epoch-millisecond end timestamp.
func (d Detail) EndedAt() time.Time {
	if d.GameEndTimestamp <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(d.GameEndTimestamp).UTC()
}

func (d Detail) FindParticipant(puuid string) (Participant, bool) {
	for _, p := range d.Participants {
		if p.PUUID == puuid {
			return p, true
		}
	}
	return Participant{}, false
}

// Float returns a pointer to v, for building Challenges literals.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}
