package usecase

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/riskibarqy/focus-tracker/internal/domain/match"
	"github.com/riskibarqy/focus-tracker/internal/domain/scoring"
	"github.com/riskibarqy/focus-tracker/internal/domain/streak"
	"github.com/riskibarqy/focus-tracker/internal/domain/tracking"
)

// MatchOrigin tells the renderer why a match is being reported.
type MatchOrigin string

const (
	OriginPoll    MatchOrigin = "poll"
	OriginInitial MatchOrigin = "initial"
)

const highKDAThreshold = 3.0

// RenderMatch formats one analyzed match for player.
func RenderMatch(player string, detail match.Detail, participant match.Participant, rec tracking.PerformanceRecord, origin MatchOrigin) Message {
	prefix := ""
	switch origin {
	case OriginPoll:
		prefix = "New game: "
	case OriginInitial:
		prefix = "Analysis: "
	}
	title := prefix + rec.Champion + " - " + rec.GameMode

	result := "Defeat"
	if rec.Win {
		result = "Victory"
	}

	perfect := participant.Deaths == 0 && (participant.Kills > 0 || participant.Assists > 0)
	verdict := "Head was not quite in the game."
	if rec.EfficiencyRatio > highKDAThreshold {
		verdict = "Great round!"
	}
	if perfect {
		verdict = "PERFECT KDA!"
	}

	avgDamage, avgGold := fieldAverages(detail.Participants)

	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s</b>\n", tierMarker(scoring.TierOf(rec.UtilityScore)), html.EscapeString(title))
	if rec.EfficiencyRatio > highKDAThreshold {
		b.WriteString("<b>KDA over 3!</b>\n")
	}
	fmt.Fprintf(&b, "%s (%dm %ds)\n", result, detail.GameDurationSeconds/60, detail.GameDurationSeconds%60)
	fmt.Fprintf(&b, "<i>%s</i>\n\n", verdict)
	fmt.Fprintf(&b, "K/D/A: %d/%d/%d (%s)\n", participant.Kills, participant.Deaths, participant.Assists, formatRatio(rec.EfficiencyRatio))
	fmt.Fprintf(&b, "Utility: <b>%s / 10</b>\n", strconv.FormatFloat(rec.UtilityScore, 'f', -1, 64))
	fmt.Fprintf(&b, "Damage to champions: %s (avg %s)\n", formatThousands(participant.TotalDamageDealtToChampions), formatThousands(avgDamage))
	fmt.Fprintf(&b, "Gold: %s (avg %s)\n", formatThousands(participant.GoldEarned), formatThousands(avgGold))
	fmt.Fprintf(&b, "Vision score: %d\n", participant.VisionScore)
	fmt.Fprintf(&b, "Objective damage: %s\n\n", formatThousands(participant.DamageDealtToObjectives))
	fmt.Fprintf(&b, "Match <code>%s</code> | %s", html.EscapeString(rec.MatchID), html.EscapeString(player))

	return Message{Kind: MessageKindMatch, Title: title, Text: b.String()}
}

// RenderAlert formats a streak alert for player.
func RenderAlert(player string, alert streak.Alert) Message {
	name := html.EscapeString(player)

	var title, body string
	switch alert.Kind {
	case streak.KindWinStreak:
		title = fmt.Sprintf("%s is on a win streak!", name)
		body = "THREE wins in a row. Keep it going!"
	case streak.KindLossStreak:
		title = fmt.Sprintf("%s, what is going on?", name)
		body = "Three losses back to back. Maybe take a break."
	case streak.KindBadPerformance:
		title = fmt.Sprintf("%s, KDA in the basement!", name)
		body = "Three games in a row with a KDA under 1. Time to turn it around."
	case streak.KindRecovery:
		title = fmt.Sprintf("%s turned the KDA around!", name)
		body = fmt.Sprintf("The run of games with KDA under 1 was broken with a KDA of %s.", formatRatio(alert.Latest.EfficiencyRatio))
	default:
		title = fmt.Sprintf("%s: %s", name, alert.Kind)
	}

	text := "<b>" + title + "</b>"
	if body != "" {
		text += "\n" + body
	}
	return Message{Kind: MessageKindAlert, Title: title, Text: text}
}

// RenderRateLimitNotice tells the sink that polling player hit the upstream rate limit.
func RenderRateLimitNotice(player string) Message {
	title := "API limit reached"
	return Message{
		Kind:  MessageKindRateLimitNotice,
		Title: title,
		Text:  fmt.Sprintf("API limit reached while checking <b>%s</b>.", html.EscapeString(player)),
	}
}

// RenderInitialAnalysis announces the look-back analysis that runs when a player is tracked.
func RenderInitialAnalysis(player string, games int) Message {
	text := fmt.Sprintf("--- Initial analysis for <b>%s</b> (%d games) ---", html.EscapeString(player), games)
	if games == 0 {
		text = fmt.Sprintf("No recent games found for <b>%s</b>. Tracking is active.", html.EscapeString(player))
	}
	return Message{Kind: MessageKindMatch, Title: "Initial analysis", Text: text}
}

func tierMarker(tier scoring.Tier) string {
	switch tier {
	case scoring.TierGreat:
		return "🟢"
	case scoring.TierFair:
		return "🟡"
	default:
		return "🔴"
	}
}

func fieldAverages(participants []match.Participant) (int64, int64) {
	if len(participants) == 0 {
		return 0, 0
	}
	var damage, gold int64
	for _, p := range participants {
		damage += p.TotalDamageDealtToChampions
		gold += p.GoldEarned
	}
	n := float64(len(participants))
	return int64(float64(damage)/n + 0.5), int64(float64(gold)/n + 0.5)
}

func formatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatThousands(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	digits := strconv.FormatInt(v, 10)
	if len(digits) <= 3 {
		return sign + digits
	}

	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return sign + b.String()
}
