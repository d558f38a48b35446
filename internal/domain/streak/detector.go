package streak

import "github.com/riskibarqy/focus-tracker/internal/domain/tracking"

const (
	// WindowSize is the number of most recent records a streak spans.
	WindowSize = 3
	// BadPerformanceThreshold is the efficiency ratio below which a game counts as bad.
	BadPerformanceThreshold = 1.0
)

type Kind string

const (
	KindWinStreak      Kind = "win_streak"
	KindLossStreak     Kind = "loss_streak"
	KindBadPerformance Kind = "bad_performance_streak"
	KindRecovery       Kind = "bad_performance_recovery"
)

// Alert is one streak event raised by Evaluate.
type Alert struct {
	Kind   Kind
	Latest tracking.PerformanceRecord
	Window []tracking.PerformanceRecord
}

// Evaluate inspects the newest WindowSize records of history (most recent first),
// toggles flags and returns the alerts that should be sent. The win, loss and
// bad-performance checks are independent and always all run.
func Evaluate(history []tracking.PerformanceRecord, flags *tracking.StreakFlags) []Alert {
	if flags == nil || len(history) < WindowSize {
		return nil
	}

	window := append([]tracking.PerformanceRecord(nil), history[:WindowSize]...)
	alerts := make([]Alert, 0, 2)
	raise := func(kind Kind) {
		alerts = append(alerts, Alert{Kind: kind, Latest: window[0], Window: window})
	}

	allWins, allLosses, allBad := true, true, true
	for _, rec := range window {
		allWins = allWins && rec.Win
		allLosses = allLosses && !rec.Win
		allBad = allBad && rec.EfficiencyRatio < BadPerformanceThreshold
	}

	if allWins {
		if !flags.WinStreakNotified {
			raise(KindWinStreak)
			flags.WinStreakNotified = true
		}
	} else {
		flags.WinStreakNotified = false
	}

	if allLosses {
		if !flags.LossStreakNotified {
			raise(KindLossStreak)
			flags.LossStreakNotified = true
		}
	} else {
		flags.LossStreakNotified = false
	}

	if allBad {
		if !flags.BadPerformanceStreakNotified {
			raise(KindBadPerformance)
			flags.BadPerformanceStreakActive = true
			flags.BadPerformanceStreakNotified = true
		}
	} else {
		if flags.BadPerformanceStreakActive && window[0].EfficiencyRatio >= BadPerformanceThreshold {
			raise(KindRecovery)
		}
		flags.BadPerformanceStreakActive = false
		flags.BadPerformanceStreakNotified = false
	}

	return alerts
}
