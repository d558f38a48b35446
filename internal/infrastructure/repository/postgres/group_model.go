package postgres

import (
	"time"

	"github.com/lib/pq"
)

const (
	trackedGroupsTable  = "tracked_groups"
	trackedPlayersTable = "tracked_players"
)

type groupTableModel struct {
	ID        string    `db:"id"`
	SinkID    string    `db:"sink_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type groupUpsertModel struct {
	ID        string    `db:"id"`
	SinkID    string    `db:"sink_id"`
	UpdatedAt time.Time `db:"updated_at"`
}

type playerTableModel struct {
	GroupID                      string         `db:"group_id"`
	DisplayKey                   string         `db:"display_key"`
	Position                     int            `db:"position"`
	ExternalID                   string         `db:"external_id"`
	DisplayName                  string         `db:"display_name"`
	Region                       string         `db:"region"`
	RoutingKey                   string         `db:"routing_key"`
	LastSeen                     pq.StringArray `db:"last_seen"`
	History                      string         `db:"history"`
	WinStreakNotified            bool           `db:"win_streak_notified"`
	LossStreakNotified           bool           `db:"loss_streak_notified"`
	BadPerformanceStreakActive   bool           `db:"bad_streak_active"`
	BadPerformanceStreakNotified bool           `db:"bad_streak_notified"`
	TrackedAt                    time.Time      `db:"tracked_at"`
}
