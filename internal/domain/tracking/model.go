package tracking

import (
	"strings"
	"time"
)

const (
	// MaxEntitiesPerGroup caps how many players one group may follow.
	MaxEntitiesPerGroup = 5
	DefaultHistorySize  = 10
	DefaultBatchSize    = 5
)

// PerformanceRecord is the normalized outcome of one completed match for one player.
type PerformanceRecord struct {
	MatchID         string    `json:"matchId"`
	Win             bool      `json:"win"`
	EfficiencyRatio float64   `json:"efficiencyRatio"`
	UtilityScore    float64   `json:"utilityScore"`
	CompletedAt     time.Time `json:"completedAt"`
	Champion        string    `json:"champion"`
	GameMode        string    `json:"gameMode"`
}

// StreakFlags remember which streak alerts already fired for the current window.
type StreakFlags struct {
	WinStreakNotified            bool `json:"winStreakNotified"`
	LossStreakNotified           bool `json:"lossStreakNotified"`
	BadPerformanceStreakActive   bool `json:"badPerformanceStreakActive"`
	BadPerformanceStreakNotified bool `json:"badPerformanceStreakNotified"`
}

// Entity is one tracked player.
type Entity struct {
	ExternalID  string
	DisplayName string
	Region      string
	RoutingKey  string
	LastSeen    []string
	History     []PerformanceRecord
	Flags       StreakFlags
	TrackedAt   time.Time
}

// Key returns the identity used for uniqueness inside a group.
func (e Entity) Key() string {
	return NormalizeLabel(e.DisplayName)
}

// PushRecord inserts rec as the newest history entry and evicts the oldest
// entries beyond limit.
func (e *Entity) PushRecord(rec PerformanceRecord, limit int) {
	if limit <= 0 {
		limit = DefaultHistorySize
	}

	next := make([]PerformanceRecord, 0, minInt(len(e.History)+1, limit))
	next = append(next, rec)
	for _, item := range e.History {
		if len(next) == limit {
			break
		}
		next = append(next, item)
	}
	e.History = next
}

// Latest returns the newest history entry.
func (e Entity) Latest() (PerformanceRecord, bool) {
	if len(e.History) == 0 {
		return PerformanceRecord{}, false
	}
	return e.History[0], true
}

// Group is a notification sink plus the players it follows.
type Group struct {
	ID        string
	SinkID    string
	Entities  []Entity
	UpdatedAt time.Time
}

// NewGroup returns an empty group for id.
func NewGroup(id string) Group {
	return Group{ID: strings.TrimSpace(id)}
}

// Clone returns a deep copy so callers can mutate entities without sharing slices.
func (g Group) Clone() Group {
	out := g
	if g.Entities == nil {
		return out
	}
	out.Entities = make([]Entity, 0, len(g.Entities))
	for _, entity := range g.Entities {
		copied := entity
		copied.LastSeen = append([]string(nil), entity.LastSeen...)
		copied.History = append([]PerformanceRecord(nil), entity.History...)
		out.Entities = append(out.Entities, copied)
	}
	return out
}

// Pollable reports whether the group has somewhere to send results and something to poll.
func (g Group) Pollable() bool {
	return strings.TrimSpace(g.SinkID) != "" && len(g.Entities) > 0
}

// Find returns the index of the entity whose label matches case-insensitively.
func (g Group) Find(label string) (int, bool) {
	key := NormalizeLabel(label)
	if key == "" {
		return -1, false
	}
	for i, entity := range g.Entities {
		if entity.Key() == key {
			return i, true
		}
	}
	return -1, false
}

// Upsert adds entity or updates the existing one with the same label in place.
// Cursor, history and flags survive a re-track of the same account.
func (g *Group) Upsert(entity Entity) (bool, error) {
	if err := entity.Validate(); err != nil {
		return false, err
	}

	if idx, ok := g.Find(entity.DisplayName); ok {
		current := g.Entities[idx]
		sameAccount := current.ExternalID == entity.ExternalID
		current.ExternalID = entity.ExternalID
		current.DisplayName = entity.DisplayName
		current.Region = entity.Region
		current.RoutingKey = entity.RoutingKey
		if !sameAccount {
			current.LastSeen = entity.LastSeen
			current.History = entity.History
			current.Flags = entity.Flags
			current.TrackedAt = entity.TrackedAt
		}
		g.Entities[idx] = current
		return false, nil
	}

	if len(g.Entities) >= MaxEntitiesPerGroup {
		return false, ErrGroupFull
	}
	g.Entities = append(g.Entities, entity)
	return true, nil
}

// Remove deletes the entity with the given label.
func (g *Group) Remove(label string) bool {
	idx, ok := g.Find(label)
	if !ok {
		return false
	}
	g.Entities = append(g.Entities[:idx], g.Entities[idx+1:]...)
	return true
}

// RemoveAll drops every entity and returns how many were removed.
func (g *Group) RemoveAll() int {
	removed := len(g.Entities)
	g.Entities = nil
	return removed
}

// NormalizeLabel lower-cases and trims a display label.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
