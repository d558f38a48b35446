package httpapi

import (
	"time"

	"github.com/riskibarqy/focus-tracker/internal/domain/tracking"
	"github.com/riskibarqy/focus-tracker/internal/usecase"
)

type trackPlayersRequest struct {
	Players []string `json:"players" validate:"required,min=1,max=5,dive,required,max=64"`
	Region  string   `json:"region" validate:"omitempty,max=8"`
}

type setSinkRequest struct {
	SinkID string `json:"sinkId" validate:"required,max=64"`
}

type untrackResponse struct {
	GroupID string `json:"groupId"`
	Removed int    `json:"removed"`
}

type pollJobResponse struct {
	Report   usecase.CycleReport `json:"report"`
	Duration string              `json:"duration"`
}

type performanceDTO struct {
	MatchID         string    `json:"matchId"`
	Win             bool      `json:"win"`
	EfficiencyRatio float64   `json:"efficiencyRatio"`
	UtilityScore    float64   `json:"utilityScore"`
	CompletedAt     time.Time `json:"completedAt"`
	Champion        string    `json:"champion,omitempty"`
	GameMode        string    `json:"gameMode,omitempty"`
}

type playerDTO struct {
	DisplayName string               `json:"displayName"`
	Region      string               `json:"region"`
	TrackedAt   time.Time            `json:"trackedAt"`
	LastSeen    []string             `json:"lastSeen"`
	History     []performanceDTO     `json:"history"`
	Flags       tracking.StreakFlags `json:"flags"`
}

type groupDTO struct {
	ID        string      `json:"id"`
	SinkID    string      `json:"sinkId,omitempty"`
	Players   []playerDTO `json:"players"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func toGroupDTO(group tracking.Group) groupDTO {
	players := make([]playerDTO, 0, len(group.Entities))
	for _, entity := range group.Entities {
		history := make([]performanceDTO, 0, len(entity.History))
		for _, rec := range entity.History {
			history = append(history, performanceDTO(rec))
		}
		lastSeen := entity.LastSeen
		if lastSeen == nil {
			lastSeen = []string{}
		}
		players = append(players, playerDTO{
			DisplayName: entity.DisplayName,
			Region:      entity.Region,
			TrackedAt:   entity.TrackedAt,
			LastSeen:    lastSeen,
			History:     history,
			Flags:       entity.Flags,
		})
	}

	return groupDTO{
		ID:        group.ID,
		SinkID:    group.SinkID,
		Players:   players,
		UpdatedAt: group.UpdatedAt,
	}
}

func toGroupDTOs(groups []tracking.Group) []groupDTO {
	out := make([]groupDTO, 0, len(groups))
	for _, group := range groups {
		out = append(out, toGroupDTO(group))
	}
	return out
}
