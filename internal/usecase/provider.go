package usecase

import (
	"context"

	"github.com/riskibarqy/focus-tracker/internal/domain/match"
)

// Account is a resolved game account.
type Account struct {
	ExternalID string
	GameName   string
	TagLine    string
}

// DisplayName renders the canonical Name#TAG label.
func (a Account) DisplayName() string {
	if a.TagLine == "" {
		return a.GameName
	}
	return a.GameName + "#" + a.TagLine
}

// GameDataProvider is the upstream game data API as seen by the poll loop.
// Failures are *ProviderError values.
type GameDataProvider interface {
	Configured() bool
	ResolveAccount(ctx context.Context, name, tag, routingHint string) (Account, error)
	ListRecentMatchIDs(ctx context.Context, externalID string, count int, routingKey string) ([]string, error)
	FetchMatchDetail(ctx context.Context, matchID, routingKey string) (match.Detail, error)
}

type MessageKind string

const (
	MessageKindMatch           MessageKind = "match"
	MessageKindAlert           MessageKind = "alert"
	MessageKindRateLimitNotice MessageKind = "rate_limit_notice"
)

// Message is a rendered notification. Text is HTML formatted.
type Message struct {
	Kind  MessageKind
	Title string
	Text  string
}

// Notifier delivers rendered messages to a sink such as a chat.
type Notifier interface {
	Send(ctx context.Context, sinkID string, msg Message) error
}
