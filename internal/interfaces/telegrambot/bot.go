package telegrambot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/riskibarqy/focus-tracker/internal/domain/tracking"
	"github.com/riskibarqy/focus-tracker/internal/platform/logging"
	"github.com/riskibarqy/focus-tracker/internal/usecase"
)

const longPollTimeoutSeconds = 60

// API is the subset of *tgbotapi.BotAPI used by the command loop.
type API interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Commands is what the chat front-end can ask of the tracking service.
type Commands interface {
	Track(ctx context.Context, input usecase.TrackInput) (usecase.TrackResult, error)
	Untrack(ctx context.Context, groupID, label string) (int, error)
	SetSink(ctx context.Context, groupID, sinkID string) (tracking.Group, error)
	Group(ctx context.Context, groupID string) (tracking.Group, error)
}

type Bot struct {
	api      API
	commands Commands
	logger   *logging.Logger
}

func NewBot(api API, commands Commands, logger *logging.Logger) *Bot {
	if logger == nil {
		logger = logging.Default()
	}
	return &Bot{api: api, commands: commands, logger: logger.Named("telegram_bot")}
}

// Run long-polls updates until ctx is canceled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = longPollTimeoutSeconds
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("telegram command loop started")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("telegram command loop stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			b.handle(ctx, update.Message)
		}
	}
}

func (b *Bot) handle(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	reply := b.Reply(ctx, chatID, message.Command(), message.CommandArguments())
	if reply == "" {
		return
	}
	out := tgbotapi.NewMessage(chatID, reply)
	out.ReplyToMessageID = message.MessageID
	if _, err := b.api.Send(out); err != nil {
		b.logger.WarnContext(ctx, "send command reply failed", "chat_id", chatID, "command", message.Command(), "error", err)
	}
}

// Reply executes one command for chatID and returns the plain-text answer.
func (b *Bot) Reply(ctx context.Context, chatID int64, command, args string) string {
	groupID := strconv.FormatInt(chatID, 10)
	switch strings.ToLower(command) {
	case "track", "focus":
		return b.track(ctx, groupID, args)
	case "untrack", "unfocus":
		return b.untrack(ctx, groupID, args)
	case "setchannel":
		return b.setChannel(ctx, groupID)
	case "tracked", "current":
		return b.tracked(ctx, groupID)
	case "help", "start":
		return helpText
	default:
		return "Unknown command. Use /help to see available commands."
	}
}

func (b *Bot) track(ctx context.Context, groupID, args string) string {
	players := strings.Fields(args)
	if len(players) == 0 {
		return "Usage: /track Name#TAG[:region] ... (up to 5 players)"
	}

	result, err := b.commands.Track(ctx, usecase.TrackInput{GroupID: groupID, Players: players})
	if err != nil {
		b.logger.WarnContext(ctx, "track command failed", "group_id", groupID, "error", err)
		return describeError(err)
	}

	var sb strings.Builder
	for _, outcome := range result.Outcomes {
		name := outcome.DisplayName
		if name == "" {
			name = outcome.Input
		}
		switch outcome.Status {
		case usecase.TrackStatusAdded:
			fmt.Fprintf(&sb, "Now tracking %s (%s), %d games analyzed.\n", name, outcome.Region, outcome.Games)
		case usecase.TrackStatusUpdated:
			fmt.Fprintf(&sb, "Updated %s (%s).\n", name, outcome.Region)
		case usecase.TrackStatusUnchanged:
			fmt.Fprintf(&sb, "Already tracking %s.\n", name)
		default:
			fmt.Fprintf(&sb, "Could not track %s: %s.\n", name, outcome.Reason)
		}
	}
	return strings.TrimSpace(sb.String())
}

func (b *Bot) untrack(ctx context.Context, groupID, args string) string {
	label := strings.TrimSpace(args)
	if label == "" {
		return "Usage: /untrack Name#TAG or /untrack all"
	}
	removed, err := b.commands.Untrack(ctx, groupID, label)
	if err != nil {
		return describeError(err)
	}
	if removed == 1 && !strings.EqualFold(label, "all") {
		return fmt.Sprintf("Stopped tracking %s.", label)
	}
	return fmt.Sprintf("Stopped tracking %d players.", removed)
}

func (b *Bot) setChannel(ctx context.Context, groupID string) string {
	if _, err := b.commands.SetSink(ctx, groupID, groupID); err != nil {
		b.logger.WarnContext(ctx, "setchannel command failed", "group_id", groupID, "error", err)
		return describeError(err)
	}
	return "Notifications will be posted in this chat."
}

func (b *Bot) tracked(ctx context.Context, groupID string) string {
	group, err := b.commands.Group(ctx, groupID)
	if err != nil {
		return describeError(err)
	}
	if len(group.Entities) == 0 {
		return "No players are tracked here."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Tracked players (%d/%d):\n", len(group.Entities), tracking.MaxEntitiesPerGroup)
	for _, entity := range group.Entities {
		fmt.Fprintf(&sb, "- %s (%s)", entity.DisplayName, entity.Region)
		if latest, ok := entity.Latest(); ok {
			result := "L"
			if latest.Win {
				result = "W"
			}
			fmt.Fprintf(&sb, " last: %s %.1f/10", result, latest.UtilityScore)
		}
		sb.WriteString("\n")
	}
	if group.SinkID == "" {
		sb.WriteString("No notification channel set. Use /setchannel.")
	}
	return strings.TrimSpace(sb.String())
}

func describeError(err error) string {
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		return "Nothing tracked under that name."
	case errors.Is(err, usecase.ErrInvalidInput):
		return "Invalid input: " + strings.TrimPrefix(err.Error(), usecase.ErrInvalidInput.Error()+": ")
	case errors.Is(err, usecase.ErrMissingCredentials):
		return "Game data API key is not configured."
	default:
		return "Something went wrong, try again later."
	}
}

const helpText = `Commands:
/track Name#TAG[:region] ... - track up to 5 players (default region euw1)
/untrack Name#TAG - stop tracking a player, or /untrack all
/setchannel - post notifications in this chat
/tracked - list tracked players
/help - show this message`
