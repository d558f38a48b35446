package telegrambot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/riskibarqy/focus-tracker/internal/domain/tracking"
	"github.com/riskibarqy/focus-tracker/internal/platform/logging"
	"github.com/riskibarqy/focus-tracker/internal/usecase"
)

type fakeAPI struct {
	mu      sync.Mutex
	updates chan tgbotapi.Update
	sent    []tgbotapi.MessageConfig
	stopped bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 4)}
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) sentMessages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.sent...)
}

type fakeCommands struct {
	trackInput usecase.TrackInput
	trackRes   usecase.TrackResult
	trackErr   error
	untracked  string
	removed    int
	untrackErr error
	sinkGroup  string
	sinkID     string
	group      tracking.Group
	groupErr   error
}

func (f *fakeCommands) Track(_ context.Context, input usecase.TrackInput) (usecase.TrackResult, error) {
	f.trackInput = input
	return f.trackRes, f.trackErr
}

func (f *fakeCommands) Untrack(_ context.Context, _ string, label string) (int, error) {
	f.untracked = label
	return f.removed, f.untrackErr
}

func (f *fakeCommands) SetSink(_ context.Context, groupID, sinkID string) (tracking.Group, error) {
	f.sinkGroup, f.sinkID = groupID, sinkID
	return tracking.Group{ID: groupID, SinkID: sinkID}, nil
}

func (f *fakeCommands) Group(context.Context, string) (tracking.Group, error) {
	return f.group, f.groupErr
}

func TestReply_TrackReportsOutcomes(t *testing.T) {
	t.Parallel()

	commands := &fakeCommands{trackRes: usecase.TrackResult{Outcomes: []usecase.TrackOutcome{
		{Input: "Faker#KR1:kr", DisplayName: "Faker#KR1", Region: "kr", Status: usecase.TrackStatusAdded, Games: 5},
		{Input: "Ghost#404", DisplayName: "Ghost#404", Status: usecase.TrackStatusFailed, Reason: "player not found"},
	}}}
	bot := NewBot(newFakeAPI(), commands, logging.NewNop())

	reply := bot.Reply(context.Background(), -100, "track", "Faker#KR1:kr  Ghost#404")

	if commands.trackInput.GroupID != "-100" || len(commands.trackInput.Players) != 2 {
		t.Fatalf("unexpected track input: %+v", commands.trackInput)
	}
	if !strings.Contains(reply, "Now tracking Faker#KR1 (kr), 5 games analyzed.") {
		t.Fatalf("missing added line: %q", reply)
	}
	if !strings.Contains(reply, "Could not track Ghost#404: player not found.") {
		t.Fatalf("missing failure line: %q", reply)
	}
}

func TestReply_TrackWithoutArgumentsShowsUsage(t *testing.T) {
	t.Parallel()

	commands := &fakeCommands{}
	bot := NewBot(newFakeAPI(), commands, logging.NewNop())

	if reply := bot.Reply(context.Background(), 1, "track", "  "); !strings.HasPrefix(reply, "Usage:") {
		t.Fatalf("expected usage, got=%q", reply)
	}
	if commands.trackInput.GroupID != "" {
		t.Fatalf("track must not be called without players")
	}
}

func TestReply_UntrackMapsErrors(t *testing.T) {
	t.Parallel()

	commands := &fakeCommands{untrackErr: fmt.Errorf("%w: x is not tracked", usecase.ErrNotFound)}
	bot := NewBot(newFakeAPI(), commands, logging.NewNop())

	if reply := bot.Reply(context.Background(), 1, "untrack", "x"); reply != "Nothing tracked under that name." {
		t.Fatalf("unexpected reply: %q", reply)
	}

	commands.untrackErr = nil
	commands.removed = 3
	if reply := bot.Reply(context.Background(), 1, "untrack", "all"); reply != "Stopped tracking 3 players." {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestReply_SetChannelUsesChatAsSink(t *testing.T) {
	t.Parallel()

	commands := &fakeCommands{}
	bot := NewBot(newFakeAPI(), commands, logging.NewNop())

	bot.Reply(context.Background(), 777, "setchannel", "")
	if commands.sinkGroup != "777" || commands.sinkID != "777" {
		t.Fatalf("expected chat 777 as group and sink, got group=%q sink=%q", commands.sinkGroup, commands.sinkID)
	}
}

func TestReply_TrackedListsPlayers(t *testing.T) {
	t.Parallel()

	commands := &fakeCommands{group: tracking.Group{ID: "1", Entities: []tracking.Entity{
		{DisplayName: "Faker#KR1", Region: "kr", History: []tracking.PerformanceRecord{{Win: true, UtilityScore: 8.5}}},
		{DisplayName: "Caps#EUW", Region: "euw1"},
	}}}
	bot := NewBot(newFakeAPI(), commands, logging.NewNop())

	reply := bot.Reply(context.Background(), 1, "tracked", "")
	for _, want := range []string{"Tracked players (2/5):", "- Faker#KR1 (kr) last: W 8.5/10", "- Caps#EUW (euw1)", "/setchannel"} {
		if !strings.Contains(reply, want) {
			t.Fatalf("reply %q missing %q", reply, want)
		}
	}
}

func TestRun_RepliesToCommandsUntilCanceled(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	bot := NewBot(api, &fakeCommands{}, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()

	api.updates <- tgbotapi.Update{Message: &tgbotapi.Message{Text: "hello", Chat: &tgbotapi.Chat{ID: 5}}}
	api.updates <- tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 9,
		Text:      "/help",
		Chat:      &tgbotapi.Chat{ID: 5},
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 5}},
	}}

	deadline := time.Now().Add(2 * time.Second)
	for len(api.sentMessages()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}

	sent := api.sentMessages()
	if len(sent) != 1 {
		t.Fatalf("expected one reply, got=%d", len(sent))
	}
	if sent[0].ChatID != 5 || sent[0].ReplyToMessageID != 9 || sent[0].Text != helpText {
		t.Fatalf("unexpected reply: %+v", sent[0])
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	if !api.stopped {
		t.Fatalf("expected updates to be stopped on cancel")
	}
}
