package notify

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/riskibarqy/focus-tracker/internal/platform/logging"
	"github.com/riskibarqy/focus-tracker/internal/usecase"
)

func TestLogNotifier_LogsPlainText(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	notifier := NewLogNotifier(logging.FromZap(zap.New(core)))

	err := notifier.Send(context.Background(), "chat-1", usecase.Message{
		Kind:  usecase.MessageKindAlert,
		Title: "Win streak",
		Text:  "<b>Faker#KR1</b> won 3 in a row &amp; counting",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got=%d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["sink_id"] != "chat-1" || fields["kind"] != "alert" {
		t.Fatalf("unexpected fields: %v", fields)
	}
	if fields["text"] != "Faker#KR1 won 3 in a row & counting" {
		t.Fatalf("unexpected text: %v", fields["text"])
	}
}
