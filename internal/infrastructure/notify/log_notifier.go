package notify

import (
	"context"
	"html"
	"regexp"

	"github.com/riskibarqy/focus-tracker/internal/platform/logging"
	"github.com/riskibarqy/focus-tracker/internal/usecase"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// LogNotifier writes notifications to the log instead of a chat.
type LogNotifier struct {
	logger *logging.Logger
}

func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogNotifier{logger: logger.Named("notifier")}
}

var _ usecase.Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) Send(ctx context.Context, sinkID string, msg usecase.Message) error {
	n.logger.InfoContext(ctx, "notification",
		"sink_id", sinkID,
		"kind", string(msg.Kind),
		"title", msg.Title,
		"text", PlainText(msg.Text),
	)
	return nil
}

// PlainText strips the HTML markup used by rendered messages.
func PlainText(text string) string {
	return html.UnescapeString(htmlTagPattern.ReplaceAllString(text, ""))
}
