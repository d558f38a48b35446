package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/riskibarqy/focus-tracker/internal/platform/logging"
	"github.com/riskibarqy/focus-tracker/internal/platform/resilience"
	"github.com/riskibarqy/focus-tracker/internal/usecase"
)

// Telegram allows roughly 30 messages per minute into one chat.
const DefaultSendInterval = 2 * time.Second

// maxMessageLength is Telegram's limit for a single text message.
const maxMessageLength = 4096

var ErrInvalidChatID = errors.New("invalid telegram chat id")

// Sender is the part of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Config struct {
	SendInterval time.Duration
	Logger       *logging.Logger
}

// Notifier delivers rendered messages to Telegram chats. The sink id is the chat id.
type Notifier struct {
	bot     Sender
	limiter *resilience.Limiter
	logger  *logging.Logger
}

func NewNotifier(bot Sender, cfg Config) *Notifier {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	interval := cfg.SendInterval
	if interval < 0 {
		interval = 0
	}
	return &Notifier{
		bot:     bot,
		limiter: resilience.NewIntervalLimiter(interval),
		logger:  logger.Named("telegram_notifier"),
	}
}

var _ usecase.Notifier = (*Notifier)(nil)

func (n *Notifier) Send(ctx context.Context, sinkID string, msg usecase.Message) error {
	chatID, err := ParseChatID(sinkID)
	if err != nil {
		return err
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait telegram send slot: %w", err)
	}

	out := tgbotapi.NewMessage(chatID, truncate(msg.Text, maxMessageLength))
	out.ParseMode = tgbotapi.ModeHTML
	out.DisableWebPagePreview = true

	if _, err := n.bot.Send(out); err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
			n.logger.WarnContext(ctx, "telegram rate limited", "chat_id", chatID, "retry_after_seconds", apiErr.RetryAfter)
		}
		return fmt.Errorf("send telegram message kind=%s chat=%d: %w", msg.Kind, chatID, err)
	}
	return nil
}

// ParseChatID converts a sink id into a Telegram chat id.
func ParseChatID(sinkID string) (int64, error) {
	value := strings.TrimSpace(sinkID)
	if value == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidChatID)
	}
	chatID, err := strconv.ParseInt(value, 10, 64)
	if err != nil || chatID == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidChatID, sinkID)
	}
	return chatID, nil
}

// truncate shortens HTML text to limit runes without splitting a tag or an
// entity, then closes any tags left open by the cut.
func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	cut := limit - 1
	for cut > 0 {
		head := trimPartialMarkup(string(runes[:cut]))
		closers := closingTags(head)
		if utf8.RuneCountInString(head)+1+utf8.RuneCountInString(closers) <= limit {
			return head + "…" + closers
		}
		cut -= utf8.RuneCountInString(closers)
	}
	return "…"
}

// trimPartialMarkup drops a trailing tag or entity that the cut left unterminated.
func trimPartialMarkup(s string) string {
	if open := strings.LastIndexByte(s, '<'); open > strings.LastIndexByte(s, '>') {
		s = s[:open]
	}
	if amp := strings.LastIndexByte(s, '&'); amp >= 0 && amp > strings.LastIndexByte(s, ';') {
		s = s[:amp]
	}
	return s
}

// closingTags returns the end tags for every element still open in s, innermost first.
func closingTags(s string) string {
	var open []string
	for {
		start := strings.IndexByte(s, '<')
		if start < 0 {
			break
		}
		end := strings.IndexByte(s[start:], '>')
		if end < 0 {
			break
		}
		tag := s[start+1 : start+end]
		s = s[start+end+1:]

		if name, closing := strings.CutPrefix(tag, "/"); closing {
			name = strings.TrimSpace(name)
			for i := len(open) - 1; i >= 0; i-- {
				if open[i] == name {
					open = open[:i]
					break
				}
			}
			continue
		}
		if name, _, _ := strings.Cut(tag, " "); name != "" {
			open = append(open, name)
		}
	}

	var b strings.Builder
	for i := len(open) - 1; i >= 0; i-- {
		b.WriteString("</")
		b.WriteString(open[i])
		b.WriteString(">")
	}
	return b.String()
}
