package notify

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/berthwatch-io/berthwatch/pkg/protocol"
)

// telegramMaxLen is Telegram's hard message length limit.
const telegramMaxLen = 4096

// Telegram sends the report text to one chat via the Bot API.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

// NewTelegram builds a Telegram notifier. It authenticates eagerly so a
// bad token surfaces at startup rather than on the first run.
func NewTelegram(token string, chatID int64, logger *slog.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("notify: telegram: init bot: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("telegram bot authorized", "username", bot.Self.UserName)
	return &Telegram{bot: bot, chatID: chatID, logger: logger}, nil
}

func (t *Telegram) Name() string { return "telegram" }

// Send posts the rendered report, truncated to Telegram's limit.
func (t *Telegram) Send(ctx context.Context, rep *protocol.Report) error {
	text := RenderText(rep)
	if len(text) > telegramMaxLen {
		text = text[:telegramMaxLen-3] + "..."
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("notify: telegram: send: %w", err)
	}
	return nil
}
