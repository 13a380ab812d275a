package notify

import (
	"context"
	"regexp"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// slackLink matches the Slack link syntax <url|text> produced by the message
// formatters; Telegram wants HTML anchors instead.
var slackLink = regexp.MustCompile(`<([^|>]+)\|([^>]+)>`)

// TelegramNotifier sends messages through a Telegram bot. Like the Slack
// notifier, delivery failures are logged and swallowed.
type TelegramNotifier struct {
	bot    *bot.Bot
	chatID string
	logger *zap.Logger
}

func NewTelegramNotifier(token, chatID string, logger *zap.Logger) (*TelegramNotifier, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, err
	}
	return &TelegramNotifier{bot: b, chatID: chatID, logger: logger}, nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, text string) {
	html := slackLink.ReplaceAllString(text, `<a href="$1">$2</a>`)
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    n.chatID,
		Text:      html,
		ParseMode: models.ParseModeHTML,
		LinkPreviewOptions: &models.LinkPreviewOptions{
			IsDisabled: bot.True(),
		},
	})
	if err != nil {
		n.logger.Warn("telegram delivery failed", zap.Error(err))
	}
}
