package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yu-lin0312/news-collector/internal/domain"
	"github.com/yu-lin0312/news-collector/internal/infra/metrics"
)

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram отправляет брифинг в чат или канал.
type Telegram struct {
	bot    messageSender
	chatID int64
}

var _ domain.Notifier = (*Telegram)(nil)

// NewTelegramBot авторизует бота по токену.
func NewTelegramBot(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, errors.New("telegram: token is empty")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return bot, nil
}

// NewTelegram создаёт уведомитель для chatID.
func NewTelegram(bot messageSender, chatID int64) *Telegram {
	return &Telegram{bot: bot, chatID: chatID}
}

// Notify реализует domain.Notifier.
func (t *Telegram) Notify(ctx context.Context, b domain.Briefing) error {
	if len(b.Items) == 0 {
		return nil
	}
	target := strconv.FormatInt(t.chatID, 10)
	for _, part := range SplitMessage(FormatHTML(b), telegramLimit) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(t.chatID, part)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		start := time.Now()
		_, err := t.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", target, start, err)
		if err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
	}
	return nil
}
