package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Telegram sends a short message to a fixed chat for every submitted forecast
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// NewTelegram creates a Telegram notifier
func NewTelegram(botToken string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("initializing Telegram bot: %w", err)
	}

	return &Telegram{
		bot:    bot,
		chatID: chatID,
		logger: log.With().Str("component", "telegram_notifier").Logger(),
	}, nil
}

// ForecastSubmitted announces a submitted forecast
func (t *Telegram) ForecastSubmitted(questionID int, title string, probability float64) error {
	text := fmt.Sprintf("📊 Forecast submitted\n\nQuestion %d: %s\nPrediction: %.1f%%",
		questionID, title, probability)

	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("sending Telegram message: %w", err)
	}

	t.logger.Debug().Int("question_id", questionID).Msg("Sent Telegram notification")
	return nil
}
