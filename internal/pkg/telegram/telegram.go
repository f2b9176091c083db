package telegram

import (
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-timekeeping/internal/config"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender posts plain messages to a Telegram chat.
type Sender interface {
	SendMessage(chatID int64, text string) error
}

// botAPI is the part of *tgbotapi.BotAPI the client uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Client struct {
	bot botAPI
}

// NewClient logs in with cfg.Token. It returns nil, nil when the bot is
// disabled so callers can leave the channel out.
func NewClient(cfg config.TelegramConfig) (*Client, error) {
	if !cfg.Enabled || cfg.Token == "" {
		return nil, nil
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	slog.Info("Telegram bot authorized", "username", bot.Self.UserName)
	return &Client{bot: bot}, nil
}

// SendMessage implements Sender.
func (c *Client) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
