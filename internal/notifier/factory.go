package notifier

import (
	"fmt"
	"log/slog"

	"github.com/segyhp/league-ledger/internal/config"
)

// NewSender builds the configured delivery chain: the email provider, Telegram
// routing when a bot token is set, and rate limiting around both.
func NewSender(cfg config.NotificationConfig, logger *slog.Logger) (Sender, error) {
	var email Sender
	switch cfg.Provider {
	case config.ProviderResend:
		email = NewResendSender(cfg.ResendAPIKey, cfg.From)
	case config.ProviderLog:
		email = NewLogSender(logger)
	default:
		return nil, fmt.Errorf("unknown notification provider %q", cfg.Provider)
	}

	var telegram Sender
	if cfg.TelegramBotToken != "" {
		bot, err := NewTelegramSender(cfg.TelegramBotToken)
		if err != nil {
			return nil, err
		}
		telegram = bot
	}

	return NewRateLimitedSender(NewRoutingSender(email, telegram), cfg.RatePerSecond, cfg.Burst), nil
}
