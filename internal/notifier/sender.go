// Package notifier renders reminder messages and delivers them by email or Telegram.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/resend/resend-go/v2"
	"golang.org/x/time/rate"
)

// TelegramPrefix marks a recipient address as a Telegram chat id.
const TelegramPrefix = "telegram:"

// Message is one rendered notification for one recipient.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "notification_logged", "to", msg.To, "subject", msg.Subject, "body", msg.Text)
	return nil
}

// ResendSender sends email through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}

	slog.InfoContext(ctx, "resend_sent", "message_id", sent.Id, "to", msg.To, "subject", msg.Subject)
	return nil
}

// TelegramSender posts the plain-text body to a chat. Recipients are "telegram:<chat id>".
type TelegramSender struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramSender(token string) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &TelegramSender{bot: bot}, nil
}

func (s *TelegramSender) Send(ctx context.Context, msg Message) error {
	chatID, err := ParseChatID(msg.To)
	if err != nil {
		return err
	}

	text := msg.Subject + "\n\n" + msg.Text
	if _, err := s.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("telegram send to %d: %w", chatID, err)
	}

	slog.InfoContext(ctx, "telegram_sent", "chat_id", chatID, "subject", msg.Subject)
	return nil
}

// ParseChatID extracts the chat id of a "telegram:<chat id>" address.
func ParseChatID(address string) (int64, error) {
	raw, ok := strings.CutPrefix(address, TelegramPrefix)
	if !ok {
		return 0, fmt.Errorf("%q is not a telegram address", address)
	}
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram chat id %q: %w", raw, err)
	}
	return chatID, nil
}

// RoutingSender sends Telegram addresses through chat and everything else through email.
type RoutingSender struct {
	email    Sender
	telegram Sender
}

// NewRoutingSender routes by address. telegram may be nil, in which case Telegram addresses fail.
func NewRoutingSender(email, telegram Sender) *RoutingSender {
	return &RoutingSender{email: email, telegram: telegram}
}

func (s *RoutingSender) Send(ctx context.Context, msg Message) error {
	if strings.HasPrefix(msg.To, TelegramPrefix) {
		if s.telegram == nil {
			return fmt.Errorf("no telegram sender configured for %s", msg.To)
		}
		return s.telegram.Send(ctx, msg)
	}
	return s.email.Send(ctx, msg)
}

// RateLimitedSender waits for a token before each send.
type RateLimitedSender struct {
	next    Sender
	limiter *rate.Limiter
}

func NewRateLimitedSender(next Sender, perSecond float64, burst int) *RateLimitedSender {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedSender{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (s *RateLimitedSender) Send(ctx context.Context, msg Message) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return s.next.Send(ctx, msg)
}
