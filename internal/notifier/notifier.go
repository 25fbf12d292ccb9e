// Package notifier alerts operators when a booking submission fails for
// reasons the customer cannot fix.
package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	tgbotapi "gopkg.in/telegram-bot-api.v4"
)

type FailureAlert struct {
	WizardID       string
	ServiceType    string
	ItemID         string
	Category       string
	Message        string
	IdempotencyKey string
	Total          int64
	At             time.Time
}

type Nop struct{}

func (Nop) NotifyFailure(context.Context, FailureAlert) error { return nil }

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Telegram struct {
	bot    sender
	chatID int64
	logger *zap.Logger
}

// NewTelegram connects to the Bot API; it fails when the token is rejected.
func NewTelegram(token, chatID string, logger *zap.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connecting telegram bot: %w", err)
	}
	id, err := cast.ToInt64E(chatID)
	if err != nil {
		return nil, fmt.Errorf("parsing telegram chat id %q: %w", chatID, err)
	}
	return &Telegram{bot: bot, chatID: id, logger: logger}, nil
}

func (t *Telegram) NotifyFailure(ctx context.Context, a FailureAlert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, FormatAlert(a))
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("sending telegram alert: %w", err)
	}
	t.logger.Debug("failure alert sent", zap.String("wizardId", a.WizardID))
	return nil
}

func FormatAlert(a FailureAlert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "booking submission failed [%s]\n", a.Category)
	fmt.Fprintf(&b, "wizard: %s\n", a.WizardID)
	fmt.Fprintf(&b, "item: %s %s\n", a.ServiceType, a.ItemID)
	fmt.Fprintf(&b, "total: %d VND\n", a.Total)
	if a.IdempotencyKey != "" {
		fmt.Fprintf(&b, "idempotency key: %s\n", a.IdempotencyKey)
	}
	fmt.Fprintf(&b, "at: %s\n", a.At.UTC().Format(time.RFC3339))
	b.WriteString(a.Message)
	return b.String()
}
